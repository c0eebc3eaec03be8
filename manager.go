// Package polyglot lets an application switch its display language at
// runtime and observe the current selection. The selection is modelled as a
// two variant Mode held by a process wide Manager and persisted by a
// pluggable platform Provider.
package polyglot

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pitabwire/util"

	"github.com/kasuku/polyglot/internal/watch"
	"github.com/kasuku/polyglot/provider"
)

type contextKey string

func (c contextKey) String() string {
	return "polyglot/" + string(c)
}

const ctxKeyManager = contextKey("managerKey")

// ToContext adds a manager to the current supplied context.
func ToContext(ctx context.Context, manager Manager) context.Context {
	return context.WithValue(ctx, ctxKeyManager, manager)
}

// FromContext extracts a manager from the supplied context if any exist.
func FromContext(ctx context.Context) Manager {
	manager, ok := ctx.Value(ctxKeyManager).(Manager)
	if !ok {
		return nil
	}

	return manager
}

// Manager is the single source of truth for the application's current
// language selection.
type Manager interface {
	// Current returns a snapshot of the latest mode.
	Current() Mode

	// Watch returns a replaying subscription: the first value received is
	// the mode current at subscribe time, followed by every later update in
	// apply order. The stream ends only when the supplied context is done
	// or the manager is closed.
	Watch(ctx context.Context) <-chan Mode

	// SetLanguage applies a new selection. An empty code reverts to the
	// system default; anything else becomes the custom code. Provider
	// failures are returned unchanged and leave the observable mode
	// untouched.
	SetLanguage(ctx context.Context, code string) error

	// Close ends every Watch subscription and releases resources held by
	// the manager such as the change event topic and the provider's file
	// watcher.
	Close(ctx context.Context) error
}

type managerImpl struct {
	provider provider.Provider
	cell     *watch.Cell[Mode]
	events   *changePublisher

	mu      sync.Mutex
	applied []string // selection last written through this manager
}

// Option configures a manager while it is being constructed.
type Option func(ctx context.Context, m *managerImpl)

// New constructs the shared manager instance. The provider's current
// selection seeds the observable mode; with no options the manager runs on
// an in-memory provider with no stored override.
func New(ctx context.Context, opts ...Option) (Manager, error) {
	m := &managerImpl{}

	for _, opt := range opts {
		opt(ctx, m)
	}

	if m.provider == nil {
		m.provider = provider.NewMemory()
	}

	selection, err := m.provider.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading current locale selection: %w", err)
	}

	m.applied = selection
	m.cell = watch.NewCell(ModeFromSelection(selection))

	if m.events != nil {
		if err = m.events.connect(ctx); err != nil {
			return nil, fmt.Errorf("opening language change topic: %w", err)
		}
	}

	if notifier, ok := m.provider.(provider.ChangeNotifier); ok {
		if err = notifier.Watch(ctx, func() { m.reload(ctx) }); err != nil {
			return nil, fmt.Errorf("watching locale provider: %w", err)
		}
	}

	return m, nil
}

func (m *managerImpl) Current() Mode {
	return m.cell.Get()
}

func (m *managerImpl) Watch(ctx context.Context) <-chan Mode {
	return m.cell.Subscribe(ctx)
}

func (m *managerImpl) SetLanguage(ctx context.Context, code string) error {
	target := Custom(code)

	if err := m.provider.Apply(ctx, target.Code()); err != nil {
		return err
	}

	m.mu.Lock()
	if target.IsSystemDefault() {
		m.applied = nil
	} else {
		m.applied = []string{target.Code()}
	}
	m.mu.Unlock()

	m.cell.Set(target)

	if m.events != nil {
		if err := m.events.publish(ctx, target); err != nil {
			util.Log(ctx).
				WithError(err).
				WithField("mode", target.String()).
				Warn("could not publish language change event")
		}
	}

	return nil
}

func (m *managerImpl) Close(ctx context.Context) error {
	m.cell.Close()

	if closer, ok := m.provider.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}

	if m.events != nil {
		return m.events.close(ctx)
	}

	return nil
}

// reload re-derives the mode from the provider after an out-of-process
// change. Errors are logged and the last known mode kept.
func (m *managerImpl) reload(ctx context.Context) {
	selection, err := m.provider.Current(ctx)
	if err != nil {
		util.Log(ctx).WithError(err).Warn("could not re-read locale selection")
		return
	}

	// A write through SetLanguage echoes back through the provider's change
	// notification. The applied code is already published verbatim; deriving
	// it again would reduce a full tag to its primary subtag.
	m.mu.Lock()
	echo := slices.Equal(selection, m.applied)
	m.applied = selection
	m.mu.Unlock()
	if echo {
		return
	}

	mode := ModeFromSelection(selection)
	if mode == m.cell.Get() {
		return
	}

	m.cell.Set(mode)
}
