package polyglot_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gocloud.dev/pubsub"

	"github.com/kasuku/polyglot"
	"github.com/kasuku/polyglot/provider"
)

const recvTimeout = 2 * time.Second

// failingProvider rejects every call with a fixed error.
type failingProvider struct {
	err error
}

func (p *failingProvider) Current(_ context.Context) ([]string, error) {
	return nil, p.err
}

func (p *failingProvider) Apply(_ context.Context, _ string) error {
	return p.err
}

// ManagerTestSuite covers the language manager contract.
type ManagerTestSuite struct {
	suite.Suite
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, &ManagerTestSuite{})
}

func (s *ManagerTestSuite) recv(ch <-chan polyglot.Mode) polyglot.Mode {
	s.T().Helper()

	select {
	case mode := <-ch:
		return mode
	case <-time.After(recvTimeout):
		s.T().Fatal("timed out waiting for a mode emission")
		return polyglot.Mode{}
	}
}

// recvUntil drains ch until want arrives. The manager's stream coalesces to
// the newest value, so intermediate modes may be skipped but nothing older
// than the value current at subscribe time is ever delivered.
func (s *ManagerTestSuite) recvUntil(ch <-chan polyglot.Mode, want polyglot.Mode) {
	s.T().Helper()

	deadline := time.After(recvTimeout)
	for {
		select {
		case mode := <-ch:
			if mode == want {
				return
			}
		case <-deadline:
			s.T().Fatalf("timed out waiting for mode %v", want)
		}
	}
}

func (s *ManagerTestSuite) TestInitialMode() {
	testCases := []struct {
		name      string
		selection []string
		want      polyglot.Mode
	}{
		{
			name:      "no stored override follows the system",
			selection: nil,
			want:      polyglot.SystemDefault(),
		},
		{
			name:      "stored override seeds a custom mode",
			selection: []string{"tr-TR"},
			want:      polyglot.Custom("tr"),
		},
		{
			name:      "multi entry override uses the first entry",
			selection: []string{"sw-KE", "en-US"},
			want:      polyglot.Custom("sw"),
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			ctx := context.Background()

			manager, err := polyglot.New(ctx, polyglot.WithProvider(provider.NewMemory(tc.selection...)))
			s.Require().NoError(err, "manager construction should succeed")

			s.Require().Equal(tc.want, manager.Current(), "initial mode should be derived from the provider")
			s.Require().Equal(tc.want, s.recv(manager.Watch(ctx)), "first emission should be the initial mode")
		})
	}
}

func (s *ManagerTestSuite) TestSetLanguage() {
	testCases := []struct {
		name string
		code string
		want polyglot.Mode
	}{
		{
			name: "non empty code becomes custom",
			code: "en",
			want: polyglot.Custom("en"),
		},
		{
			name: "empty code reverts to system default",
			code: "",
			want: polyglot.SystemDefault(),
		},
		{
			name: "blank code reverts to system default",
			code: "  ",
			want: polyglot.SystemDefault(),
		},
		{
			name: "code is preserved without normalization",
			code: "en-GB",
			want: polyglot.Custom("en-GB"),
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			ctx := context.Background()

			manager, err := polyglot.New(ctx, polyglot.WithProvider(provider.NewMemory("fr")))
			s.Require().NoError(err)

			ch := manager.Watch(ctx)
			s.Require().Equal(polyglot.Custom("fr"), s.recv(ch), "subscription should replay the pre-call mode")

			s.Require().NoError(manager.SetLanguage(ctx, tc.code), "setting the language should succeed")

			s.Require().Equal(tc.want, manager.Current(), "current mode should reflect the applied selection")
			s.Require().Equal(tc.want, s.recv(ch), "subscriber should observe the applied selection")
		})
	}
}

func (s *ManagerTestSuite) TestScenarioChain() {
	ctx := context.Background()

	manager, err := polyglot.New(ctx)
	s.Require().NoError(err)

	ch := manager.Watch(ctx)
	s.Require().Equal(polyglot.SystemDefault(), s.recv(ch), "fresh manager should start on the system default")

	s.Require().NoError(manager.SetLanguage(ctx, "en"))
	s.Require().Equal(polyglot.Custom("en"), s.recv(ch), "next emission should be the custom selection")

	s.Require().NoError(manager.SetLanguage(ctx, ""))
	s.Require().Equal(polyglot.SystemDefault(), s.recv(ch), "clearing should emit the system default")
}

func (s *ManagerTestSuite) TestSubscribeAfterUpdatesYieldsLatest() {
	ctx := context.Background()

	manager, err := polyglot.New(ctx)
	s.Require().NoError(err)

	for _, code := range []string{"en", "sw", "tr"} {
		s.Require().NoError(manager.SetLanguage(ctx, code))
	}

	s.Require().Equal(polyglot.Custom("tr"), s.recv(manager.Watch(ctx)),
		"a late subscriber should immediately receive the latest mode")
}

func (s *ManagerTestSuite) TestConcurrentSubscribers() {
	ctx := context.Background()

	manager, err := polyglot.New(ctx)
	s.Require().NoError(err)

	first := manager.Watch(ctx)
	second := manager.Watch(ctx)
	s.Require().Equal(polyglot.SystemDefault(), s.recv(first))
	s.Require().Equal(polyglot.SystemDefault(), s.recv(second))

	s.Require().NoError(manager.SetLanguage(ctx, "tr"))

	s.recvUntil(first, polyglot.Custom("tr"))
	s.recvUntil(second, polyglot.Custom("tr"))
}

func (s *ManagerTestSuite) TestIdempotentSet() {
	ctx := context.Background()

	manager, err := polyglot.New(ctx)
	s.Require().NoError(err)

	s.Require().NoError(manager.SetLanguage(ctx, "tr"))
	s.Require().NoError(manager.SetLanguage(ctx, "tr"))

	s.Require().Equal(polyglot.Custom("tr"), manager.Current(), "repeated set should leave the same mode")
}

func (s *ManagerTestSuite) TestRoundTripThroughProvider() {
	ctx := context.Background()
	mem := provider.NewMemory()

	manager, err := polyglot.New(ctx, polyglot.WithProvider(mem))
	s.Require().NoError(err)

	s.Require().NoError(manager.SetLanguage(ctx, "tr"))

	selection, err := mem.Current(ctx)
	s.Require().NoError(err)
	s.Require().Equal(polyglot.Custom("tr"), polyglot.ModeFromSelection(selection),
		"a fresh read of provider state should derive the applied mode")
}

func (s *ManagerTestSuite) TestConstructionReadFailure() {
	ctx := context.Background()
	readErr := errors.New("locale service unavailable")

	manager, err := polyglot.New(ctx, polyglot.WithProvider(&failingProvider{err: readErr}))
	s.Require().ErrorIs(err, readErr, "construction should surface the provider read failure unchanged")
	s.Require().Nil(manager)
}

func (s *ManagerTestSuite) TestApplyFailureIsPropagated() {
	ctx := context.Background()
	applyErr := errors.New("malformed tag rejected")

	manager, err := polyglot.New(ctx, polyglot.WithProvider(&applyFailingProvider{err: applyErr}))
	s.Require().NoError(err, "construction should succeed while reads work")

	ch := manager.Watch(ctx)
	s.Require().Equal(polyglot.SystemDefault(), s.recv(ch))

	err = manager.SetLanguage(ctx, "xx")
	s.Require().ErrorIs(err, applyErr, "provider apply failures should propagate unchanged")
	s.Require().Equal(polyglot.SystemDefault(), manager.Current(), "a failed apply should leave the mode untouched")

	select {
	case mode := <-ch:
		s.T().Fatalf("no emission expected after a failed apply, got %v", mode)
	case <-time.After(100 * time.Millisecond):
	}
}

// applyFailingProvider reads fine but rejects writes.
type applyFailingProvider struct {
	err error
}

func (p *applyFailingProvider) Current(_ context.Context) ([]string, error) {
	return nil, nil
}

func (p *applyFailingProvider) Apply(_ context.Context, _ string) error {
	return p.err
}

func (s *ManagerTestSuite) TestFileBackedSetKeepsExactCode() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sys, err := provider.NewSystem(filepath.Join(s.T().TempDir(), "language.toml"))
	s.Require().NoError(err)

	manager, err := polyglot.New(ctx, polyglot.WithProvider(sys))
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(manager.Close(ctx))
	}()

	ch := manager.Watch(ctx)
	s.Require().Equal(polyglot.SystemDefault(), s.recv(ch))

	s.Require().NoError(manager.SetLanguage(ctx, "en-GB"))
	s.Require().Equal(polyglot.Custom("en-GB"), s.recv(ch), "the applied code should be published verbatim")

	// The manager's own write comes back through the file watcher; the echo
	// must not replace the exact code with its derived primary subtag.
	select {
	case mode := <-ch:
		s.T().Fatalf("no emission expected from the watcher echo, got %v", mode)
	case <-time.After(500 * time.Millisecond):
	}
	s.Require().Equal(polyglot.Custom("en-GB"), manager.Current(), "the exact code should survive the watcher echo")

	// Edits made by another process still flow through and are derived.
	s.Require().NoError(os.WriteFile(sys.Path(), []byte("override = \"sw-KE\"\n"), 0o644))
	s.recvUntil(ch, polyglot.Custom("sw"))
}

func (s *ManagerTestSuite) TestChangeEventsPublished() {
	ctx := context.Background()
	topicURL := "mem://language.events.test"

	manager, err := polyglot.New(ctx, polyglot.WithChangeEvents(topicURL))
	s.Require().NoError(err)
	defer func() {
		s.Require().NoError(manager.Close(ctx))
	}()

	subscription, err := pubsub.OpenSubscription(ctx, topicURL)
	s.Require().NoError(err, "subscription on the change topic should open")
	defer func() {
		_ = subscription.Shutdown(ctx)
	}()

	s.Require().NoError(manager.SetLanguage(ctx, "sw"))

	recvCtx, cancel := context.WithTimeout(ctx, recvTimeout)
	defer cancel()

	msg, err := subscription.Receive(recvCtx)
	s.Require().NoError(err, "a change event should be delivered")
	msg.Ack()

	s.Require().Equal("sw", string(msg.Body), "event body should carry the applied code")
	s.Require().Equal("sw", msg.Metadata["polyglot.mode"], "event metadata should carry the mode")
	s.Require().Equal("false", msg.Metadata["polyglot.system_default"])
}

func (s *ManagerTestSuite) TestCloseEndsSubscriptions() {
	ctx := context.Background()

	manager, err := polyglot.New(ctx)
	s.Require().NoError(err)

	ch := manager.Watch(ctx)
	s.Require().Equal(polyglot.SystemDefault(), s.recv(ch))

	s.Require().NoError(manager.Close(ctx))

	s.Require().Eventually(func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, recvTimeout, 10*time.Millisecond, "closing the manager should end subscriptions on non-cancellable contexts")
}

func (s *ManagerTestSuite) TestContextPropagation() {
	ctx := context.Background()

	manager, err := polyglot.New(ctx)
	s.Require().NoError(err)

	ctx = polyglot.ToContext(ctx, manager)
	s.Require().Same(manager, polyglot.FromContext(ctx), "the shared manager should round-trip through the context")
	s.Require().Nil(polyglot.FromContext(context.Background()), "a bare context should carry no manager")
}
