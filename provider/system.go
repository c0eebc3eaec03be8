package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/pitabwire/util"
)

const (
	defaultSettingsDirName  = "polyglot"
	defaultSettingsFileName = "language.toml"

	settingsDirPerm  = 0o755
	settingsFilePerm = 0o644
)

// settingsDoc is the on-disk layout of the override file.
type settingsDoc struct {
	Override string `toml:"override"`
}

// System is a Provider persisting the override in a TOML file, the closest
// analogue of an OS-managed per-application locale setting. Overrides
// written by another process are visible to Current immediately and can be
// pushed to the owning manager via Watch.
type System struct {
	path string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewSystem creates a file backed provider. An empty path places the
// settings file under the user configuration directory.
func NewSystem(path string) (*System, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user config dir: %w", err)
		}
		path = filepath.Join(configDir, defaultSettingsDirName, defaultSettingsFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), settingsDirPerm); err != nil {
		return nil, fmt.Errorf("preparing language settings dir: %w", err)
	}

	return &System{path: path}, nil
}

// Path returns the location of the settings file.
func (s *System) Path() string {
	return s.path
}

func (s *System) Current(_ context.Context) ([]string, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(doc.Override) == "" {
		return nil, nil
	}

	return strings.Split(doc.Override, ","), nil
}

func (s *System) Apply(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(code) == "" {
		err := os.Remove(s.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clearing language override: %w", err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(settingsDoc{Override: code}); err != nil {
		return fmt.Errorf("encoding language override: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), settingsFilePerm); err != nil {
		return fmt.Errorf("storing language override: %w", err)
	}

	return nil
}

// Watch invokes onChange whenever the settings file is modified, created or
// removed. It runs until the supplied context is done or Close is called.
// Repeated calls after the first are no-ops.
func (s *System) Watch(ctx context.Context, onChange func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating language file watcher: %w", err)
	}

	// The file may not exist yet, watch its directory instead.
	if err = watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching language settings dir: %w", err)
	}

	s.watcher = watcher
	go s.watchLoop(ctx, watcher, onChange)

	return nil
}

// Close stops the file watcher if one is running.
func (s *System) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}

	err := s.watcher.Close()
	s.watcher = nil
	return err
}

func (s *System) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	log := util.Log(ctx).WithField("path", s.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("language settings watcher error")
		}
	}
}

func (s *System) read() (settingsDoc, error) {
	var doc settingsDoc

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("reading language override: %w", err)
	}

	if err = toml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decoding language override: %w", err)
	}

	return doc, nil
}
