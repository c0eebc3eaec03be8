package provider

import (
	"context"
	"strings"
	"sync"
)

// Memory is a Provider that keeps the override in process memory. It is the
// default when no other provider is wired and the workhorse of tests.
type Memory struct {
	mu        sync.Mutex
	selection []string
}

// NewMemory creates a memory provider seeded with the supplied selection.
func NewMemory(selection ...string) *Memory {
	return &Memory{selection: selection}
}

func (m *Memory) Current(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.selection))
	copy(out, m.selection)
	return out, nil
}

func (m *Memory) Apply(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(code) == "" {
		m.selection = nil
		return nil
	}

	m.selection = []string{code}
	return nil
}
