// Package usecase exposes the language manager's two operations to layered
// application codebases that keep a distinct application layer.
package usecase

import (
	"context"

	"github.com/kasuku/polyglot"
)

// ObserveLanguageUseCase streams the current language mode.
type ObserveLanguageUseCase struct {
	manager polyglot.Manager
}

// NewObserveLanguageUseCase creates a new ObserveLanguageUseCase.
func NewObserveLanguageUseCase(manager polyglot.Manager) *ObserveLanguageUseCase {
	return &ObserveLanguageUseCase{manager: manager}
}

// Execute forwards to the manager's mode stream.
func (uc *ObserveLanguageUseCase) Execute(ctx context.Context) <-chan polyglot.Mode {
	return uc.manager.Watch(ctx)
}

// UpdateLanguageUseCase applies a new language selection.
type UpdateLanguageUseCase struct {
	manager polyglot.Manager
}

// NewUpdateLanguageUseCase creates a new UpdateLanguageUseCase.
func NewUpdateLanguageUseCase(manager polyglot.Manager) *UpdateLanguageUseCase {
	return &UpdateLanguageUseCase{manager: manager}
}

// Execute forwards to the manager; an empty code reverts to the system
// default.
func (uc *UpdateLanguageUseCase) Execute(ctx context.Context, code string) error {
	return uc.manager.SetLanguage(ctx, code)
}
