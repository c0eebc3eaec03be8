// Package provider defines the platform collaborator that owns persistence
// of an application's language override, together with the implementations
// shipped with this module.
package provider

import (
	"context"

	golocale "github.com/jeandeaual/go-locale"
)

// Provider is the locale facility the language manager delegates to. It owns
// storage and propagation of the override; the manager only derives its
// observable mode from what the provider reports.
type Provider interface {
	// Current reports the stored override as a list of locale tags, most
	// preferred first. An empty list means no override is stored and the
	// system locale applies.
	Current(ctx context.Context) ([]string, error)

	// Apply stores the supplied code as the new override. An empty code
	// clears the override so the application follows the system locale
	// again.
	Apply(ctx context.Context, code string) error
}

// ChangeNotifier is implemented by providers whose backing store can be
// modified from outside the process. The callback fires whenever the stored
// selection may have changed.
type ChangeNotifier interface {
	Watch(ctx context.Context, onChange func()) error
}

// SystemLocales reports the locales preferred by the operating system, most
// specific first. Detection failures collapse to an empty list.
func SystemLocales() []string {
	locales, err := golocale.GetLocales()
	if err != nil {
		return nil
	}

	return locales
}
