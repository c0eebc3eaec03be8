package polyglot

import (
	"context"

	"github.com/pitabwire/util"

	"github.com/kasuku/polyglot/config"
	"github.com/kasuku/polyglot/provider"
)

// WithProvider wires the platform locale provider the manager delegates to.
func WithProvider(p provider.Provider) Option {
	return func(_ context.Context, m *managerImpl) {
		m.provider = p
	}
}

// WithChangeEvents publishes every applied mode to the pubsub topic at the
// supplied URL, e.g. "mem://language.events".
func WithChangeEvents(topicURL string) Option {
	return func(_ context.Context, m *managerImpl) {
		if topicURL == "" {
			return
		}

		m.events = newChangePublisher(topicURL)
	}
}

// WithConfig applies a configuration object: a configured language file
// selects the file backed system provider and a configured events URL
// enables change event publishing. Explicitly supplied options take
// precedence.
func WithConfig(cfg config.ConfigurationLanguage) Option {
	return func(ctx context.Context, m *managerImpl) {
		if cfg == nil {
			return
		}

		if m.provider == nil && cfg.GetLanguageFilePath() != "" {
			sys, err := provider.NewSystem(cfg.GetLanguageFilePath())
			if err != nil {
				util.Log(ctx).
					WithError(err).
					WithField("path", cfg.GetLanguageFilePath()).
					Warn("could not set up file backed locale provider")
				return
			}
			m.provider = sys
		}

		if m.events == nil && cfg.GetChangeEventsURL() != "" {
			m.events = newChangePublisher(cfg.GetChangeEventsURL())
		}
	}
}
