// Package config holds the environment driven configuration surface of the
// polyglot module.
package config

import (
	"context"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "polyglot/config/" + string(c)
}

const ctxKeyConfiguration = contextKey("configurationKey")

// ToContext adds configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

// ConfigurationLanguage is the configuration contract the language manager
// consumes.
type ConfigurationLanguage interface {
	GetDefaultLanguage() string
	GetLanguageFilePath() string
	GetTranslationsDir() string
	GetTranslationLanguages() []string
	GetChangeEventsURL() string
}

// LanguageConfiguration is the default environment backed implementation of
// ConfigurationLanguage.
type LanguageConfiguration struct {
	DefaultLanguage string   `envDefault:"en"           env:"LANGUAGE_DEFAULT"          yaml:"default_language"`
	LanguageFile    string   `env:"LANGUAGE_FILE"       yaml:"language_file"`
	TranslationsDir string   `envDefault:"translations" env:"LANGUAGE_TRANSLATIONS_DIR" yaml:"translations_dir"`
	Languages       []string `env:"LANGUAGES"           yaml:"languages"`
	ChangeEventsURL string   `env:"LANGUAGE_EVENTS_URL" yaml:"change_events_url"`
}

var _ ConfigurationLanguage = new(LanguageConfiguration)

func (c *LanguageConfiguration) GetDefaultLanguage() string {
	return c.DefaultLanguage
}

func (c *LanguageConfiguration) GetLanguageFilePath() string {
	return c.LanguageFile
}

func (c *LanguageConfiguration) GetTranslationsDir() string {
	return c.TranslationsDir
}

func (c *LanguageConfiguration) GetTranslationLanguages() []string {
	return c.Languages
}

func (c *LanguageConfiguration) GetChangeEventsURL() string {
	return c.ChangeEventsURL
}
