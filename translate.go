package polyglot

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"

	"github.com/kasuku/polyglot/config"
	"github.com/kasuku/polyglot/provider"
)

// Translator localizes message ids against the mode currently held by a
// manager. When the mode is the system default the operating system's
// preferred locales drive the lookup, with the bundle's default language as
// the last resort.
type Translator struct {
	manager Manager
	bundle  *i18n.Bundle
}

// NewTranslator loads toml message files named messages.<lang>.toml from the
// configured translations folder, one per configured language. The
// configured default language becomes the bundle's fallback; English is used
// when it is unset or does not parse as a language tag.
func NewTranslator(manager Manager, cfg config.ConfigurationLanguage) *Translator {
	defaultTag := language.English
	translationsFolder := "translations"
	var languages []string

	if cfg != nil {
		if parsed, err := language.Parse(cfg.GetDefaultLanguage()); err == nil {
			defaultTag = parsed
		}
		if cfg.GetTranslationsDir() != "" {
			translationsFolder = cfg.GetTranslationsDir()
		}
		languages = cfg.GetTranslationLanguages()
	}

	bundle := i18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, lang := range languages {
		bundle.MustLoadMessageFile(fmt.Sprintf("%s/messages.%v.toml", translationsFolder, lang))
	}

	return &Translator{manager: manager, bundle: bundle}
}

// Bundle Access the translation bundle instantiated in the system.
func (t *Translator) Bundle() *i18n.Bundle {
	return t.bundle
}

// Translate performs a quick translation based on the supplied message id.
func (t *Translator) Translate(ctx context.Context, messageID string) string {
	return t.TranslateWithMap(ctx, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
func (t *Translator) TranslateWithMap(ctx context.Context, messageID string, variables map[string]any) string {
	return t.TranslateWithMapAndCount(ctx, messageID, variables, 1)
}

// TranslateWithMapAndCount performs a translation with variables based on the supplied message id and can pluralize.
func (t *Translator) TranslateWithMapAndCount(
	ctx context.Context,
	messageID string,
	variables map[string]any,
	count int,
) string {
	localizer := i18n.NewLocalizer(t.bundle, t.languages()...)

	transVersion, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID},
		TemplateData:   variables,
		PluralCount:    count,
	})

	if err != nil {
		logger := util.Log(ctx).WithError(err).WithField("messageID", messageID)
		logger.Error("could not perform translation")
	}

	return transVersion
}

func (t *Translator) languages() []string {
	mode := t.manager.Current()
	if !mode.IsSystemDefault() {
		return []string{mode.Code()}
	}

	return provider.SystemLocales()
}
