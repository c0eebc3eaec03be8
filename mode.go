package polyglot

import (
	"strings"

	"golang.org/x/text/language"
)

// Mode represents the active language selection of an application. It has
// exactly two shapes: follow the system locale, or use one explicit language
// code. The zero value is the system default.
type Mode struct {
	code string
}

// SystemDefault returns the mode that follows the operating system locale.
func SystemDefault() Mode {
	return Mode{}
}

// Custom returns the mode for the supplied language code. Empty or blank
// codes collapse to the system default so a degenerate custom mode with no
// code can never exist. Any other code is kept byte for byte, surrounding
// whitespace included: this layer performs no normalization, whatever is
// supplied is what the platform receives.
func Custom(code string) Mode {
	if strings.TrimSpace(code) == "" {
		return Mode{}
	}

	return Mode{code: code}
}

// IsSystemDefault reports whether the mode follows the system locale.
func (m Mode) IsSystemDefault() bool {
	return m.code == ""
}

// Code returns the explicit language code, or the empty string when the mode
// is the system default.
func (m Mode) Code() string {
	return m.code
}

func (m Mode) String() string {
	if m.IsSystemDefault() {
		return "system"
	}

	return m.code
}

// ModeFromSelection maps a provider-reported locale selection onto a Mode.
// An empty selection means no override is stored. Otherwise only the first
// entry is consulted and its primary language subtag becomes the custom
// code; entries that do not parse as BCP-47 tags are kept verbatim so a
// stored selection is never silently discarded.
func ModeFromSelection(selection []string) Mode {
	if len(selection) == 0 {
		return SystemDefault()
	}

	first := strings.TrimSpace(selection[0])
	if first == "" {
		return SystemDefault()
	}

	tag, err := language.Parse(first)
	if err != nil {
		return Custom(first)
	}

	base, _ := tag.Base()
	if base.String() == "und" {
		return SystemDefault()
	}

	return Custom(base.String())
}
