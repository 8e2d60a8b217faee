// Package i18n holds the site languages, the observable language selector
// and the translation tables used by the chat widget.
package i18n

import "strings"

// Language is a supported site language.
type Language string

const (
	English   Language = "en"
	Bulgarian Language = "bg"

	Default = English
)

// Supported lists the site languages in display order.
func Supported() []Language {
	return []Language{English, Bulgarian}
}

// Parse maps a language tag such as "bg" or "en-US" to a supported
// language.
func Parse(raw string) (Language, bool) {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	for _, lang := range Supported() {
		if string(lang) == tag {
			return lang, true
		}
	}
	return "", false
}

// ParseOrDefault is Parse falling back to Default.
func ParseOrDefault(raw string) Language {
	if lang, ok := Parse(raw); ok {
		return lang
	}
	return Default
}
