// Package i18n resolves guest-facing copy by key and language, falling back
// to the base language one field at a time.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// Text is one localized field. Missing or blank translations fall back to the base language.
type Text map[models.Language]string

// Resolve returns the value for lang, else base, else any non-empty value in language order
func (t Text) Resolve(lang, base models.Language) string {
	if v := strings.TrimSpace(t[lang]); v != "" {
		return t[lang]
	}
	if v := strings.TrimSpace(t[base]); v != "" {
		return t[base]
	}
	for _, l := range models.Languages {
		if strings.TrimSpace(t[l]) != "" {
			return t[l]
		}
	}
	return ""
}

// Empty reports whether no language carries a value
func (t Text) Empty() bool {
	for _, v := range t {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Bundle holds message templates keyed by template key and language
type Bundle struct {
	base      models.Language
	templates map[string]Text
}

// NewBundle creates a bundle with the given base language
func NewBundle(base models.Language, templates map[string]Text) *Bundle {
	if !base.Valid() {
		base = models.LanguageEnglish
	}
	b := &Bundle{base: base, templates: make(map[string]Text, len(templates))}
	for key, text := range templates {
		b.templates[key] = text
	}
	return b
}

// Base returns the fallback language
func (b *Bundle) Base() models.Language {
	return b.base
}

// T looks up key for lang. Unknown keys resolve to the key itself so a reply is never empty.
func (b *Bundle) T(lang models.Language, key string) string {
	text, ok := b.templates[key]
	if !ok {
		return key
	}
	if v := text.Resolve(lang, b.base); v != "" {
		return v
	}
	return key
}

// Format looks up key and substitutes {name} placeholders from vars
func (b *Bundle) Format(lang models.Language, key string, vars map[string]string) string {
	out := b.T(lang, key)
	if len(vars) == 0 {
		return out
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(out)
}

var (
	supportedTags = []language.Tag{language.English, language.Hindi, language.Punjabi}
	matcher       = language.NewMatcher(supportedTags)
)

// Match maps a BCP 47 code such as "hi-IN" or "pa-Guru" onto the supported languages
func Match(code string) (models.Language, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("failed to parse language %q: %w", code, err)
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return models.Languages[index], nil
}
