package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

func TestTextResolveFallsBackPerField(t *testing.T) {
	text := Text{en: "A", pa: "C"}
	assert.Equal(t, "A", text.Resolve(hi, en))
	assert.Equal(t, "C", text.Resolve(pa, en))
	assert.Equal(t, "A", text.Resolve(en, en))

	blank := Text{en: "A", hi: "   "}
	assert.Equal(t, "A", blank.Resolve(hi, en))

	onlyHindi := Text{hi: "B"}
	assert.Equal(t, "B", onlyHindi.Resolve(pa, en))
	assert.True(t, Text{}.Empty())
	assert.False(t, onlyHindi.Empty())
}

func TestBundleT(t *testing.T) {
	b := Default(models.LanguageEnglish)

	assert.Equal(t, "Menu", b.T(en, "menu.button"))
	assert.Equal(t, "मेन्यू", b.T(hi, "menu.button"))
	// no Punjabi FAQ description, falls back to English
	assert.Equal(t, "Common questions", b.T(pa, "menu.faq.desc"))
	assert.Equal(t, "no.such.key", b.T(hi, "no.such.key"))

	blank := NewBundle(models.LanguageEnglish, map[string]Text{"empty": {en: "  "}})
	assert.Equal(t, "empty", blank.T(en, "empty"), "a key with no usable copy resolves to itself")
}

func TestBundleFormat(t *testing.T) {
	b := NewBundle(models.LanguageEnglish, map[string]Text{
		"greet": {en: "Hi {name}, see you on {date}", hi: "नमस्ते {name}"},
	})
	assert.Equal(t, "Hi Asha, see you on 14 Feb", b.Format(en, "greet", map[string]string{"name": "Asha", "date": "14 Feb"}))
	assert.Equal(t, "नमस्ते Asha", b.Format(hi, "greet", map[string]string{"name": "Asha"}))
}

func TestNewBundleInvalidBase(t *testing.T) {
	b := NewBundle("xx", nil)
	assert.Equal(t, models.LanguageEnglish, b.Base())
}

func TestMatch(t *testing.T) {
	cases := map[string]models.Language{
		"en":    models.LanguageEnglish,
		"en-GB": models.LanguageEnglish,
		"hi":    models.LanguageHindi,
		"hi-IN": models.LanguageHindi,
		"pa":    models.LanguagePunjabi,
		"pa-IN": models.LanguagePunjabi,
	}
	for code, want := range cases {
		got, err := Match(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, got, code)
	}

	_, err := Match("")
	assert.Error(t, err)
	_, err = Match("not a tag!")
	assert.Error(t, err)
	_, err = Match("ja")
	assert.Error(t, err)
}

func TestDefaultMessagesHaveEnglish(t *testing.T) {
	for key, text := range DefaultMessages {
		assert.NotEmpty(t, text[en], key)
	}
}
