package message

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
)

func TestValidateButtons(t *testing.T) {
	ok := Buttons("Pick one", Button{ID: "A", Title: "a"}, Button{ID: "B", Title: "b"}, Button{ID: "C", Title: "c"})
	assert.NoError(t, ok.Validate())

	tooMany := Buttons("Pick one",
		Button{ID: "A", Title: "a"}, Button{ID: "B", Title: "b"},
		Button{ID: "C", Title: "c"}, Button{ID: "D", Title: "d"})
	assert.ErrorIs(t, tooMany.Validate(), apperrors.ErrTooManyOptions)

	dup := Buttons("Pick one", Button{ID: "A", Title: "a"}, Button{ID: "A", Title: "b"})
	assert.ErrorIs(t, dup.Validate(), apperrors.ErrInvalidInput)

	assert.Error(t, Buttons("empty").Validate())
}

func TestValidateList(t *testing.T) {
	rows := func(prefix string, n int) []Row {
		out := make([]Row, n)
		for i := range out {
			out[i] = Row{ID: fmt.Sprintf("%s%d", prefix, i), Title: "row"}
		}
		return out
	}

	ok := List("Menu", "Open", Section{Title: "a", Rows: rows("a", 6)}, Section{Title: "b", Rows: rows("b", 4)})
	assert.NoError(t, ok.Validate())
	assert.Equal(t, 10, ok.RowCount())

	tooMany := List("Menu", "Open", Section{Title: "a", Rows: rows("a", 6)}, Section{Title: "b", Rows: rows("b", 5)})
	assert.ErrorIs(t, tooMany.Validate(), apperrors.ErrTooManyOptions)

	assert.Error(t, List("Menu", "Open").Validate())
	assert.Error(t, Text("  ").Validate())
	assert.NoError(t, Text("hi").Validate())
}

func TestNormalizeTruncatesFields(t *testing.T) {
	long := strings.Repeat("x", 100)
	m := List(strings.Repeat("b", 2000), long,
		Section{Title: long, Rows: []Row{{ID: "R1", Title: long, Description: long}}},
	)
	m.Header = long

	n := m.Normalize()
	require.NoError(t, n.Validate())
	assert.Len(t, []rune(n.Body), MaxInteractiveBody)
	assert.Len(t, []rune(n.Header), MaxHeader)
	assert.Len(t, []rune(n.ListButton), MaxListButton)
	assert.Len(t, []rune(n.Sections[0].Title), MaxSectionTitle)
	assert.Len(t, []rune(n.Sections[0].Rows[0].Title), MaxRowTitle)
	assert.Len(t, []rune(n.Sections[0].Rows[0].Description), MaxRowDescription)
	assert.True(t, strings.HasSuffix(n.Sections[0].Rows[0].Title, "…"))
	// original untouched
	assert.Len(t, m.Sections[0].Rows[0].Title, 100)

	b := Buttons("ok", Button{ID: "A", Title: long}).Normalize()
	assert.Len(t, []rune(b.Buttons[0].Title), MaxButtonTitle)

	txt := Text(strings.Repeat("é", 5000)).Normalize()
	assert.Len(t, []rune(txt.Body), MaxTextBody)
}

func TestTruncateShortAndMultibyte(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "नमस…", Truncate("नमस्ते", 4))
}

func TestPlainTextNumbersOptions(t *testing.T) {
	m := List("How can I help?", "Menu",
		Section{Title: "Info", Rows: []Row{{ID: "S", Title: "Schedule", Description: "Events"}, {ID: "V", Title: "Venues"}}},
		Section{Title: "More", Rows: []Row{{ID: "R", Title: "Reset"}}},
	)
	text := m.PlainText()
	assert.Contains(t, text, "1. Schedule - Events")
	assert.Contains(t, text, "2. Venues")
	assert.Contains(t, text, "3. Reset")

	opts := m.Options()
	require.Len(t, opts, 3)
	assert.Equal(t, "R", opts[2].ID)

	btn := Buttons("Coming?", Button{ID: "Y", Title: "Yes"}, Button{ID: "N", Title: "No"})
	assert.Contains(t, btn.PlainText(), "2. No")
	assert.Equal(t, "plain", Text("plain").PlainText())
	assert.Nil(t, Text("plain").Options())
}
