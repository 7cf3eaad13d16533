// Package message defines the outbound payloads the bot produces and the
// Sender capability that delivers them.
package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
)

// Transport limits
const (
	MaxButtons = 3
	MaxRows    = 10

	MaxTextBody        = 4096
	MaxInteractiveBody = 1024
	MaxHeader          = 60
	MaxFooter          = 60
	MaxButtonTitle     = 20
	MaxListButton      = 20
	MaxSectionTitle    = 24
	MaxRowTitle        = 24
	MaxRowDescription  = 72
	MaxID              = 200
)

// Kind is the shape of an outbound message
type Kind int

const (
	KindText Kind = iota
	KindButtons
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindButtons:
		return "buttons"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Button is one reply button
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Row is one selectable list row
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Section groups list rows under a title
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Message is a plain text, a choice prompt or a categorized list prompt
type Message struct {
	Kind       Kind      `json:"kind"`
	Header     string    `json:"header,omitempty"`
	Body       string    `json:"body"`
	Footer     string    `json:"footer,omitempty"`
	Buttons    []Button  `json:"buttons,omitempty"`
	ListButton string    `json:"list_button,omitempty"`
	Sections   []Section `json:"sections,omitempty"`
}

// Sender delivers a message to one recipient and returns the provider message id
type Sender interface {
	Send(ctx context.Context, to string, msg Message) (string, error)
}

// Text builds a plain text message
func Text(body string) Message {
	return Message{Kind: KindText, Body: body}
}

// Buttons builds a choice prompt
func Buttons(body string, buttons ...Button) Message {
	return Message{Kind: KindButtons, Body: body, Buttons: buttons}
}

// List builds a categorized list prompt
func List(body, button string, sections ...Section) Message {
	return Message{Kind: KindList, Body: body, ListButton: button, Sections: sections}
}

// RowCount returns the number of rows across all sections
func (m Message) RowCount() int {
	n := 0
	for _, s := range m.Sections {
		n += len(s.Rows)
	}
	return n
}

// Validate reports option-count violations. These are programming errors and are never truncated away.
func (m Message) Validate() error {
	switch m.Kind {
	case KindText:
		if strings.TrimSpace(m.Body) == "" {
			return fmt.Errorf("%w: empty text body", apperrors.ErrInvalidInput)
		}
	case KindButtons:
		if len(m.Buttons) == 0 {
			return fmt.Errorf("%w: choice prompt without buttons", apperrors.ErrInvalidInput)
		}
		if len(m.Buttons) > MaxButtons {
			return fmt.Errorf("%w: %d buttons, at most %d allowed", apperrors.ErrTooManyOptions, len(m.Buttons), MaxButtons)
		}
		if err := uniqueIDs(buttonIDs(m.Buttons)); err != nil {
			return err
		}
	case KindList:
		rows := m.RowCount()
		if rows == 0 {
			return fmt.Errorf("%w: list prompt without rows", apperrors.ErrInvalidInput)
		}
		if rows > MaxRows {
			return fmt.Errorf("%w: %d rows, at most %d allowed", apperrors.ErrTooManyOptions, rows, MaxRows)
		}
		var ids []string
		for _, s := range m.Sections {
			for _, r := range s.Rows {
				ids = append(ids, r.ID)
			}
		}
		if err := uniqueIDs(ids); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown message kind %d", apperrors.ErrInvalidInput, m.Kind)
	}
	return nil
}

func buttonIDs(buttons []Button) []string {
	ids := make([]string, len(buttons))
	for i, b := range buttons {
		ids[i] = b.ID
	}
	return ids
}

func uniqueIDs(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: option without id", apperrors.ErrInvalidInput)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate option id %s", apperrors.ErrInvalidInput, id)
		}
		seen[id] = true
	}
	return nil
}

// Normalize returns a copy with every text field cut to its transport limit
func (m Message) Normalize() Message {
	out := m
	if m.Kind == KindText {
		out.Body = Truncate(m.Body, MaxTextBody)
		return out
	}
	out.Header = Truncate(m.Header, MaxHeader)
	out.Body = Truncate(m.Body, MaxInteractiveBody)
	out.Footer = Truncate(m.Footer, MaxFooter)
	out.ListButton = Truncate(m.ListButton, MaxListButton)
	if m.Buttons != nil {
		out.Buttons = make([]Button, len(m.Buttons))
		for i, b := range m.Buttons {
			out.Buttons[i] = Button{ID: Truncate(b.ID, MaxID), Title: Truncate(b.Title, MaxButtonTitle)}
		}
	}
	if m.Sections != nil {
		out.Sections = make([]Section, len(m.Sections))
		for i, s := range m.Sections {
			rows := make([]Row, len(s.Rows))
			for j, r := range s.Rows {
				rows[j] = Row{
					ID:          Truncate(r.ID, MaxID),
					Title:       Truncate(r.Title, MaxRowTitle),
					Description: Truncate(r.Description, MaxRowDescription),
				}
			}
			out.Sections[i] = Section{Title: Truncate(s.Title, MaxSectionTitle), Rows: rows}
		}
	}
	return out
}

// Truncate cuts s to at most limit runes, marking the cut with an ellipsis
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}

// Options returns the selectable ids in display order
func (m Message) Options() []Button {
	switch m.Kind {
	case KindButtons:
		return m.Buttons
	case KindList:
		var out []Button
		for _, s := range m.Sections {
			for _, r := range s.Rows {
				out = append(out, Button{ID: r.ID, Title: r.Title})
			}
		}
		return out
	}
	return nil
}

// PlainText renders the message for text-only transports and the delivery log.
// Options are numbered in the order returned by Options.
func (m Message) PlainText() string {
	var b strings.Builder
	if m.Header != "" {
		b.WriteString("*" + m.Header + "*\n\n")
	}
	b.WriteString(m.Body)
	n := 0
	switch m.Kind {
	case KindButtons:
		b.WriteString("\n")
		for _, btn := range m.Buttons {
			n++
			fmt.Fprintf(&b, "\n%d. %s", n, btn.Title)
		}
	case KindList:
		for _, s := range m.Sections {
			if s.Title != "" {
				fmt.Fprintf(&b, "\n\n_%s_", s.Title)
			} else {
				b.WriteString("\n")
			}
			for _, r := range s.Rows {
				n++
				fmt.Fprintf(&b, "\n%d. %s", n, r.Title)
				if r.Description != "" {
					b.WriteString(" - " + r.Description)
				}
			}
		}
	}
	if m.Footer != "" {
		b.WriteString("\n\n" + m.Footer)
	}
	return b.String()
}
