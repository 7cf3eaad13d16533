package models

import "time"

// BroadcastStatus is the lifecycle state of a broadcast
type BroadcastStatus string

const (
	BroadcastDraft     BroadcastStatus = "draft"
	BroadcastPending   BroadcastStatus = "pending"
	BroadcastSending   BroadcastStatus = "sending"
	BroadcastCompleted BroadcastStatus = "completed"
	BroadcastFailed    BroadcastStatus = "failed"
)

// Broadcast is an operator-authored message sent to all opted-in guests
type Broadcast struct {
	ID           string              `json:"id"`
	Topic        string              `json:"topic"`
	Message      string              `json:"message"`
	Translations map[Language]string `json:"translations,omitempty"`
	Status       BroadcastStatus     `json:"status"`
	SentCount    int                 `json:"sent_count"`
	FailedCount  int                 `json:"failed_count"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Editable reports whether content may still be changed or the broadcast deleted
func (b Broadcast) Editable() bool {
	return b.Status == BroadcastDraft
}

// Dispatchable reports whether the broadcast may be handed to the dispatcher
func (b Broadcast) Dispatchable() bool {
	return b.Status == BroadcastDraft || b.Status == BroadcastPending
}

// TextFor returns the translation for lang, or the base message when it is missing or blank
func (b Broadcast) TextFor(lang Language) string {
	if text, ok := b.Translations[lang]; ok && text != "" {
		return text
	}
	return b.Message
}
