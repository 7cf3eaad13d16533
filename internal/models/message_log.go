package models

import "time"

// Direction tells whether a logged message was received or sent
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// DeliveryStatus is the provider-reported state of an outbound message
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
	DeliveryFailed    DeliveryStatus = "failed"
)

// ParseDeliveryStatus validates a provider status string
func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch DeliveryStatus(s) {
	case DeliverySent, DeliveryDelivered, DeliveryRead, DeliveryFailed:
		return DeliveryStatus(s), true
	}
	return "", false
}

// MessageLog is one entry of the append-only delivery log
type MessageLog struct {
	ID                string         `json:"id"`
	PhoneNumber       string         `json:"phone_number"`
	Direction         Direction      `json:"direction"`
	Body              string         `json:"body"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`
	Status            DeliveryStatus `json:"status,omitempty"`
	BroadcastID       string         `json:"broadcast_id,omitempty"`
	Error             string         `json:"error,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
