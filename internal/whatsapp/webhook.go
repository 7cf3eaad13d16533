package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/conversation"
	"github.com/prastut/wedding-jarvis-sub000/internal/handler"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// SignatureHeader carries the HMAC of a webhook body
const SignatureHeader = "X-Hub-Signature-256"

// VerifySignature checks header ("sha256=<hex>") against the HMAC-SHA256 of body
func VerifySignature(secret string, body []byte, header string) error {
	hexSig, ok := strings.CutPrefix(header, "sha256=")
	if !ok || hexSig == "" {
		return fmt.Errorf("%w: missing signature", apperrors.ErrUnauthenticated)
	}
	got, err := hex.DecodeString(hexSig)
	if err != nil {
		return fmt.Errorf("%w: malformed signature", apperrors.ErrUnauthenticated)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return fmt.Errorf("%w: signature mismatch", apperrors.ErrUnauthenticated)
	}
	return nil
}

// Sign returns the signature header value for body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string       `json:"field"`
			Value webhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookValue struct {
	Contacts []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []webhookMessage `json:"messages"`
	Statuses []webhookStatus  `json:"statuses"`
}

type webhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive struct {
		Type        string `json:"type"`
		ButtonReply struct {
			ID string `json:"id"`
		} `json:"button_reply"`
		ListReply struct {
			ID string `json:"id"`
		} `json:"list_reply"`
	} `json:"interactive"`
	Button struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
}

type webhookStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

// WebhookEvents is the guest traffic carried by one webhook delivery
type WebhookEvents struct {
	Messages []handler.Inbound
	Receipts []handler.Receipt
}

// ParseWebhook extracts inbound messages and delivery statuses from a
// Cloud API webhook body. Unknown statuses are skipped.
func ParseWebhook(body []byte) (*WebhookEvents, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body: %v", apperrors.ErrInvalidInput, err)
	}

	out := &WebhookEvents{}
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			v := change.Value
			names := make(map[string]string, len(v.Contacts))
			for _, c := range v.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range v.Messages {
				out.Messages = append(out.Messages, toInbound(m, names[m.From]))
			}
			for _, s := range v.Statuses {
				status, ok := models.ParseDeliveryStatus(s.Status)
				if !ok {
					continue
				}
				out.Receipts = append(out.Receipts, handler.Receipt{ProviderMessageID: s.ID, Status: status})
			}
		}
	}
	return out, nil
}

func toInbound(m webhookMessage, name string) handler.Inbound {
	in := handler.Inbound{
		From:              NormalizePhoneNumber(m.From, ""),
		Name:              name,
		Kind:              conversation.KindText,
		ProviderMessageID: m.ID,
	}
	if sec, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
		in.Timestamp = time.Unix(sec, 0).UTC()
	}

	switch m.Type {
	case "text":
		in.Text = m.Text.Body
	case "interactive":
		in.Kind = conversation.KindInteraction
		switch m.Interactive.Type {
		case "button_reply":
			in.ID = m.Interactive.ButtonReply.ID
		case "list_reply":
			in.ID = m.Interactive.ListReply.ID
		}
	case "button":
		// quick-reply buttons on template messages
		in.Kind = conversation.KindInteraction
		in.ID = m.Button.Payload
		if in.ID == "" {
			in.Kind = conversation.KindText
			in.Text = m.Button.Text
		}
	}
	return in
}
