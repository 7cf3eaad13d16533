// Package handler turns transport events into guest conversations: it
// resolves the guest, runs the state machine, persists the mutation,
// sends the reply and records both directions in the delivery log.
package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/conversation"
	"github.com/prastut/wedding-jarvis-sub000/internal/i18n"
	"github.com/prastut/wedding-jarvis-sub000/internal/message"
	"github.com/prastut/wedding-jarvis-sub000/internal/metrics"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// Inbound is one guest message as delivered by a transport
type Inbound struct {
	From              string
	Name              string
	Kind              conversation.InboundKind
	Text              string
	ID                string
	ProviderMessageID string
	Timestamp         time.Time
}

func (in Inbound) body() string {
	if in.Kind == conversation.KindInteraction {
		return in.ID
	}
	return in.Text
}

func (in Inbound) kind() string {
	if in.Kind == conversation.KindInteraction {
		return "interaction"
	}
	return "text"
}

// Store is the guest and log persistence the handler needs
type Store interface {
	HasInbound(ctx context.Context, providerMessageID string) (bool, error)
	GetGuest(ctx context.Context, phoneNumber string) (*models.Guest, error)
	GetOrCreateGuest(ctx context.Context, phoneNumber, name string, now time.Time) (*models.Guest, error)
	SaveProfile(ctx context.Context, g models.Guest) error
	SetOptIn(ctx context.Context, phoneNumber string, optedIn bool) error
	UpdateDeliveryStatus(ctx context.Context, providerMessageID string, status models.DeliveryStatus) error
}

// LogSink accepts delivery-log entries without blocking the caller
type LogSink interface {
	Enqueue(entry models.MessageLog) string
}

// Handler processes inbound messages and delivery receipts
type Handler struct {
	store   Store
	machine *conversation.Machine
	bundle  *i18n.Bundle
	sender  message.Sender
	logs    LogSink
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewHandler creates an inbound handler. m may be nil.
func NewHandler(store Store, machine *conversation.Machine, bundle *i18n.Bundle, sender message.Sender, logs LogSink, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		store:   store,
		machine: machine,
		bundle:  bundle,
		sender:  sender,
		logs:    logs,
		metrics: m,
		log:     log.With().Str("component", "Handler").Logger(),
	}
}

// HandleInbound runs one guest message through the conversation. Store
// failures are answered with an apology and returned as a PersistenceError.
func (h *Handler) HandleInbound(ctx context.Context, in Inbound) error {
	if in.From == "" {
		return fmt.Errorf("%w: inbound message without sender", apperrors.ErrInvalidInput)
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	if in.ProviderMessageID != "" {
		seen, err := h.store.HasInbound(ctx, in.ProviderMessageID)
		if err != nil {
			return h.fail(ctx, in.From, nil, apperrors.Persistence("check duplicate", err))
		}
		if seen {
			h.metrics.InboundMessage("duplicate")
			h.log.Debug().Str("id", in.ProviderMessageID).Msg("Ignoring redelivered message")
			return nil
		}
	}
	h.metrics.InboundMessage(in.kind())

	if h.machine.PostEvent() {
		return h.handlePostEvent(ctx, in)
	}

	h.logs.Enqueue(models.MessageLog{
		PhoneNumber:       in.From,
		Direction:         models.DirectionInbound,
		Body:              in.body(),
		ProviderMessageID: in.ProviderMessageID,
		CreatedAt:         in.Timestamp,
	})

	guest, err := h.store.GetOrCreateGuest(ctx, in.From, in.Name, in.Timestamp)
	if err != nil {
		return h.fail(ctx, in.From, nil, apperrors.Persistence("resolve guest", err))
	}

	res, err := h.machine.Handle(*guest, h.toConversation(in))
	if err != nil {
		h.log.Error().Err(err).Str("phone", in.From).Msg("Conversation produced an invalid reply")
		return h.fail(ctx, in.From, guest, err)
	}

	if res.Mutation != nil {
		updated := *guest
		if err := res.Mutation.Apply(&updated); err != nil {
			return h.fail(ctx, in.From, guest, fmt.Errorf("failed to apply %s: %w", res.Action, err))
		}
		if res.Mutation.ChangesProfile() {
			if err := h.store.SaveProfile(ctx, updated); err != nil {
				return h.fail(ctx, in.From, guest, apperrors.Persistence("save guest", err))
			}
		}
		if res.Mutation.OptedIn != nil {
			if err := h.store.SetOptIn(ctx, guest.PhoneNumber, *res.Mutation.OptedIn); err != nil {
				return h.fail(ctx, in.From, guest, apperrors.Persistence("set opt-in", err))
			}
		}
	}

	h.log.Info().
		Str("phone", in.From).
		Str("state", res.State.String()).
		Str("action", res.Action).
		Msg("Handled inbound message")

	return h.reply(ctx, in.From, res.Reply)
}

func (h *Handler) toConversation(in Inbound) conversation.Inbound {
	if in.Kind == conversation.KindInteraction {
		return conversation.Interaction(in.ID)
	}
	return conversation.TextMessage(in.Text)
}

// handlePostEvent answers with the thank-you without creating or changing anything
func (h *Handler) handlePostEvent(ctx context.Context, in Inbound) error {
	guest := models.NewGuest(in.From, in.Name, in.Timestamp)
	if existing, err := h.store.GetGuest(ctx, in.From); err == nil {
		guest = *existing
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		h.log.Warn().Err(err).Str("phone", in.From).Msg("Failed to look up guest language")
	}

	res, err := h.machine.Handle(guest, h.toConversation(in))
	if err != nil {
		return err
	}
	providerID, err := h.sender.Send(ctx, in.From, res.Reply)
	h.metrics.OutboundMessage(err == nil)
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	h.log.Debug().Str("phone", in.From).Str("id", providerID).Msg("Sent post-event reply")
	return nil
}

// reply sends msg and records the outbound entry with its provider id
func (h *Handler) reply(ctx context.Context, to string, msg message.Message) error {
	providerID, err := h.sender.Send(ctx, to, msg)
	h.metrics.OutboundMessage(err == nil)

	entry := models.MessageLog{
		PhoneNumber:       to,
		Direction:         models.DirectionOutbound,
		Body:              msg.PlainText(),
		ProviderMessageID: providerID,
		Status:            models.DeliverySent,
	}
	if err != nil {
		entry.Status = models.DeliveryFailed
		entry.Error = err.Error()
	}
	h.logs.Enqueue(entry)

	if err != nil {
		h.log.Error().Err(err).Str("phone", to).Msg("Failed to send reply")
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// fail sends a best-effort apology in the guest's language and returns err
func (h *Handler) fail(ctx context.Context, to string, guest *models.Guest, err error) error {
	lang := h.bundle.Base()
	if guest != nil {
		lang = guest.LanguageOr(lang)
	}
	h.log.Error().Err(err).Str("phone", to).Msg("Failed to handle inbound message")

	if _, sendErr := h.sender.Send(ctx, to, message.Text(h.bundle.T(lang, "error.apology"))); sendErr != nil {
		h.metrics.OutboundMessage(false)
		h.log.Warn().Err(sendErr).Str("phone", to).Msg("Failed to send apology")
	} else {
		h.metrics.OutboundMessage(true)
	}
	return err
}
