package handler

import (
	"context"
	"errors"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// Receipt is a provider delivery report for an outbound message
type Receipt struct {
	ProviderMessageID string
	Status            models.DeliveryStatus
}

// ApplyReceipt updates the delivery status of the logged message. Receipts
// for unknown messages are dropped.
func (h *Handler) ApplyReceipt(ctx context.Context, r Receipt) error {
	if r.ProviderMessageID == "" {
		return nil
	}
	err := h.store.UpdateDeliveryStatus(ctx, r.ProviderMessageID, r.Status)
	switch {
	case err == nil:
		h.metrics.Receipt(true)
		return nil
	case errors.Is(err, apperrors.ErrNotFound):
		h.metrics.Receipt(false)
		h.log.Debug().Str("id", r.ProviderMessageID).Str("status", string(r.Status)).Msg("Receipt for unknown message")
		return nil
	default:
		return apperrors.Persistence("apply receipt", err)
	}
}
