package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/prastut/wedding-jarvis-sub000/internal/whatsapp"
)

const maxWebhookBody = 1 << 20

// verifyWebhook answers the provider's subscription handshake
func (s *Server) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || s.opts.VerifyToken == "" || q.Get("hub.verify_token") != s.opts.VerifyToken {
		s.metrics.WebhookRejected("verify_token")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, q.Get("hub.challenge")) //nolint:errcheck
}

// receiveWebhook processes one delivery. Once the signature checks out the
// response is always 200 so the provider does not redeliver.
func (s *Server) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.metrics.WebhookRejected("read")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := s.verifySignature(body, r.Header.Get(whatsapp.SignatureHeader)); err != nil {
		s.metrics.WebhookRejected("signature")
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected webhook")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	events, err := whatsapp.ParseWebhook(body)
	if err != nil {
		s.metrics.WebhookRejected("malformed")
		s.log.Warn().Err(err).Msg("Malformed webhook")
		w.WriteHeader(http.StatusOK)
		return
	}

	// finish processing even if the provider hangs up
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.opts.WebhookTimeout)
	defer cancel()

	for _, in := range events.Messages {
		in.From = whatsapp.NormalizePhoneNumber(in.From, s.opts.DefaultCountryCode)
		if err := s.sink.HandleInbound(ctx, in); err != nil {
			s.log.Error().Err(err).Str("phone", in.From).Msg("Failed to handle inbound message")
		}
	}
	for _, rc := range events.Receipts {
		if err := s.sink.ApplyReceipt(ctx, rc); err != nil {
			s.log.Error().Err(err).Str("id", rc.ProviderMessageID).Msg("Failed to apply receipt")
		}
	}
	w.WriteHeader(http.StatusOK)
}

// verifySignature fails closed: without an app secret no delivery is trusted
func (s *Server) verifySignature(body []byte, header string) error {
	if s.opts.AppSecret == "" {
		return errors.New("no app secret configured")
	}
	return whatsapp.VerifySignature(s.opts.AppSecret, body, header)
}
