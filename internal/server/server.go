// Package server exposes the provider webhook, the operator admin API,
// Prometheus metrics and a health check over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/broadcast"
	"github.com/prastut/wedding-jarvis-sub000/internal/metrics"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
	"github.com/prastut/wedding-jarvis-sub000/internal/storage"
	"github.com/prastut/wedding-jarvis-sub000/internal/whatsapp"
)

// AdminStore is the read and opt-in surface of the store used by the admin API
type AdminStore interface {
	Ping(ctx context.Context) error
	ListGuests(ctx context.Context, filter storage.GuestFilter) ([]models.Guest, error)
	SetOptIn(ctx context.Context, phoneNumber string, optedIn bool) error
	History(ctx context.Context, phoneNumber string, limit int) ([]models.MessageLog, error)
	BroadcastLog(ctx context.Context, broadcastID string) ([]models.MessageLog, error)
	GuestStats(ctx context.Context) (storage.GuestStats, error)
}

type Options struct {
	AdminToken         string
	VerifyToken        string
	// AppSecret signs webhook deliveries; when empty every delivery is rejected
	AppSecret          string
	DefaultCountryCode string
	// WebhookTimeout bounds the processing of one webhook delivery
	WebhookTimeout time.Duration
}

type Server struct {
	opts       Options
	store      AdminStore
	broadcasts *broadcast.Service
	sink       whatsapp.EventSink
	metrics    *metrics.Metrics
	log        zerolog.Logger
	router     chi.Router
}

// New builds the HTTP server and its routes. sink may be nil when the
// webhook is not used (linked-device transport).
func New(opts Options, store AdminStore, broadcasts *broadcast.Service, sink whatsapp.EventSink, m *metrics.Metrics, log zerolog.Logger) *Server {
	if opts.WebhookTimeout <= 0 {
		opts.WebhookTimeout = 30 * time.Second
	}
	s := &Server{
		opts:       opts,
		store:      store,
		broadcasts: broadcasts,
		sink:       sink,
		metrics:    m,
		log:        log.With().Str("component", "HTTP").Logger(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if s.sink != nil {
		r.Get("/webhook", s.verifyWebhook)
		r.Post("/webhook", s.receiveWebhook)
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)

		r.Get("/stats", s.stats)
		r.Get("/guests", s.listGuests)
		r.Post("/guests/{phone}/opt-out", s.setOptIn(false))
		r.Post("/guests/{phone}/opt-in", s.setOptIn(true))
		r.Get("/guests/{phone}/messages", s.guestMessages)

		r.Get("/broadcasts", s.listBroadcasts)
		r.Post("/broadcasts", s.createBroadcast)
		r.Get("/broadcasts/{id}", s.getBroadcast)
		r.Put("/broadcasts/{id}", s.updateBroadcast)
		r.Delete("/broadcasts/{id}", s.deleteBroadcast)
		r.Post("/broadcasts/{id}/send", s.sendBroadcast)
		r.Post("/broadcasts/{id}/cancel", s.cancelBroadcast)
		r.Get("/broadcasts/{id}/progress", s.broadcastProgress)
		r.Get("/broadcasts/{id}/log", s.broadcastLog)
	})
	return r
}

// ServeHTTP makes Server an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, apperrors.Persistence("ping", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidStatus):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrTooManyOptions):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
