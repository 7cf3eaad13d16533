package broadcast

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// ServiceStore is the persistence behind the broadcast admin operations
type ServiceStore interface {
	Store
	CreateBroadcast(ctx context.Context, b *models.Broadcast) error
	ListBroadcasts(ctx context.Context) ([]models.Broadcast, error)
	UpdateBroadcastContent(ctx context.Context, b models.Broadcast) error
	DeleteBroadcast(ctx context.Context, id string) error
	MarkBroadcastPending(ctx context.Context, id string) error
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	result *Result
	err    error
}

// Service manages broadcast drafts and runs dispatches in the background
type Service struct {
	store      ServiceStore
	dispatcher *Dispatcher
	tracker    *Tracker
	observer   Observer
	log        zerolog.Logger

	mu      sync.Mutex
	runs    map[string]*run
	wg      sync.WaitGroup
	baseCtx context.Context
	stop    context.CancelFunc
}

// NewService creates a broadcast service. extra, when set, is notified
// alongside the progress tracker.
func NewService(store ServiceStore, dispatcher *Dispatcher, extra Observer, log zerolog.Logger) *Service {
	baseCtx, stop := context.WithCancel(context.Background())
	tracker := NewTracker()
	observers := Observers{tracker}
	if extra != nil {
		observers = append(observers, extra)
	}
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		tracker:    tracker,
		observer:   observers,
		log:        log.With().Str("component", "BroadcastService").Logger(),
		runs:       make(map[string]*run),
		baseCtx:    baseCtx,
		stop:       stop,
	}
}

// Draft is the operator-editable content of a broadcast
type Draft struct {
	Topic        string                     `json:"topic"`
	Message      string                     `json:"message"`
	Translations map[models.Language]string `json:"translations,omitempty"`
}

func (d Draft) validate() error {
	if strings.TrimSpace(d.Message) == "" {
		return fmt.Errorf("%w: message is required", apperrors.ErrInvalidInput)
	}
	for lang := range d.Translations {
		if !lang.Valid() {
			return fmt.Errorf("%w: unsupported language %q", apperrors.ErrInvalidInput, lang)
		}
	}
	return nil
}

// Create stores a new draft
func (s *Service) Create(ctx context.Context, d Draft) (*models.Broadcast, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	b := &models.Broadcast{Topic: d.Topic, Message: d.Message, Translations: d.Translations}
	if err := s.store.CreateBroadcast(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info().Str("broadcast", b.ID).Str("topic", b.Topic).Msg("Broadcast created")
	return b, nil
}

// Update replaces the content of a draft
func (s *Service) Update(ctx context.Context, id string, d Draft) (*models.Broadcast, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	err := s.store.UpdateBroadcastContent(ctx, models.Broadcast{
		ID:           id,
		Topic:        d.Topic,
		Message:      d.Message,
		Translations: d.Translations,
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetBroadcast(ctx, id)
}

// Delete removes a draft
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteBroadcast(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("broadcast", id).Msg("Broadcast deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Broadcast, error) {
	return s.store.GetBroadcast(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Broadcast, error) {
	return s.store.ListBroadcasts(ctx)
}

// Send marks the broadcast pending and dispatches it in the background.
// It returns once the dispatch has been scheduled.
func (s *Service) Send(ctx context.Context, id string, filter *RecipientFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.runs[id]; ok && !isDone(r) {
		return apperrors.NewStatusError("send", id, string(models.BroadcastSending))
	}
	if err := s.store.MarkBroadcastPending(ctx, id); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(s.baseCtx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	s.runs[id] = r

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(r.done)
		defer cancel()

		res, err := s.dispatcher.Dispatch(runCtx, id, filter, s.observer)
		if err != nil {
			s.log.Error().Err(err).Str("broadcast", id).Msg("Broadcast dispatch failed")
		}
		s.mu.Lock()
		r.result, r.err = res, err
		s.mu.Unlock()
	}()
	return nil
}

func isDone(r *run) bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Cancel stops a running dispatch. Recipients not yet reached are counted as failed.
func (s *Service) Cancel(id string) error {
	s.mu.Lock()
	r, ok := s.runs[id]
	s.mu.Unlock()
	if !ok || isDone(r) {
		return fmt.Errorf("no running dispatch for broadcast %s: %w", id, apperrors.ErrNotFound)
	}
	r.cancel()
	s.log.Info().Str("broadcast", id).Msg("Broadcast cancellation requested")
	return nil
}

// Progress returns the live or final progress of a dispatch started by this process
func (s *Service) Progress(id string) (Progress, bool) {
	return s.tracker.Get(id)
}

// Wait blocks until the dispatch of id finishes and returns its result
func (s *Service) Wait(ctx context.Context, id string) (*Result, error) {
	s.mu.Lock()
	r, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no dispatch for broadcast %s: %w", id, apperrors.ErrNotFound)
	}
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.result, r.err
}

// Close cancels running dispatches and waits for them to record their final status
func (s *Service) Close() {
	s.stop()
	s.wg.Wait()
}
