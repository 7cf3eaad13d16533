// Package broadcast sends an operator-authored message to every opted-in
// guest, one recipient at a time, and tracks the progress of running sends.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/message"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
	"github.com/prastut/wedding-jarvis-sub000/internal/storage"
)

// MaxErrors bounds the error summaries kept on a Result
const MaxErrors = 50

// DefaultDelay is the pause between two sends
const DefaultDelay = 100 * time.Millisecond

// ErrCancelled is the failure recorded for recipients skipped by a cancelled dispatch
var ErrCancelled = errors.New("dispatch cancelled")

// Store is the persistence the dispatcher needs
type Store interface {
	GetBroadcast(ctx context.Context, id string) (*models.Broadcast, error)
	ClaimBroadcast(ctx context.Context, id string) (*models.Broadcast, error)
	ListGuests(ctx context.Context, filter storage.GuestFilter) ([]models.Guest, error)
	AppendMessage(ctx context.Context, m *models.MessageLog) error
	UpdateBroadcastCounts(ctx context.Context, id string, sent, failed int) error
	FinishBroadcast(ctx context.Context, id string, status models.BroadcastStatus, sent, failed int) error
}

// RecipientFilter narrows the opted-in audience. Include, when non-empty,
// keeps only the listed phones; Exclude always removes the listed phones.
type RecipientFilter struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

func (f *RecipientFilter) apply(guests []models.Guest) []models.Guest {
	if f == nil || (len(f.Include) == 0 && len(f.Exclude) == 0) {
		return guests
	}
	include := toSet(f.Include)
	exclude := toSet(f.Exclude)
	out := make([]models.Guest, 0, len(guests))
	for _, g := range guests {
		if len(include) > 0 && !include[g.PhoneNumber] {
			continue
		}
		if exclude[g.PhoneNumber] {
			continue
		}
		out = append(out, g)
	}
	return out
}

func toSet(phones []string) map[string]bool {
	set := make(map[string]bool, len(phones))
	for _, p := range phones {
		set[p] = true
	}
	return set
}

// Outcome is the result of sending to one recipient
type Outcome struct {
	BroadcastID       string
	PhoneNumber       string
	Index             int
	Total             int
	ProviderMessageID string
	Err               error
}

// OK reports whether the send succeeded
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Observer is notified as a dispatch progresses
type Observer interface {
	Started(id string, total int)
	Delivered(o Outcome)
	Finished(id string, res Result)
}

// ObserverFunc adapts a per-recipient callback to Observer
type ObserverFunc func(o Outcome)

func (f ObserverFunc) Started(string, int)     {}
func (f ObserverFunc) Delivered(o Outcome)     { f(o) }
func (f ObserverFunc) Finished(string, Result) {}

// Observers fans notifications out to several observers
type Observers []Observer

func (obs Observers) Started(id string, total int) {
	for _, o := range obs {
		o.Started(id, total)
	}
}

func (obs Observers) Delivered(out Outcome) {
	for _, o := range obs {
		o.Delivered(out)
	}
}

func (obs Observers) Finished(id string, res Result) {
	for _, o := range obs {
		o.Finished(id, res)
	}
}

// Result is the summary of one dispatch
type Result struct {
	BroadcastID string                 `json:"broadcast_id"`
	Status      models.BroadcastStatus `json:"status"`
	Total       int                    `json:"total"`
	Sent        int                    `json:"sent"`
	Failed      int                    `json:"failed"`
	Errors      []string               `json:"errors,omitempty"`
}

func (r *Result) record(o Outcome) {
	if o.OK() {
		r.Sent++
		return
	}
	r.Failed++
	if len(r.Errors) < MaxErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", o.PhoneNumber, o.Err))
	}
}

// Dispatcher delivers broadcasts
type Dispatcher struct {
	store        Store
	sender       message.Sender
	delay        time.Duration
	baseLanguage models.Language
	log          zerolog.Logger
}

// NewDispatcher creates a dispatcher. A zero delay sends without pausing.
func NewDispatcher(store Store, sender message.Sender, delay time.Duration, base models.Language, log zerolog.Logger) *Dispatcher {
	if !base.Valid() {
		base = models.LanguageEnglish
	}
	return &Dispatcher{
		store:        store,
		sender:       sender,
		delay:        delay,
		baseLanguage: base,
		log:          log.With().Str("component", "Broadcast").Logger(),
	}
}

func (d *Dispatcher) limiter() *rate.Limiter {
	if d.delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d.delay), 1)
}

// Dispatch claims the broadcast and sends it to every opted-in guest that
// passes filter. Unknown ids and broadcasts that are not draft or pending
// fail before anything is sent. Per-recipient failures never abort the run.
func (d *Dispatcher) Dispatch(ctx context.Context, id string, filter *RecipientFilter, obs Observer) (*Result, error) {
	if obs == nil {
		obs = Observers(nil)
	}

	current, err := d.store.GetBroadcast(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Dispatchable() {
		return nil, apperrors.NewStatusError("dispatch", id, string(current.Status))
	}

	optedIn := true
	guests, err := d.store.ListGuests(ctx, storage.GuestFilter{OptedIn: &optedIn})
	if err != nil {
		return nil, apperrors.Persistence("list recipients", err)
	}
	recipients := filter.apply(guests)

	b, err := d.store.ClaimBroadcast(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &Result{BroadcastID: id, Total: len(recipients)}
	d.log.Info().Str("broadcast", id).Str("topic", b.Topic).Int("recipients", res.Total).Msg("Dispatching broadcast")
	obs.Started(id, res.Total)

	// counts and the final status must land even if ctx was cancelled
	persistCtx := context.WithoutCancel(ctx)

	for o := range d.Deliveries(ctx, b, recipients) {
		res.record(o)
		obs.Delivered(o)
		if err := d.store.UpdateBroadcastCounts(persistCtx, id, res.Sent, res.Failed); err != nil {
			d.log.Error().Err(err).Str("broadcast", id).Msg("Failed to persist broadcast counts")
		}
	}

	res.Status = models.BroadcastCompleted
	if res.Total > 0 && res.Failed == res.Total {
		res.Status = models.BroadcastFailed
	}
	if err := d.store.FinishBroadcast(persistCtx, id, res.Status, res.Sent, res.Failed); err != nil {
		d.log.Error().Err(err).Str("broadcast", id).Msg("Failed to persist broadcast result")
		obs.Finished(id, *res)
		return res, apperrors.Persistence("finish broadcast", err)
	}

	d.log.Info().
		Str("broadcast", id).
		Str("status", string(res.Status)).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Msg("Broadcast finished")
	obs.Finished(id, *res)
	return res, nil
}

// Deliveries sends b to each recipient in order and yields one outcome per
// recipient. Once ctx is done the remaining recipients are yielded as
// failed with ErrCancelled without being sent to.
func (d *Dispatcher) Deliveries(ctx context.Context, b *models.Broadcast, recipients []models.Guest) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		limiter := d.limiter()
		logCtx := context.WithoutCancel(ctx)

		for i, g := range recipients {
			o := Outcome{BroadcastID: b.ID, PhoneNumber: g.PhoneNumber, Index: i, Total: len(recipients)}

			if err := ctx.Err(); err != nil {
				o.Err = ErrCancelled
			} else if err := limiter.Wait(ctx); err != nil {
				o.Err = ErrCancelled
			} else {
				o.ProviderMessageID, o.Err = d.deliver(ctx, b, g)
			}

			if !errors.Is(o.Err, ErrCancelled) {
				d.appendLog(logCtx, b, g, o)
			}
			if !yield(o) {
				return
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, b *models.Broadcast, g models.Guest) (string, error) {
	text := b.TextFor(g.LanguageOr(d.baseLanguage))
	msg := message.Text(text).Normalize()
	providerID, err := d.sender.Send(ctx, g.PhoneNumber, msg)
	if err != nil {
		d.log.Warn().Err(err).Str("broadcast", b.ID).Str("phone", g.PhoneNumber).Msg("Broadcast send failed")
		return "", err
	}
	return providerID, nil
}

func (d *Dispatcher) appendLog(ctx context.Context, b *models.Broadcast, g models.Guest, o Outcome) {
	entry := &models.MessageLog{
		PhoneNumber:       g.PhoneNumber,
		Direction:         models.DirectionOutbound,
		Body:              b.TextFor(g.LanguageOr(d.baseLanguage)),
		ProviderMessageID: o.ProviderMessageID,
		BroadcastID:       b.ID,
		Status:            models.DeliverySent,
	}
	if o.Err != nil {
		entry.Status = models.DeliveryFailed
		entry.Error = o.Err.Error()
	}
	if err := d.store.AppendMessage(ctx, entry); err != nil {
		d.log.Error().Err(err).Str("broadcast", b.ID).Str("phone", g.PhoneNumber).Msg("Failed to log broadcast message")
	}
}
