package broadcast

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/message"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
	"github.com/prastut/wedding-jarvis-sub000/internal/storage"
)

type sent struct {
	to   string
	body string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sent
	fail   map[string]error
	onSend func(to string)
}

func (f *fakeSender) Send(_ context.Context, to string, msg message.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSend != nil {
		f.onSend(to)
	}
	if err := f.fail[to]; err != nil {
		return "", err
	}
	f.sent = append(f.sent, sent{to: to, body: msg.Body})
	return fmt.Sprintf("wamid.%d", len(f.sent)), nil
}

func (f *fakeSender) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, s := range f.sent {
		out[i] = s.to
	}
	return out
}

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.NewStorage(filepath.Join(t.TempDir(), "wedding.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// addGuest creates an onboarded guest; guests added later sort later
func addGuest(t *testing.T, s *storage.Storage, phone string, lang models.Language, optedIn bool) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	existing, err := s.ListGuests(ctx, storage.GuestFilter{})
	require.NoError(t, err)

	g, err := s.GetOrCreateGuest(ctx, phone, "", base.Add(time.Duration(len(existing))*time.Minute))
	require.NoError(t, err)
	side := models.SideBoth
	g.Language = &lang
	g.Side = &side
	g.OptedIn = optedIn
	require.NoError(t, s.SaveGuest(ctx, *g))
}

func newDraft(t *testing.T, s *storage.Storage) *models.Broadcast {
	t.Helper()
	b := &models.Broadcast{
		Topic:        "Shuttle",
		Message:      "Buses leave at 5pm",
		Translations: map[models.Language]string{models.LanguageHindi: "बसें शाम 5 बजे निकलेंगी"},
	}
	require.NoError(t, s.CreateBroadcast(context.Background(), b))
	return b
}

func newDispatcher(s *storage.Storage, sender message.Sender) *Dispatcher {
	return NewDispatcher(s, sender, 0, models.LanguageEnglish, zerolog.Nop())
}

func TestDispatchSendsToOptedInGuestsInTheirLanguage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, true)
	addGuest(t, s, "912", models.LanguageHindi, true)
	addGuest(t, s, "913", models.LanguagePunjabi, true)
	addGuest(t, s, "914", models.LanguageEnglish, false)
	b := newDraft(t, s)

	sender := &fakeSender{}
	res, err := newDispatcher(s, sender).Dispatch(ctx, b.ID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, models.BroadcastCompleted, res.Status)
	assert.Equal(t, []string{"911", "912", "913"}, sender.recipients())
	assert.Equal(t, "Buses leave at 5pm", sender.sent[0].body)
	assert.Equal(t, "बसें शाम 5 बजे निकलेंगी", sender.sent[1].body)
	// missing translation falls back to the base message
	assert.Equal(t, "Buses leave at 5pm", sender.sent[2].body)

	stored, err := s.GetBroadcast(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastCompleted, stored.Status)
	assert.Equal(t, 3, stored.SentCount)

	entries, err := s.BroadcastLog(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "wamid.1", entries[0].ProviderMessageID)
	assert.Equal(t, models.DeliverySent, entries[0].Status)
}

func TestDispatchContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, true)
	addGuest(t, s, "912", models.LanguageEnglish, true)
	addGuest(t, s, "913", models.LanguageEnglish, true)
	b := newDraft(t, s)

	sender := &fakeSender{fail: map[string]error{"912": errors.New("recipient not on WhatsApp")}}
	var seen []Outcome
	res, err := newDispatcher(s, sender).Dispatch(ctx, b.ID, nil, ObserverFunc(func(o Outcome) {
		seen = append(seen, o)
	}))
	require.NoError(t, err)

	assert.Equal(t, models.BroadcastCompleted, res.Status)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "912")
	assert.Equal(t, []string{"911", "913"}, sender.recipients())

	require.Len(t, seen, 3)
	assert.False(t, seen[1].OK())
	assert.Equal(t, 2, seen[2].Index)

	entries, err := s.BroadcastLog(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.DeliveryFailed, entries[1].Status)
	assert.Equal(t, "recipient not on WhatsApp", entries[1].Error)
}

func TestDispatchAllFailedMarksFailed(t *testing.T) {
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, true)
	addGuest(t, s, "912", models.LanguageEnglish, true)
	b := newDraft(t, s)

	boom := errors.New("boom")
	sender := &fakeSender{fail: map[string]error{"911": boom, "912": boom}}
	res, err := newDispatcher(s, sender).Dispatch(context.Background(), b.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastFailed, res.Status)
	assert.Equal(t, 2, res.Failed)
}

func TestDispatchWithNoRecipientsCompletes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, false)
	b := newDraft(t, s)

	res, err := newDispatcher(s, &fakeSender{}).Dispatch(ctx, b.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, models.BroadcastCompleted, res.Status)
}

func TestDispatchRejectsBeforeSending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, true)
	b := newDraft(t, s)
	sender := &fakeSender{}
	d := newDispatcher(s, sender)

	_, err := d.Dispatch(ctx, "missing", nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = d.Dispatch(ctx, b.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, sender.recipients(), 1)

	_, err = d.Dispatch(ctx, b.ID, nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	assert.Len(t, sender.recipients(), 1)
}

func TestDispatchRecipientFilter(t *testing.T) {
	s := newTestStore(t)
	for _, p := range []string{"911", "912", "913", "914"} {
		addGuest(t, s, p, models.LanguageEnglish, true)
	}
	addGuest(t, s, "915", models.LanguageEnglish, false)

	b := newDraft(t, s)
	sender := &fakeSender{}
	filter := &RecipientFilter{Include: []string{"911", "913", "914", "915"}, Exclude: []string{"914"}}
	res, err := newDispatcher(s, sender).Dispatch(context.Background(), b.ID, filter, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []string{"911", "913"}, sender.recipients())
}

func TestDispatchCancellationAccountsForEveryRecipient(t *testing.T) {
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, true)
	addGuest(t, s, "912", models.LanguageEnglish, true)
	addGuest(t, s, "913", models.LanguageEnglish, true)
	b := newDraft(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := &fakeSender{onSend: func(string) { cancel() }}

	res, err := newDispatcher(s, sender).Dispatch(ctx, b.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, res.Total, res.Sent+res.Failed)
	assert.Contains(t, res.Errors[0], ErrCancelled.Error())
	assert.Equal(t, models.BroadcastCompleted, res.Status)

	stored, err := s.GetBroadcast(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SentCount)
	assert.Equal(t, 2, stored.FailedCount)
}

func TestDispatchRespectsDelay(t *testing.T) {
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, true)
	addGuest(t, s, "912", models.LanguageEnglish, true)
	addGuest(t, s, "913", models.LanguageEnglish, true)
	b := newDraft(t, s)

	d := NewDispatcher(s, &fakeSender{}, 25*time.Millisecond, models.LanguageEnglish, zerolog.Nop())
	start := time.Now()
	_, err := d.Dispatch(context.Background(), b.ID, nil, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

type failingFinish struct {
	*storage.Storage
}

func (f failingFinish) FinishBroadcast(context.Context, string, models.BroadcastStatus, int, int) error {
	return errors.New("database is locked")
}

func TestDispatchFinishFailureStillFinishesObservers(t *testing.T) {
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, true)
	b := newDraft(t, s)

	tracker := NewTracker()
	d := NewDispatcher(failingFinish{s}, &fakeSender{}, 0, models.LanguageEnglish, zerolog.Nop())
	res, err := d.Dispatch(context.Background(), b.ID, nil, tracker)
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistence(err))
	assert.Equal(t, 1, res.Sent)

	p, ok := tracker.Get(b.ID)
	require.True(t, ok)
	assert.True(t, p.Done())
	assert.Equal(t, 1, p.Sent)
}

func TestResultBoundsErrors(t *testing.T) {
	var r Result
	for i := 0; i < MaxErrors+10; i++ {
		r.record(Outcome{PhoneNumber: fmt.Sprint(i), Err: errors.New("x")})
	}
	assert.Equal(t, MaxErrors+10, r.Failed)
	assert.Len(t, r.Errors, MaxErrors)
}
