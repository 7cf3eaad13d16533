package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prastut/wedding-jarvis-sub000/internal/apperrors"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
	"github.com/prastut/wedding-jarvis-sub000/internal/storage"
)

func newTestService(t *testing.T, s *storage.Storage, sender *fakeSender, delay time.Duration, extra Observer) *Service {
	t.Helper()
	d := NewDispatcher(s, sender, delay, models.LanguageEnglish, zerolog.Nop())
	svc := NewService(s, d, extra, zerolog.Nop())
	t.Cleanup(svc.Close)
	return svc
}

func TestServiceDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := newTestService(t, s, &fakeSender{}, 0, nil)

	_, err := svc.Create(ctx, Draft{Topic: "empty"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(ctx, Draft{Message: "hi", Translations: map[models.Language]string{"fr": "salut"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	b, err := svc.Create(ctx, Draft{Topic: "Welcome", Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastDraft, b.Status)

	updated, err := svc.Update(ctx, b.ID, Draft{Topic: "Welcome", Message: "Hello there",
		Translations: map[models.Language]string{models.LanguagePunjabi: "ਸਤ ਸ੍ਰੀ ਅਕਾਲ"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", updated.Message)
	assert.Equal(t, "ਸਤ ਸ੍ਰੀ ਅਕਾਲ", updated.Translations[models.LanguagePunjabi])

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestServiceSendRunsInBackground(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	addGuest(t, s, "911", models.LanguageEnglish, true)
	addGuest(t, s, "912", models.LanguageHindi, true)

	var delivered []string
	svc := newTestService(t, s, &fakeSender{}, 0, ObserverFunc(func(o Outcome) {
		delivered = append(delivered, o.PhoneNumber)
	}))
	b, err := svc.Create(ctx, Draft{Topic: "Shuttle", Message: "Buses at 5"})
	require.NoError(t, err)

	require.NoError(t, svc.Send(ctx, b.ID, nil))
	res, err := svc.Wait(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, []string{"911", "912"}, delivered)

	p, ok := svc.Progress(b.ID)
	require.True(t, ok)
	assert.True(t, p.Done())
	assert.Equal(t, models.BroadcastCompleted, p.Status)
	assert.Equal(t, 2, p.Total)

	// a finished broadcast can neither be edited nor sent again
	_, err = svc.Update(ctx, b.ID, Draft{Message: "again"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	assert.ErrorIs(t, svc.Send(ctx, b.ID, nil), apperrors.ErrInvalidStatus)
	assert.ErrorIs(t, svc.Delete(ctx, b.ID), apperrors.ErrInvalidStatus)
}

func TestServiceCancel(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, p := range []string{"911", "912", "913", "914"} {
		addGuest(t, s, p, models.LanguageEnglish, true)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	sender := &fakeSender{}
	sender.onSend = func(to string) {
		if to == "911" {
			close(started)
			<-release
		}
	}
	svc := newTestService(t, s, sender, 0, nil)
	b, err := svc.Create(ctx, Draft{Message: "Buses at 5"})
	require.NoError(t, err)

	require.NoError(t, svc.Send(ctx, b.ID, nil))
	<-started
	require.NoError(t, svc.Cancel(b.ID))
	close(release)

	res, err := svc.Wait(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 3, res.Failed)

	assert.ErrorIs(t, svc.Cancel(b.ID), apperrors.ErrNotFound)
	_, err = svc.Wait(ctx, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
