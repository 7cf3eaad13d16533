package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prastut/wedding-jarvis-sub000/internal/content"
	"github.com/prastut/wedding-jarvis-sub000/internal/i18n"
	"github.com/prastut/wedding-jarvis-sub000/internal/message"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

const catalogYAML = `
events:
  - id: sangeet
    name: {en: Sangeet, hi: संगीत}
    starts_at: 2026-02-13T19:00:00+05:30
    venue: palace
    dress_code: {en: Indo-western}
  - id: haldi
    side: bride
    name: {en: Haldi}
    starts_at: 2026-02-13T10:00:00+05:30
  - id: baraat
    side: groom
    name: {en: Baraat}
    starts_at: 2026-02-14T16:00:00+05:30
    when: {en: Saturday evening}
venues:
  - id: palace
    name: {en: Leela Palace}
    address: {en: Chanakyapuri, New Delhi}
    parking: {en: Valet at the main gate}
contacts:
  - side: groom
    name: Rahul
    phone: "+91 98765 43210"
  - side: bride
    name: Priya
    phone: "+91 91234 56789"
menu:
  gifts: groom
`

func newTestMachine(t *testing.T, cfg Config) *Machine {
	t.Helper()
	catalog, err := content.Parse([]byte(catalogYAML))
	require.NoError(t, err)
	if cfg.CoupleNames == "" {
		cfg.CoupleNames = "Aman & Simran"
	}
	if cfg.WeddingDate == "" {
		cfg.WeddingDate = "14 February"
	}
	return NewMachine(cfg, i18n.Default(models.LanguageEnglish), catalog)
}

func onboarded(lang models.Language, side models.Side) models.Guest {
	g := models.NewGuest("919876543210", "Guest", time.Now())
	g.Language = &lang
	g.Side = &side
	return g
}

func rowIDs(msg message.Message) []string {
	var ids []string
	for _, s := range msg.Sections {
		for _, r := range s.Rows {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func TestDeriveState(t *testing.T) {
	g := models.NewGuest("1", "", time.Now())
	assert.Equal(t, StateNew, DeriveState(g))

	lang := models.LanguageHindi
	g.Language = &lang
	assert.Equal(t, StateLanguageSelected, DeriveState(g))

	side := models.SideBoth
	g.Side = &side
	assert.Equal(t, StateOnboarded, DeriveState(g))
	assert.Equal(t, "ONBOARDED", StateOnboarded.String())
}

func TestNewGuestGetsLanguagePrompt(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := models.NewGuest("1", "", time.Now())

	for _, in := range []Inbound{TextMessage("hello"), Interaction(IDMenuSchedule)} {
		res, err := m.Handle(g, in)
		require.NoError(t, err)
		assert.Equal(t, StateNew, res.State)
		assert.Nil(t, res.Mutation)
		assert.Equal(t, message.KindButtons, res.Reply.Kind)
		require.Len(t, res.Reply.Buttons, 3)
		assert.Equal(t, IDLanguageEnglish, res.Reply.Buttons[0].ID)
		assert.Contains(t, res.Reply.Body, "Aman & Simran")
	}
}

func TestStopBeforeOnboardingOptsOut(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := models.NewGuest("1", "", time.Now())

	res, err := m.Handle(g, TextMessage("stop"))
	require.NoError(t, err)
	assert.Equal(t, "opt_out", res.Action)
	require.NotNil(t, res.Mutation)
	require.NotNil(t, res.Mutation.OptedIn)
	assert.False(t, *res.Mutation.OptedIn)
	assert.Nil(t, res.Mutation.Language)
	assert.Nil(t, res.Mutation.Side)
	// the language prompt is repeated so onboarding can continue
	require.Len(t, res.Reply.Buttons, 3)
	assert.Equal(t, IDLanguageEnglish, res.Reply.Buttons[0].ID)
	assert.Contains(t, res.Reply.Body, "START")

	require.NoError(t, res.Mutation.Apply(&g))
	assert.False(t, g.OptedIn)
	assert.Equal(t, StateNew, DeriveState(g))

	lang := models.LanguageHindi
	g.Language = &lang
	res, err = m.Handle(g, TextMessage("START"))
	require.NoError(t, err)
	assert.Equal(t, "opt_in", res.Action)
	assert.True(t, *res.Mutation.OptedIn)
	assert.Nil(t, res.Mutation.Side)
	require.Len(t, res.Reply.Buttons, 3)
	assert.Equal(t, IDSideGroom, res.Reply.Buttons[0].ID)
}

func TestLanguageSelectionAsksForSide(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := models.NewGuest("1", "", time.Now())

	res, err := m.Handle(g, Interaction(IDLanguageHindi))
	require.NoError(t, err)
	require.NotNil(t, res.Mutation)
	require.NotNil(t, res.Mutation.Language)
	assert.Equal(t, models.LanguageHindi, *res.Mutation.Language)
	assert.Equal(t, "आप किस पक्ष से हमारे साथ जुड़ रहे हैं?", res.Reply.Body)
	require.Len(t, res.Reply.Buttons, 3)
	assert.Equal(t, "वर पक्ष", res.Reply.Buttons[0].Title)

	require.NoError(t, res.Mutation.Apply(&g))
	assert.Equal(t, StateLanguageSelected, DeriveState(g))
}

func TestSideSelectionCompletesOnboarding(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := models.NewGuest("1", "", time.Now())
	lang := models.LanguageEnglish
	g.Language = &lang

	res, err := m.Handle(g, TextMessage("what?"))
	require.NoError(t, err)
	assert.Nil(t, res.Mutation)
	assert.Equal(t, "side_prompt", res.Action)

	res, err = m.Handle(g, Interaction(IDSideBride))
	require.NoError(t, err)
	require.NotNil(t, res.Mutation)
	assert.Equal(t, models.SideBride, *res.Mutation.Side)
	assert.Equal(t, message.KindList, res.Reply.Kind)
	assert.Contains(t, res.Reply.Body, "You're all set")
	assert.Equal(t, "Aman & Simran", res.Reply.Header)

	require.NoError(t, res.Mutation.Apply(&g))
	assert.Equal(t, StateOnboarded, DeriveState(g))
}

func TestMenuHidesItemsForOtherSide(t *testing.T) {
	m := newTestMachine(t, Config{})

	res, err := m.Handle(onboarded(models.LanguageEnglish, models.SideGroom), TextMessage("hi"))
	require.NoError(t, err)
	assert.Contains(t, rowIDs(res.Reply), IDMenuGifts)
	assert.LessOrEqual(t, res.Reply.RowCount(), message.MaxRows)

	bride := onboarded(models.LanguageEnglish, models.SideBride)
	res, err = m.Handle(bride, TextMessage("hi"))
	require.NoError(t, err)
	assert.NotContains(t, rowIDs(res.Reply), IDMenuGifts)
	assert.Contains(t, rowIDs(res.Reply), IDMenuRSVP)

	// tapping a hidden item falls back to the menu
	res, err = m.Handle(bride, Interaction(IDMenuGifts))
	require.NoError(t, err)
	assert.Equal(t, "menu", res.Action)
}

func TestScheduleIsFilteredBySide(t *testing.T) {
	m := newTestMachine(t, Config{})

	res, err := m.Handle(onboarded(models.LanguageEnglish, models.SideGroom), Interaction(IDMenuSchedule))
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Body, "Baraat")
	assert.Contains(t, res.Reply.Body, "Saturday evening")
	assert.Contains(t, res.Reply.Body, "Leela Palace")
	assert.NotContains(t, res.Reply.Body, "Haldi")

	res, err = m.Handle(onboarded(models.LanguageEnglish, models.SideBride), Interaction(IDMenuSchedule))
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Body, "Haldi")
	assert.NotContains(t, res.Reply.Body, "Baraat")

	res, err = m.Handle(onboarded(models.LanguageEnglish, models.SideBoth), Interaction(IDMenuSchedule))
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Body, "Haldi")
	assert.Contains(t, res.Reply.Body, "Baraat")
}

func TestContentFallsBackToBaseLanguagePerField(t *testing.T) {
	m := newTestMachine(t, Config{})

	res, err := m.Handle(onboarded(models.LanguageHindi, models.SideBride), Interaction(IDMenuSchedule))
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Body, "कार्यक्रम")
	assert.Contains(t, res.Reply.Body, "संगीत")
	assert.Contains(t, res.Reply.Body, "Haldi")
}

func TestEmptyContentSaysUnavailable(t *testing.T) {
	m := newTestMachine(t, Config{})

	res, err := m.Handle(onboarded(models.LanguageEnglish, models.SideGroom), Interaction(IDMenuFAQ))
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Body, "not available yet")

	res, err = m.Handle(onboarded(models.LanguageEnglish, models.SideBride), Interaction(IDMenuEmergency))
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Body, "Priya")
	assert.NotContains(t, res.Reply.Body, "Rahul")
}

func TestRSVPAttendingFlow(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := onboarded(models.LanguageEnglish, models.SideBoth)

	res, err := m.Handle(g, Interaction(IDMenuRSVP))
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Body, "14 February")
	require.Len(t, res.Reply.Buttons, 3)

	res, err = m.Handle(g, Interaction(IDRSVPYes))
	require.NoError(t, err)
	assert.Nil(t, res.Mutation)
	rows := res.Reply.Sections[0].Rows
	require.Len(t, rows, 10)
	assert.Equal(t, "1", rows[0].Title)
	assert.Equal(t, "10+", rows[9].Title)

	res, err = m.Handle(g, Interaction(rows[9].ID))
	require.NoError(t, err)
	require.NotNil(t, res.Mutation)
	require.NotNil(t, res.Mutation.RSVP)
	assert.Equal(t, models.RSVPAttending, res.Mutation.RSVP.Status)
	assert.Equal(t, models.MaxHeadCount, res.Mutation.RSVP.Count)
	assert.Contains(t, res.Reply.Body, "10+ attending")

	require.NoError(t, res.Mutation.Apply(&g))
	assert.Equal(t, models.RSVPAttending, g.RSVPStatus)
	assert.Equal(t, 10, *g.RSVPCount)

	res, err = m.Handle(g, Interaction(IDMenuRSVP))
	require.NoError(t, err)
	assert.Contains(t, res.Reply.Body, "Your current answer")
}

func TestRSVPDeclineClearsCount(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := onboarded(models.LanguageEnglish, models.SideBoth)
	require.NoError(t, g.SetRSVP(models.RSVPAttending, 3))

	// typed ids behave like taps
	res, err := m.Handle(g, TextMessage(" rsvp_no "))
	require.NoError(t, err)
	require.NotNil(t, res.Mutation)
	require.NoError(t, res.Mutation.Apply(&g))
	assert.Equal(t, models.RSVPNotAttending, g.RSVPStatus)
	assert.Nil(t, g.RSVPCount)
}

func TestInvalidHeadCountIsIgnored(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := onboarded(models.LanguageEnglish, models.SideBoth)

	for _, id := range []string{"RSVP_COUNT_0", "RSVP_COUNT_11", "RSVP_COUNT_04", "RSVP_COUNT_x"} {
		res, err := m.Handle(g, Interaction(id))
		require.NoError(t, err)
		assert.Nil(t, res.Mutation, id)
		assert.Equal(t, "menu", res.Action, id)
	}
}

func TestOptOutAndBackIn(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := onboarded(models.LanguageEnglish, models.SideGroom)

	res, err := m.Handle(g, TextMessage("stop"))
	require.NoError(t, err)
	require.NotNil(t, res.Mutation)
	require.NoError(t, res.Mutation.Apply(&g))
	assert.False(t, g.OptedIn)
	assert.Equal(t, message.KindText, res.Reply.Kind)

	res, err = m.Handle(g, TextMessage("Subscribe"))
	require.NoError(t, err)
	require.NoError(t, res.Mutation.Apply(&g))
	assert.True(t, g.OptedIn)
	assert.Equal(t, message.KindList, res.Reply.Kind)
	assert.Contains(t, res.Reply.Body, "Welcome back")
}

func TestResetPreferencesKeepsRSVP(t *testing.T) {
	m := newTestMachine(t, Config{})
	g := onboarded(models.LanguageHindi, models.SideBride)
	require.NoError(t, g.SetRSVP(models.RSVPAttending, 2))

	res, err := m.Handle(g, Interaction(IDMenuReset))
	require.NoError(t, err)
	require.NotNil(t, res.Mutation)
	assert.True(t, res.Mutation.ResetPreferences)
	require.Len(t, res.Reply.Buttons, 3)
	assert.Equal(t, IDLanguageEnglish, res.Reply.Buttons[0].ID)

	require.NoError(t, res.Mutation.Apply(&g))
	assert.Equal(t, StateNew, DeriveState(g))
	assert.Equal(t, models.RSVPAttending, g.RSVPStatus)
	assert.Equal(t, 2, *g.RSVPCount)
}

func TestPostEventModeChangesNothing(t *testing.T) {
	m := newTestMachine(t, Config{PostEvent: true})

	guests := []models.Guest{
		models.NewGuest("1", "", time.Now()),
		onboarded(models.LanguagePunjabi, models.SideGroom),
	}
	for _, g := range guests {
		for _, in := range []Inbound{TextMessage("STOP"), Interaction(IDLanguageHindi), Interaction(IDRSVPNo)} {
			res, err := m.Handle(g, in)
			require.NoError(t, err)
			assert.Nil(t, res.Mutation)
			assert.Equal(t, "post_event", res.Action)
			assert.Equal(t, message.KindText, res.Reply.Kind)
		}
	}
}

func TestEveryReplyIsValid(t *testing.T) {
	m := newTestMachine(t, Config{})
	ids := []string{
		IDMenuSchedule, IDMenuVenue, IDMenuDressCode, IDMenuFAQ, IDMenuRSVP, IDMenuEmergency,
		IDMenuGifts, IDMenuReset, IDMenuBack, IDRSVPYes, IDRSVPNo, RSVPCountID(1), IDSideBoth, "UNKNOWN",
	}
	for _, lang := range models.Languages {
		for _, side := range models.Sides {
			g := onboarded(lang, side)
			for _, id := range ids {
				res, err := m.Handle(g, Interaction(id))
				require.NoError(t, err, "%s/%s/%s", lang, side, id)
				assert.NoError(t, res.Reply.Validate())
			}
		}
	}
}

func TestMutationApplyNil(t *testing.T) {
	var m *Mutation
	g := models.NewGuest("1", "", time.Now())
	assert.NoError(t, m.Apply(&g))
	assert.Equal(t, StateNew, DeriveState(g))
}
