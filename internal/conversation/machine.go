package conversation

import (
	"fmt"
	"strings"

	"github.com/prastut/wedding-jarvis-sub000/internal/content"
	"github.com/prastut/wedding-jarvis-sub000/internal/i18n"
	"github.com/prastut/wedding-jarvis-sub000/internal/message"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// Config holds the process-wide switches the machine depends on
type Config struct {
	// PostEvent answers every inbound with a fixed thank-you and changes nothing
	PostEvent    bool
	BaseLanguage models.Language
	CoupleNames  string
	WeddingDate  string
}

// Reference is the read-only wedding data shown from the menu
type Reference interface {
	ScheduleFor(side models.Side) []content.Event
	DressCodesFor(side models.Side) []content.Event
	VenuesFor(side models.Side) []content.Venue
	Venue(id string) (content.Venue, bool)
	FAQsFor(side models.Side) []content.FAQ
	ContactsFor(side models.Side) []content.Contact
	GiftsFor(side models.Side) []content.Gift
	MenuVisible(item string, side models.Side) bool
}

// RSVPChange is a requested RSVP update
type RSVPChange struct {
	Status models.RSVPStatus
	Count  int
}

// Mutation is the change to persist for the guest. A nil *Mutation means no change.
type Mutation struct {
	Language         *models.Language
	Side             *models.Side
	ResetPreferences bool
	OptedIn          *bool
	RSVP             *RSVPChange
}

// Apply writes the mutation onto g
func (m *Mutation) Apply(g *models.Guest) error {
	if m == nil {
		return nil
	}
	if m.ResetPreferences {
		g.ResetPreferences()
	}
	if m.Language != nil {
		l := *m.Language
		g.Language = &l
	}
	if m.Side != nil {
		s := *m.Side
		g.Side = &s
	}
	if m.OptedIn != nil {
		g.OptedIn = *m.OptedIn
	}
	if m.RSVP != nil {
		return g.SetRSVP(m.RSVP.Status, m.RSVP.Count)
	}
	return nil
}

// ChangesProfile reports whether the mutation touches language, side or RSVP
func (m *Mutation) ChangesProfile() bool {
	return m != nil && (m.Language != nil || m.Side != nil || m.ResetPreferences || m.RSVP != nil)
}

// Result is the outcome of handling one inbound message
type Result struct {
	// State is the state the guest was in when the message arrived
	State    State
	Action   string
	Mutation *Mutation
	Reply    message.Message
}

// Machine is the guest conversation state machine
type Machine struct {
	cfg    Config
	bundle *i18n.Bundle
	ref    Reference
}

// NewMachine creates a state machine
func NewMachine(cfg Config, bundle *i18n.Bundle, ref Reference) *Machine {
	if !cfg.BaseLanguage.Valid() {
		cfg.BaseLanguage = models.LanguageEnglish
	}
	if bundle == nil {
		bundle = i18n.Default(cfg.BaseLanguage)
	}
	if ref == nil {
		ref = &content.Catalog{}
	}
	return &Machine{cfg: cfg, bundle: bundle, ref: ref}
}

// PostEvent reports whether the machine only answers with the post-event thank-you
func (m *Machine) PostEvent() bool {
	return m.cfg.PostEvent
}

// Handle computes the mutation and reply for one inbound message.
// The only error is an invalid reply, which is a programming error.
func (m *Machine) Handle(guest models.Guest, in Inbound) (Result, error) {
	state := DeriveState(guest)
	lang := guest.LanguageOr(m.cfg.BaseLanguage)

	var res Result
	switch {
	case m.cfg.PostEvent:
		res = Result{Action: "post_event", Reply: message.Text(m.bundle.T(lang, "postevent.thanks"))}
	case state == StateNew:
		res = m.handleNew(in)
	case state == StateLanguageSelected:
		res = m.handleLanguageSelected(lang, in)
	default:
		res = m.handleOnboarded(guest, lang, in)
	}
	res.State = state

	if err := res.Reply.Validate(); err != nil {
		return res, fmt.Errorf("invalid reply for %s: %w", res.Action, err)
	}
	return res, nil
}

// interactionID returns the recognised id carried by in, or "" for free text.
// Typed ids (e.g. "rsvp_yes") are accepted as if tapped.
func interactionID(in Inbound) string {
	if in.Kind == KindInteraction {
		return strings.ToUpper(strings.TrimSpace(in.ID))
	}
	if id := command(in.Text); knownID(id) {
		return id
	}
	return ""
}

func knownID(id string) bool {
	if _, ok := languageIDs[id]; ok {
		return true
	}
	if _, ok := sideIDs[id]; ok {
		return true
	}
	if _, ok := parseRSVPCount(id); ok {
		return true
	}
	switch id {
	case IDMenuSchedule, IDMenuVenue, IDMenuDressCode, IDMenuFAQ, IDMenuRSVP,
		IDMenuEmergency, IDMenuGifts, IDMenuReset, IDMenuBack, IDRSVPYes, IDRSVPNo:
		return true
	}
	return false
}

// subscriptionChange reports the opt-in requested by a STOP/START style text command
func subscriptionChange(in Inbound) (optedIn, ok bool) {
	if in.Kind == KindInteraction {
		return false, false
	}
	cmd := command(in.Text)
	switch {
	case optOutCommands[cmd]:
		return false, true
	case optInCommands[cmd]:
		return true, true
	}
	return false, false
}

// changeSubscription confirms an opt-in change and then repeats prompt, so a
// guest who has not finished onboarding can still do so.
func (m *Machine) changeSubscription(lang models.Language, optedIn bool, prompt message.Message) Result {
	action, key := "opt_out", "optout.confirm"
	if optedIn {
		action, key = "opt_in", "optin.confirm"
	}
	prompt.Body = m.bundle.T(lang, key) + "\n\n" + prompt.Body
	return Result{
		Action:   action,
		Mutation: &Mutation{OptedIn: &optedIn},
		Reply:    prompt.Normalize(),
	}
}

func (m *Machine) handleNew(in Inbound) Result {
	if optedIn, ok := subscriptionChange(in); ok {
		return m.changeSubscription(m.cfg.BaseLanguage, optedIn, m.languagePrompt())
	}
	if lang, ok := languageIDs[interactionID(in)]; ok {
		return Result{
			Action:   "select_language",
			Mutation: &Mutation{Language: &lang},
			Reply:    m.sidePrompt(lang),
		}
	}
	return Result{Action: "language_prompt", Reply: m.languagePrompt()}
}

func (m *Machine) handleLanguageSelected(lang models.Language, in Inbound) Result {
	if optedIn, ok := subscriptionChange(in); ok {
		return m.changeSubscription(lang, optedIn, m.sidePrompt(lang))
	}
	if side, ok := sideIDs[interactionID(in)]; ok {
		body := m.bundle.T(lang, "onboarding.done") + "\n\n" + m.bundle.T(lang, "menu.body")
		return Result{
			Action:   "select_side",
			Mutation: &Mutation{Side: &side},
			Reply:    m.menu(lang, side, body),
		}
	}
	return Result{Action: "side_prompt", Reply: m.sidePrompt(lang)}
}

func (m *Machine) handleOnboarded(guest models.Guest, lang models.Language, in Inbound) Result {
	side := *guest.Side
	id := interactionID(in)

	if id == "" {
		if optedIn, ok := subscriptionChange(in); ok {
			if !optedIn {
				return Result{
					Action:   "opt_out",
					Mutation: &Mutation{OptedIn: &optedIn},
					Reply:    message.Text(m.bundle.T(lang, "optout.confirm")),
				}
			}
			body := m.bundle.T(lang, "optin.confirm") + "\n\n" + m.bundle.T(lang, "menu.body")
			return Result{
				Action:   "opt_in",
				Mutation: &Mutation{OptedIn: &optedIn},
				Reply:    m.menu(lang, side, body),
			}
		}
		// greetings, "menu" and anything unrecognised
		return Result{Action: "menu", Reply: m.menu(lang, side, m.bundle.T(lang, "menu.body"))}
	}

	if item, ok := menuItemByID[id]; ok && !m.ref.MenuVisible(item.key, side) {
		return Result{Action: "menu", Reply: m.menu(lang, side, m.bundle.T(lang, "menu.body"))}
	}

	if n, ok := parseRSVPCount(id); ok {
		return Result{
			Action:   "rsvp_count",
			Mutation: &Mutation{RSVP: &RSVPChange{Status: models.RSVPAttending, Count: n}},
			Reply: message.Text(
				m.bundle.Format(lang, "rsvp.confirm.attending", map[string]string{"count": models.HeadCountLabel(n)}) +
					"\n\n" + m.bundle.T(lang, "rsvp.thanks")),
		}
	}

	switch id {
	case IDMenuBack:
		return Result{Action: "back", Reply: m.menu(lang, side, m.bundle.T(lang, "menu.body"))}
	case IDMenuSchedule:
		return Result{Action: "schedule", Reply: message.Text(m.renderSchedule(lang, side))}
	case IDMenuVenue:
		return Result{Action: "venue", Reply: message.Text(m.renderVenues(lang, side))}
	case IDMenuDressCode:
		return Result{Action: "dress_code", Reply: message.Text(m.renderDressCodes(lang, side))}
	case IDMenuFAQ:
		return Result{Action: "faq", Reply: message.Text(m.renderFAQs(lang, side))}
	case IDMenuEmergency:
		return Result{Action: "emergency", Reply: message.Text(m.renderContacts(lang, side))}
	case IDMenuGifts:
		return Result{Action: "gifts", Reply: message.Text(m.renderGifts(lang, side))}
	case IDMenuRSVP:
		return Result{Action: "rsvp_prompt", Reply: m.rsvpPrompt(guest, lang)}
	case IDRSVPYes:
		return Result{Action: "rsvp_yes", Reply: m.headCountPrompt(lang)}
	case IDRSVPNo:
		return Result{
			Action:   "rsvp_no",
			Mutation: &Mutation{RSVP: &RSVPChange{Status: models.RSVPNotAttending}},
			Reply:    message.Text(m.bundle.T(lang, "rsvp.confirm.declined") + "\n\n" + m.bundle.T(lang, "rsvp.thanks")),
		}
	case IDMenuReset:
		return Result{
			Action:   "reset_preferences",
			Mutation: &Mutation{ResetPreferences: true},
			Reply:    m.languagePrompt(),
		}
	}

	// a stale onboarding button or anything else: show the menu
	return Result{Action: "menu", Reply: m.menu(lang, side, m.bundle.T(lang, "menu.body"))}
}
