package conversation

import (
	"fmt"
	"strings"

	"github.com/prastut/wedding-jarvis-sub000/internal/message"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

type menuItem struct {
	id  string
	key string
}

var (
	infoItems = []menuItem{
		{IDMenuSchedule, "schedule"},
		{IDMenuVenue, "venue"},
		{IDMenuDressCode, "dress"},
		{IDMenuFAQ, "faq"},
		{IDMenuGifts, "gifts"},
		{IDMenuEmergency, "emergency"},
	}
	actionItems = []menuItem{
		{IDMenuRSVP, "rsvp"},
		{IDMenuReset, "reset"},
	}
	menuItemByID = func() map[string]menuItem {
		out := make(map[string]menuItem)
		for _, it := range append(append([]menuItem{}, infoItems...), actionItems...) {
			out[it.id] = it
		}
		return out
	}()
)

const eventTimeLayout = "Mon, 2 Jan · 3:04 PM"

func (m *Machine) languagePrompt() message.Message {
	base := m.cfg.BaseLanguage
	return message.Buttons(
		m.bundle.Format(base, "language.prompt", map[string]string{"couple": m.cfg.CoupleNames}),
		message.Button{ID: IDLanguageEnglish, Title: "English"},
		message.Button{ID: IDLanguageHindi, Title: "हिन्दी"},
		message.Button{ID: IDLanguagePunjabi, Title: "ਪੰਜਾਬੀ"},
	).Normalize()
}

func (m *Machine) sidePrompt(lang models.Language) message.Message {
	return message.Buttons(
		m.bundle.T(lang, "side.prompt"),
		message.Button{ID: IDSideGroom, Title: m.bundle.T(lang, "side.groom")},
		message.Button{ID: IDSideBride, Title: m.bundle.T(lang, "side.bride")},
		message.Button{ID: IDSideBoth, Title: m.bundle.T(lang, "side.both")},
	).Normalize()
}

func (m *Machine) menuRows(lang models.Language, side models.Side, items []menuItem) []message.Row {
	var rows []message.Row
	for _, it := range items {
		if !m.ref.MenuVisible(it.key, side) {
			continue
		}
		rows = append(rows, message.Row{
			ID:          it.id,
			Title:       m.bundle.T(lang, "menu."+it.key),
			Description: m.bundle.T(lang, "menu."+it.key+".desc"),
		})
	}
	return rows
}

func (m *Machine) menu(lang models.Language, side models.Side, body string) message.Message {
	var sections []message.Section
	if rows := m.menuRows(lang, side, infoItems); len(rows) > 0 {
		sections = append(sections, message.Section{Title: m.bundle.T(lang, "menu.section"), Rows: rows})
	}
	if rows := m.menuRows(lang, side, actionItems); len(rows) > 0 {
		sections = append(sections, message.Section{Title: m.bundle.T(lang, "menu.actions"), Rows: rows})
	}
	msg := message.List(body, m.bundle.T(lang, "menu.button"), sections...)
	if m.cfg.CoupleNames != "" {
		msg.Header = m.bundle.Format(lang, "menu.header", map[string]string{"couple": m.cfg.CoupleNames})
	}
	return msg.Normalize()
}

func (m *Machine) rsvpPrompt(guest models.Guest, lang models.Language) message.Message {
	date := m.cfg.WeddingDate
	if date == "" {
		date = "the wedding"
	}
	body := m.bundle.Format(lang, "rsvp.prompt", map[string]string{"date": date})
	switch guest.RSVPStatus {
	case models.RSVPAttending:
		count := 1
		if guest.RSVPCount != nil {
			count = *guest.RSVPCount
		}
		answer := m.bundle.Format(lang, "rsvp.confirm.attending", map[string]string{"count": models.HeadCountLabel(count)})
		body += "\n\n" + m.bundle.Format(lang, "rsvp.current", map[string]string{"answer": answer})
	case models.RSVPNotAttending:
		body += "\n\n" + m.bundle.Format(lang, "rsvp.current", map[string]string{"answer": m.bundle.T(lang, "rsvp.no")})
	}
	return message.Buttons(body,
		message.Button{ID: IDRSVPYes, Title: m.bundle.T(lang, "rsvp.yes")},
		message.Button{ID: IDRSVPNo, Title: m.bundle.T(lang, "rsvp.no")},
		message.Button{ID: IDMenuBack, Title: m.bundle.T(lang, "menu.back")},
	).Normalize()
}

func (m *Machine) headCountPrompt(lang models.Language) message.Message {
	rows := make([]message.Row, 0, models.MaxHeadCount)
	for n := 1; n <= models.MaxHeadCount; n++ {
		rows = append(rows, message.Row{ID: RSVPCountID(n), Title: models.HeadCountLabel(n)})
	}
	return message.List(
		m.bundle.T(lang, "rsvp.count.prompt"),
		m.bundle.T(lang, "rsvp.count.button"),
		message.Section{Title: m.bundle.T(lang, "rsvp.count.section"), Rows: rows},
	).Normalize()
}

// section renders a titled block, or the "not available" notice when there are no entries
func (m *Machine) section(lang models.Language, titleKey string, entries []string) string {
	if len(entries) == 0 {
		return m.bundle.T(lang, titleKey) + "\n\n" + m.bundle.T(lang, "content.unavailable")
	}
	return m.bundle.T(lang, titleKey) + "\n\n" + strings.Join(entries, "\n\n")
}

func (m *Machine) renderSchedule(lang models.Language, side models.Side) string {
	base := m.cfg.BaseLanguage
	var entries []string
	for _, e := range m.ref.ScheduleFor(side) {
		var b strings.Builder
		fmt.Fprintf(&b, "*%s*", e.Name.Resolve(lang, base))
		if when := e.When.Resolve(lang, base); when != "" {
			fmt.Fprintf(&b, "\n🕒 %s", when)
		} else if !e.StartsAt.IsZero() {
			fmt.Fprintf(&b, "\n🕒 %s", e.StartsAt.Format(eventTimeLayout))
		}
		if v, ok := m.ref.Venue(e.VenueID); ok {
			fmt.Fprintf(&b, "\n📍 %s", v.Name.Resolve(lang, base))
		}
		entries = append(entries, b.String())
	}
	return message.Truncate(m.section(lang, "schedule.title", entries), message.MaxTextBody)
}

func (m *Machine) renderVenues(lang models.Language, side models.Side) string {
	base := m.cfg.BaseLanguage
	var entries []string
	for _, v := range m.ref.VenuesFor(side) {
		var b strings.Builder
		fmt.Fprintf(&b, "*%s*", v.Name.Resolve(lang, base))
		if addr := v.Address.Resolve(lang, base); addr != "" {
			fmt.Fprintf(&b, "\n%s", addr)
		}
		if v.MapsURL != "" {
			fmt.Fprintf(&b, "\n🗺️ %s", v.MapsURL)
		}
		if parking := v.Parking.Resolve(lang, base); parking != "" {
			fmt.Fprintf(&b, "\n🚗 %s: %s", m.bundle.T(lang, "venue.parking"), parking)
		}
		entries = append(entries, b.String())
	}
	return message.Truncate(m.section(lang, "venue.title", entries), message.MaxTextBody)
}

func (m *Machine) renderDressCodes(lang models.Language, side models.Side) string {
	base := m.cfg.BaseLanguage
	var entries []string
	for _, e := range m.ref.DressCodesFor(side) {
		entries = append(entries, fmt.Sprintf("*%s*\n%s", e.Name.Resolve(lang, base), e.DressCode.Resolve(lang, base)))
	}
	return message.Truncate(m.section(lang, "dress.title", entries), message.MaxTextBody)
}

func (m *Machine) renderFAQs(lang models.Language, side models.Side) string {
	base := m.cfg.BaseLanguage
	var entries []string
	for _, f := range m.ref.FAQsFor(side) {
		entries = append(entries, fmt.Sprintf("*%s*\n%s", f.Question.Resolve(lang, base), f.Answer.Resolve(lang, base)))
	}
	return message.Truncate(m.section(lang, "faq.title", entries), message.MaxTextBody)
}

func (m *Machine) renderContacts(lang models.Language, side models.Side) string {
	base := m.cfg.BaseLanguage
	var entries []string
	for _, c := range m.ref.ContactsFor(side) {
		line := "*" + c.Name + "*"
		if role := c.Role.Resolve(lang, base); role != "" {
			line += " (" + role + ")"
		}
		entries = append(entries, line+"\n📞 "+c.Phone)
	}
	return message.Truncate(m.section(lang, "emergency.title", entries), message.MaxTextBody)
}

func (m *Machine) renderGifts(lang models.Language, side models.Side) string {
	base := m.cfg.BaseLanguage
	var entries []string
	for _, g := range m.ref.GiftsFor(side) {
		entries = append(entries, g.Note.Resolve(lang, base))
	}
	return message.Truncate(m.section(lang, "gifts.title", entries), message.MaxTextBody)
}
