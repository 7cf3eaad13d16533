package models

import (
	"fmt"
	"time"
)

// MaxHeadCount is the stored value for the "10+" head-count option
const MaxHeadCount = 10

// Language is one of the closed set of languages the bot speaks
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguagePunjabi Language = "pa"
)

// Languages lists the supported languages in prompt order
var Languages = []Language{LanguageEnglish, LanguageHindi, LanguagePunjabi}

// Valid reports whether l is a supported language
func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

// Side is the hosting party a guest is associated with
type Side string

const (
	SideGroom Side = "groom"
	SideBride Side = "bride"
	SideBoth  Side = "both"
)

// Sides lists the supported sides in prompt order
var Sides = []Side{SideGroom, SideBride, SideBoth}

// Valid reports whether s is a supported side
func (s Side) Valid() bool {
	return s == SideGroom || s == SideBride || s == SideBoth
}

// Includes reports whether an entry tagged with s is visible to a guest on side guest
func (s Side) Includes(guest Side) bool {
	return s == SideBoth || guest == SideBoth || s == guest
}

// RSVPStatus represents the attendance confirmation status.
// The zero value means the guest has not answered yet.
type RSVPStatus string

const (
	RSVPUnset        RSVPStatus = ""
	RSVPAttending    RSVPStatus = "attending"
	RSVPNotAttending RSVPStatus = "not_attending"
)

// Valid reports whether r is a known RSVP status, including unset
func (r RSVPStatus) Valid() bool {
	return r == RSVPUnset || r == RSVPAttending || r == RSVPNotAttending
}

// Guest represents a wedding guest, keyed by phone number
type Guest struct {
	PhoneNumber   string     `json:"phone_number"`
	Name          string     `json:"name,omitempty"`
	OptedIn       bool       `json:"opted_in"`
	Language      *Language  `json:"language,omitempty"`
	Side          *Side      `json:"side,omitempty"`
	RSVPStatus    RSVPStatus `json:"rsvp_status,omitempty"`
	RSVPCount     *int       `json:"rsvp_count,omitempty"`
	FirstSeenAt   time.Time  `json:"first_seen_at"`
	LastInboundAt time.Time  `json:"last_inbound_at"`
}

// NewGuest returns a guest as created on first inbound contact
func NewGuest(phoneNumber, name string, now time.Time) Guest {
	return Guest{
		PhoneNumber:   phoneNumber,
		Name:          name,
		OptedIn:       true,
		FirstSeenAt:   now,
		LastInboundAt: now,
	}
}

// SetRSVP records an RSVP answer. The head-count is kept only when attending.
func (g *Guest) SetRSVP(status RSVPStatus, count int) error {
	switch status {
	case RSVPAttending:
		if count < 1 || count > MaxHeadCount {
			return fmt.Errorf("head-count %d out of range 1-%d", count, MaxHeadCount)
		}
		g.RSVPStatus = status
		g.RSVPCount = &count
	case RSVPNotAttending, RSVPUnset:
		g.RSVPStatus = status
		g.RSVPCount = nil
	default:
		return fmt.Errorf("unknown RSVP status %q", status)
	}
	return nil
}

// ResetPreferences clears language and side together. RSVP fields are untouched.
func (g *Guest) ResetPreferences() {
	g.Language = nil
	g.Side = nil
}

// LanguageOr returns the guest's language or fallback when unset
func (g Guest) LanguageOr(fallback Language) Language {
	if g.Language == nil {
		return fallback
	}
	return *g.Language
}

// HeadCountLabel renders the stored head-count, showing the sentinel as "10+"
func HeadCountLabel(count int) string {
	if count >= MaxHeadCount {
		return fmt.Sprintf("%d+", MaxHeadCount)
	}
	return fmt.Sprintf("%d", count)
}
