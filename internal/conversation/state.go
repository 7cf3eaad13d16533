// Package conversation maps a guest's stored preferences and one inbound
// signal to the guest mutation (if any) and the reply to send.
//
// The machine is pure: it never touches storage or the network, so the
// caller decides how mutations are persisted and replies delivered.
package conversation

import (
	"fmt"
	"strings"

	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// State is derived from the guest record on every inbound message, never stored
type State int

const (
	StateNew State = iota
	StateLanguageSelected
	StateOnboarded
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateLanguageSelected:
		return "LANGUAGE_SELECTED"
	case StateOnboarded:
		return "ONBOARDED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DeriveState computes the onboarding state from persisted fields
func DeriveState(g models.Guest) State {
	switch {
	case g.Language == nil:
		return StateNew
	case g.Side == nil:
		return StateLanguageSelected
	default:
		return StateOnboarded
	}
}

// InboundKind tells free text from a button or list tap
type InboundKind int

const (
	KindText InboundKind = iota
	KindInteraction
)

// Inbound is one message from a guest
type Inbound struct {
	Kind InboundKind
	Text string
	ID   string
}

// TextMessage builds a free-text inbound
func TextMessage(text string) Inbound {
	return Inbound{Kind: KindText, Text: text}
}

// Interaction builds an inbound for a tapped option
func Interaction(id string) Inbound {
	return Inbound{Kind: KindInteraction, ID: id}
}

// Interaction ids carried by buttons and list rows
const (
	IDLanguageEnglish = "LANG_EN"
	IDLanguageHindi   = "LANG_HI"
	IDLanguagePunjabi = "LANG_PA"

	IDSideGroom = "SIDE_GROOM"
	IDSideBride = "SIDE_BRIDE"
	IDSideBoth  = "SIDE_BOTH"

	IDMenuSchedule  = "MENU_SCHEDULE"
	IDMenuVenue     = "MENU_VENUE"
	IDMenuDressCode = "MENU_DRESS"
	IDMenuFAQ       = "MENU_FAQ"
	IDMenuRSVP      = "MENU_RSVP"
	IDMenuEmergency = "MENU_EMERGENCY"
	IDMenuGifts     = "MENU_GIFTS"
	IDMenuReset     = "MENU_RESET"
	IDMenuBack      = "MENU_BACK"

	IDRSVPYes         = "RSVP_YES"
	IDRSVPNo          = "RSVP_NO"
	IDRSVPCountPrefix = "RSVP_COUNT_"
)

var languageIDs = map[string]models.Language{
	IDLanguageEnglish: models.LanguageEnglish,
	IDLanguageHindi:   models.LanguageHindi,
	IDLanguagePunjabi: models.LanguagePunjabi,
}

var sideIDs = map[string]models.Side{
	IDSideGroom: models.SideGroom,
	IDSideBride: models.SideBride,
	IDSideBoth:  models.SideBoth,
}

// RSVPCountID returns the interaction id for a head-count choice
func RSVPCountID(n int) string {
	return fmt.Sprintf("%s%d", IDRSVPCountPrefix, n)
}

// parseRSVPCount extracts the head-count from an RSVP_COUNT_n id
func parseRSVPCount(id string) (int, bool) {
	if !strings.HasPrefix(id, IDRSVPCountPrefix) {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimPrefix(id, IDRSVPCountPrefix), "%d", &n); err != nil {
		return 0, false
	}
	if n < 1 || n > models.MaxHeadCount || RSVPCountID(n) != id {
		return 0, false
	}
	return n, true
}

var (
	optOutCommands = map[string]bool{"STOP": true, "UNSUBSCRIBE": true, "STOP ALL": true, "OPT OUT": true}
	optInCommands  = map[string]bool{"START": true, "SUBSCRIBE": true, "UNSTOP": true, "OPT IN": true}
)

func command(text string) string {
	return strings.ToUpper(strings.Join(strings.Fields(text), " "))
}
