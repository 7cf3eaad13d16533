// Package content holds the read-only wedding reference data shown from the
// guest menu: schedule, venues, dress codes, FAQs, contacts and gift notes.
package content

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prastut/wedding-jarvis-sub000/internal/i18n"
	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// Event is one function of the wedding
type Event struct {
	ID        string      `yaml:"id"`
	Side      models.Side `yaml:"side"`
	Name      i18n.Text   `yaml:"name"`
	StartsAt  time.Time   `yaml:"starts_at"`
	When      i18n.Text   `yaml:"when"`
	VenueID   string      `yaml:"venue"`
	DressCode i18n.Text   `yaml:"dress_code"`
}

// Venue is a location used by one or more events
type Venue struct {
	ID      string      `yaml:"id"`
	Side    models.Side `yaml:"side"`
	Name    i18n.Text   `yaml:"name"`
	Address i18n.Text   `yaml:"address"`
	MapsURL string      `yaml:"maps_url"`
	Parking i18n.Text   `yaml:"parking"`
}

// FAQ is a question and its answer
type FAQ struct {
	Side     models.Side `yaml:"side"`
	Question i18n.Text   `yaml:"question"`
	Answer   i18n.Text   `yaml:"answer"`
}

// Contact is a person guests can call
type Contact struct {
	Side  models.Side `yaml:"side"`
	Name  string      `yaml:"name"`
	Role  i18n.Text   `yaml:"role"`
	Phone string      `yaml:"phone"`
}

// Gift is a note about gifts or registries
type Gift struct {
	Side models.Side `yaml:"side"`
	Note i18n.Text   `yaml:"note"`
}

// Catalog is the full set of reference data
type Catalog struct {
	Events   []Event                `yaml:"events"`
	Venues   []Venue                `yaml:"venues"`
	FAQs     []FAQ                  `yaml:"faqs"`
	Contacts []Contact              `yaml:"contacts"`
	Gifts    []Gift                 `yaml:"gifts"`
	Menu     map[string]models.Side `yaml:"menu"`
}

// Load reads a catalog from a YAML file. A missing file yields an empty catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{}, nil
		}
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content: %w", err)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// Entries without a side are shared by both sides
func (c *Catalog) normalize() error {
	fix := func(s *models.Side, what string, i int) error {
		if *s == "" {
			*s = models.SideBoth
		}
		if !s.Valid() {
			return fmt.Errorf("%s %d: unknown side %q", what, i, *s)
		}
		return nil
	}
	for i := range c.Events {
		if err := fix(&c.Events[i].Side, "event", i); err != nil {
			return err
		}
	}
	for i := range c.Venues {
		if err := fix(&c.Venues[i].Side, "venue", i); err != nil {
			return err
		}
	}
	for i := range c.FAQs {
		if err := fix(&c.FAQs[i].Side, "faq", i); err != nil {
			return err
		}
	}
	for i := range c.Contacts {
		if err := fix(&c.Contacts[i].Side, "contact", i); err != nil {
			return err
		}
	}
	for i := range c.Gifts {
		if err := fix(&c.Gifts[i].Side, "gift", i); err != nil {
			return err
		}
	}
	for item, side := range c.Menu {
		if !side.Valid() {
			return fmt.Errorf("menu item %s: unknown side %q", item, side)
		}
	}
	sort.SliceStable(c.Events, func(i, j int) bool {
		return c.Events[i].StartsAt.Before(c.Events[j].StartsAt)
	})
	return nil
}

// ScheduleFor returns the events visible to side in chronological order
func (c *Catalog) ScheduleFor(side models.Side) []Event {
	var out []Event
	for _, e := range c.Events {
		if e.Side.Includes(side) {
			out = append(out, e)
		}
	}
	return out
}

// DressCodesFor returns visible events that carry a dress code
func (c *Catalog) DressCodesFor(side models.Side) []Event {
	var out []Event
	for _, e := range c.ScheduleFor(side) {
		if !e.DressCode.Empty() {
			out = append(out, e)
		}
	}
	return out
}

// VenuesFor returns the venues visible to side
func (c *Catalog) VenuesFor(side models.Side) []Venue {
	var out []Venue
	for _, v := range c.Venues {
		if v.Side.Includes(side) {
			out = append(out, v)
		}
	}
	return out
}

// Venue looks a venue up by id
func (c *Catalog) Venue(id string) (Venue, bool) {
	for _, v := range c.Venues {
		if v.ID == id {
			return v, true
		}
	}
	return Venue{}, false
}

func (c *Catalog) FAQsFor(side models.Side) []FAQ {
	var out []FAQ
	for _, f := range c.FAQs {
		if f.Side.Includes(side) {
			out = append(out, f)
		}
	}
	return out
}

func (c *Catalog) ContactsFor(side models.Side) []Contact {
	var out []Contact
	for _, ct := range c.Contacts {
		if ct.Side.Includes(side) {
			out = append(out, ct)
		}
	}
	return out
}

func (c *Catalog) GiftsFor(side models.Side) []Gift {
	var out []Gift
	for _, g := range c.Gifts {
		if g.Side.Includes(side) {
			out = append(out, g)
		}
	}
	return out
}

// MenuVisible reports whether menu item is shown to side. Items default to both sides.
func (c *Catalog) MenuVisible(item string, side models.Side) bool {
	tag, ok := c.Menu[item]
	if !ok {
		return true
	}
	return tag.Includes(side)
}
