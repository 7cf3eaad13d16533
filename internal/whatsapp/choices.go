package whatsapp

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prastut/wedding-jarvis-sub000/internal/message"
)

// ChoiceMemory remembers the options last offered to each recipient so that
// a numeric text reply on the linked-device transport can be mapped back to
// the option id a button tap would have carried.
type ChoiceMemory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	choices map[string]offered
}

type offered struct {
	ids []string
	at  time.Time
}

// NewChoiceMemory creates a memory whose entries expire after ttl (0 keeps them forever)
func NewChoiceMemory(ttl time.Duration) *ChoiceMemory {
	return &ChoiceMemory{
		ttl:     ttl,
		now:     time.Now,
		choices: make(map[string]offered),
	}
}

// Remember records the options of msg for phone. Messages without options clear the entry.
func (c *ChoiceMemory) Remember(phone string, msg message.Message) {
	opts := msg.Options()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(opts) == 0 {
		delete(c.choices, phone)
		return
	}
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	c.choices[phone] = offered{ids: ids, at: c.now()}
}

// Resolve maps a reply such as "2" to the id of the second remembered option
func (c *ChoiceMemory) Resolve(phone, text string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.choices[phone]
	if !ok {
		return "", false
	}
	if c.ttl > 0 && c.now().Sub(o.at) > c.ttl {
		delete(c.choices, phone)
		return "", false
	}
	if n < 1 || n > len(o.ids) {
		return "", false
	}
	return o.ids[n-1], true
}
