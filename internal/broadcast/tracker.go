package broadcast

import (
	"sync"
	"time"

	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// Progress is a point-in-time view of a dispatch
type Progress struct {
	BroadcastID string                 `json:"broadcast_id"`
	Status      models.BroadcastStatus `json:"status"`
	Total       int                    `json:"total"`
	Sent        int                    `json:"sent"`
	Failed      int                    `json:"failed"`
	Errors      []string               `json:"errors,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  *time.Time             `json:"finished_at,omitempty"`
}

// Done reports whether the dispatch reached a final status
func (p Progress) Done() bool {
	return p.FinishedAt != nil
}

// Tracker is an Observer that keeps the progress of every dispatch it has seen
type Tracker struct {
	mu       sync.RWMutex
	progress map[string]*Progress
	now      func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		progress: make(map[string]*Progress),
		now:      time.Now,
	}
}

func (t *Tracker) Started(id string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress[id] = &Progress{
		BroadcastID: id,
		Status:      models.BroadcastSending,
		Total:       total,
		StartedAt:   t.now().UTC(),
	}
}

func (t *Tracker) Delivered(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.progress[o.BroadcastID]
	if !ok {
		return
	}
	if o.OK() {
		p.Sent++
		return
	}
	p.Failed++
	if len(p.Errors) < MaxErrors {
		p.Errors = append(p.Errors, o.PhoneNumber+": "+o.Err.Error())
	}
}

func (t *Tracker) Finished(id string, res Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.progress[id]
	if !ok {
		return
	}
	finished := t.now().UTC()
	p.Status = res.Status
	p.Sent = res.Sent
	p.Failed = res.Failed
	p.FinishedAt = &finished
}

// Get returns a copy of the progress for id
func (t *Tracker) Get(id string) (Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.progress[id]
	if !ok {
		return Progress{}, false
	}
	out := *p
	out.Errors = append([]string(nil), p.Errors...)
	return out, true
}
