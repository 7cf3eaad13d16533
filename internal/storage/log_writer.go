package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prastut/wedding-jarvis-sub000/internal/models"
)

// MessageAppender is the part of the store the log writer needs
type MessageAppender interface {
	AppendMessage(ctx context.Context, m *models.MessageLog) error
}

// LogWriter appends delivery-log entries on a single background goroutine.
// Callers never wait for the write, and entries are written in enqueue order.
type LogWriter struct {
	store   MessageAppender
	entries chan models.MessageLog
	done    chan struct{}
	log     zerolog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewLogWriter starts a writer with the given queue size
func NewLogWriter(store MessageAppender, buffer int, log zerolog.Logger) *LogWriter {
	if buffer <= 0 {
		buffer = 256
	}
	w := &LogWriter{
		store:   store,
		entries: make(chan models.MessageLog, buffer),
		done:    make(chan struct{}),
		log:     log,
		timeout: 5 * time.Second,
	}
	go w.run()
	return w
}

// Enqueue schedules an entry for writing and returns its id.
// Entries enqueued after Close are dropped with a warning.
func (w *LogWriter) Enqueue(entry models.MessageLog) string {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.log.Warn().Str("phone", entry.PhoneNumber).Msg("Log writer closed, dropping entry")
		return entry.ID
	}
	w.entries <- entry
	return entry.ID
}

// Close stops accepting entries and waits until the queue is drained
func (w *LogWriter) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entries)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *LogWriter) run() {
	defer close(w.done)
	for entry := range w.entries {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := w.store.AppendMessage(ctx, &entry); err != nil {
			w.log.Error().Err(err).
				Str("phone", entry.PhoneNumber).
				Str("direction", string(entry.Direction)).
				Msg("Failed to write message log")
		}
		cancel()
	}
}
