// Package eventlog keeps the human-readable, newest-first record of ledger
// transactions.
package eventlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"credentia/internal/platform/clock"
)

// DefaultCapacity bounds how many entries are retained in memory.
const DefaultCapacity = 1000

// DisplayLayout is the wall-clock format shown next to each entry.
const DisplayLayout = "15:04:05"

// Severity classifies an entry for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Entry is one immutable log line.
type Entry struct {
	Time     time.Time `json:"time"`
	Display  string    `json:"display"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// Archiver receives every recorded entry, including the ones later evicted
// from memory.
type Archiver interface {
	Archive(ctx context.Context, entry Entry) error
}

// Log is an in-memory event log. Entries are kept newest first and the oldest
// ones fall off once capacity is reached.
//
// Thread-safety: all methods are safe for concurrent use.
type Log struct {
	mu          sync.RWMutex
	entries     []Entry
	capacity    int
	clock       clock.Clock
	archiver    Archiver
	logger      *slog.Logger
	subscribers map[int]chan Entry
	nextSub     int
}

// Option configures a Log.
type Option func(*Log)

// WithCapacity caps retained entries. Non-positive values keep the default.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithClock sets the clock used to stamp entries.
func WithClock(c clock.Clock) Option {
	return func(l *Log) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithArchiver forwards every entry to a.
func WithArchiver(a Archiver) Option {
	return func(l *Log) {
		l.archiver = a
	}
}

// WithLogger sets the logger used to report archive failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		capacity:    DefaultCapacity,
		clock:       clock.New(),
		logger:      slog.Default(),
		subscribers: make(map[int]chan Entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record stamps and prepends a new entry, then fans it out to subscribers and
// the archiver. Archive failures are logged and otherwise ignored.
//
// The stamp is taken under the lock, so newest-first order agrees with Time.
func (l *Log) Record(ctx context.Context, message string, severity Severity) Entry {
	l.mu.Lock()
	now := l.clock.Now()
	entry := Entry{
		Time:     now,
		Display:  now.Format(DisplayLayout),
		Message:  message,
		Severity: severity,
	}
	l.entries = append(l.entries, Entry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
			// slow subscriber; drop rather than block the ledger
		}
	}
	archiver := l.archiver
	l.mu.Unlock()

	if archiver != nil {
		if err := archiver.Archive(ctx, entry); err != nil {
			l.logger.WarnContext(ctx, "failed to archive event log entry",
				"message", entry.Message,
				"error", err,
			)
		}
	}
	return entry
}

// Info records an informational entry.
func (l *Log) Info(ctx context.Context, message string) Entry {
	return l.Record(ctx, message, SeverityInfo)
}

// Success records a success entry.
func (l *Log) Success(ctx context.Context, message string) Entry {
	return l.Record(ctx, message, SeveritySuccess)
}

// Error records an error entry.
func (l *Log) Error(ctx context.Context, message string) Entry {
	return l.Record(ctx, message, SeverityError)
}

// Entries returns a newest-first copy of the retained entries.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Subscribe returns a channel that receives entries recorded after the call.
// The cancel func unregisters and closes the channel; it is safe to call twice.
func (l *Log) Subscribe(buffer int) (<-chan Entry, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Entry, buffer)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subscribers[id] = ch
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subscribers, id)
			l.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
