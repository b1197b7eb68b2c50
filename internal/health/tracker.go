// Package health tracks per-model failure state shared by all in-flight
// requests. A model that accumulates threshold consecutive errors is
// disabled until a success or an administrative reset.
package health

import (
	"context"
	"sync"
	"time"
)

const DefaultErrorThreshold = 3

// Event is a single health state change, offered to an optional journal.
type Event struct {
	Model  string
	Kind   string // "success" or "failure"
	Detail string
	At     time.Time
}

// Journal receives health events for persistence. Implementations must be
// safe for concurrent use.
type Journal interface {
	Record(ctx context.Context, ev Event) error
}

type record struct {
	errors    int
	successes int
	disabled  bool
	lastError time.Time
}

// Tracker is the process-wide health table. Construct one per process (or
// per test); state lives only for the process lifetime.
type Tracker struct {
	mu        sync.Mutex
	records   map[string]*record
	threshold int

	journal Journal
	events  chan Event
	drained chan struct{}
}

type TrackerOption func(*Tracker)

func WithJournal(j Journal) TrackerOption {
	return func(t *Tracker) { t.journal = j }
}

func NewTracker(threshold int, opts ...TrackerOption) *Tracker {
	if threshold <= 0 {
		threshold = DefaultErrorThreshold
	}
	t := &Tracker{
		records:   make(map[string]*record),
		threshold: threshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.journal != nil {
		t.events = make(chan Event, journalBuffer)
		t.drained = make(chan struct{})
		go t.writeLoop()
	}
	return t
}

const journalBuffer = 256

// writeLoop is the single journal writer; it keeps journal latency off
// the request path.
func (t *Tracker) writeLoop() {
	defer close(t.drained)
	for ev := range t.events {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = t.journal.Record(ctx, ev)
		cancel()
	}
}

// Close flushes queued journal events and stops the writer. Call after
// the last Record; no-op without a journal.
func (t *Tracker) Close() {
	if t.events == nil {
		return
	}
	close(t.events)
	<-t.drained
}

// RecordSuccess resets the model's consecutive error counter and clears
// its disabled flag. Idempotent.
func (t *Tracker) RecordSuccess(modelID string) {
	t.mu.Lock()
	r := t.get(modelID)
	r.errors = 0
	r.disabled = false
	r.successes++
	t.mu.Unlock()

	t.emit(modelID, "success", "")
}

// RecordFailure increments the model's consecutive error counter and
// disables the model once the counter reaches the threshold.
func (t *Tracker) RecordFailure(modelID, detail string) {
	t.mu.Lock()
	r := t.get(modelID)
	r.errors++
	r.lastError = time.Now()
	if r.errors >= t.threshold {
		r.disabled = true
	}
	t.mu.Unlock()

	t.emit(modelID, "failure", detail)
}

// IsAvailable reports whether the model may be tried. Unknown models are
// available.
func (t *Tracker) IsAvailable(modelID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[modelID]
	if !ok {
		return true
	}
	return !r.disabled
}

// Reset clears the counters and disabled flag for one model.
func (t *Tracker) Reset(modelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, modelID)
}

// ResetAll clears all health state.
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = make(map[string]*record)
}

// ModelHealth is a read-only view of one model's state.
type ModelHealth struct {
	Errors    int       `json:"errors"`
	Successes int       `json:"successes"`
	Disabled  bool      `json:"disabled"`
	LastError time.Time `json:"last_error,omitzero"`
}

// Summary is the aggregate view served by /health.
type Summary struct {
	Tracked  int                    `json:"tracked"`
	Disabled int                    `json:"disabled"`
	Models   map[string]ModelHealth `json:"models,omitempty"`
}

// Snapshot returns a copy of the current health table.
func (t *Tracker) Snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		Tracked: len(t.records),
		Models:  make(map[string]ModelHealth, len(t.records)),
	}
	for id, r := range t.records {
		if r.disabled {
			s.Disabled++
		}
		s.Models[id] = ModelHealth{
			Errors:    r.errors,
			Successes: r.successes,
			Disabled:  r.disabled,
			LastError: r.lastError,
		}
	}
	return s
}

// get returns the record for modelID, creating it if needed. Callers hold t.mu.
func (t *Tracker) get(modelID string) *record {
	r, ok := t.records[modelID]
	if !ok {
		r = &record{}
		t.records[modelID] = r
	}
	return r
}

func (t *Tracker) emit(modelID, kind, detail string) {
	if t.events == nil {
		return
	}
	select {
	case t.events <- Event{Model: modelID, Kind: kind, Detail: detail, At: time.Now()}:
	default:
		// Full buffer: drop the event rather than stall the request.
	}
}
