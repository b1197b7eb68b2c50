package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerDisablesAtThreshold(t *testing.T) {
	tracker := NewTracker(3)

	tracker.RecordFailure("m", "err 1")
	assert.True(t, tracker.IsAvailable("m"))
	tracker.RecordFailure("m", "err 2")
	assert.True(t, tracker.IsAvailable("m"))
	tracker.RecordFailure("m", "err 3")
	assert.False(t, tracker.IsAvailable("m"))
}

func TestTrackerSuccessResetsCounter(t *testing.T) {
	tracker := NewTracker(3)

	tracker.RecordFailure("m", "err")
	tracker.RecordFailure("m", "err")
	tracker.RecordSuccess("m")

	// Two more failures must not disable: consecutive means consecutive.
	tracker.RecordFailure("m", "err")
	tracker.RecordFailure("m", "err")
	assert.True(t, tracker.IsAvailable("m"))

	tracker.RecordFailure("m", "err")
	assert.False(t, tracker.IsAvailable("m"))
}

func TestTrackerSuccessReenablesDisabledModel(t *testing.T) {
	tracker := NewTracker(1)

	tracker.RecordFailure("m", "err")
	require.False(t, tracker.IsAvailable("m"))

	tracker.RecordSuccess("m")
	assert.True(t, tracker.IsAvailable("m"))
}

func TestTrackerUnknownModelIsAvailable(t *testing.T) {
	tracker := NewTracker(3)
	assert.True(t, tracker.IsAvailable("never-seen"))
}

func TestTrackerResetSingleModel(t *testing.T) {
	tracker := NewTracker(1)
	tracker.RecordFailure("a", "err")
	tracker.RecordFailure("b", "err")

	tracker.Reset("a")

	assert.True(t, tracker.IsAvailable("a"))
	assert.False(t, tracker.IsAvailable("b"))
}

func TestTrackerResetAll(t *testing.T) {
	tracker := NewTracker(1)
	tracker.RecordFailure("a", "err")
	tracker.RecordFailure("b", "err")

	tracker.ResetAll()

	assert.True(t, tracker.IsAvailable("a"))
	assert.True(t, tracker.IsAvailable("b"))
	assert.Equal(t, 0, tracker.Snapshot().Tracked)
}

func TestTrackerSnapshot(t *testing.T) {
	tracker := NewTracker(2)
	tracker.RecordSuccess("healthy")
	tracker.RecordFailure("flaky", "err")
	tracker.RecordFailure("dead", "err")
	tracker.RecordFailure("dead", "err")

	s := tracker.Snapshot()
	assert.Equal(t, 3, s.Tracked)
	assert.Equal(t, 1, s.Disabled)
	assert.Equal(t, 1, s.Models["healthy"].Successes)
	assert.Equal(t, 1, s.Models["flaky"].Errors)
	assert.True(t, s.Models["dead"].Disabled)
	assert.False(t, s.Models["flaky"].LastError.IsZero())
}

func TestTrackerZeroThresholdUsesDefault(t *testing.T) {
	tracker := NewTracker(0)
	for i := 0; i < DefaultErrorThreshold-1; i++ {
		tracker.RecordFailure("m", "err")
	}
	assert.True(t, tracker.IsAvailable("m"))
	tracker.RecordFailure("m", "err")
	assert.False(t, tracker.IsAvailable("m"))
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tracker := NewTracker(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tracker.RecordFailure("shared", "err")
				tracker.IsAvailable("shared")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, tracker.Snapshot().Models["shared"].Errors)
}

type captureJournal struct {
	mu     sync.Mutex
	events []Event
}

func (j *captureJournal) Record(ctx context.Context, ev Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
	return nil
}

func (j *captureJournal) snapshot() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Event(nil), j.events...)
}

func TestTrackerJournalsEvents(t *testing.T) {
	journal := &captureJournal{}
	tracker := NewTracker(3, WithJournal(journal))

	tracker.RecordFailure("m", "upstream 429")
	tracker.RecordSuccess("m")

	// Journal writes are asynchronous.
	require.Eventually(t, func() bool {
		return len(journal.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)

	events := journal.snapshot()
	kinds := map[string]bool{}
	for _, ev := range events {
		assert.Equal(t, "m", ev.Model)
		kinds[ev.Kind] = true
	}
	assert.True(t, kinds["failure"])
	assert.True(t, kinds["success"])
}

func TestTrackerCloseFlushesJournal(t *testing.T) {
	journal := &captureJournal{}
	tracker := NewTracker(3, WithJournal(journal))

	for i := 0; i < 20; i++ {
		tracker.RecordFailure("m", "err")
	}
	tracker.Close()

	// After Close every queued event has been written.
	assert.Len(t, journal.snapshot(), 20)
}

func TestTrackerCloseWithoutJournal(t *testing.T) {
	tracker := NewTracker(3)
	tracker.RecordFailure("m", "err")
	tracker.Close()
}
