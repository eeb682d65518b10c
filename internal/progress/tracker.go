package progress

import (
	"sync"

	"github.com/handiism/suno-downloader/internal/model"
)

// Tracker converts status transitions of one run into progress events.
//
// Progress is ceil(completed / total * 100), so values never decrease and
// the last terminal transition yields 100.
type Tracker struct {
	pub     Publisher
	session string
	total   int

	mu        sync.Mutex
	completed int
	done      bool
}

// NewTracker creates a Tracker for a run of total tracks reporting to
// session.
func NewTracker(pub Publisher, session string, total int) *Tracker {
	return &Tracker{
		pub:     pub,
		session: session,
		total:   total,
	}
}

// OnStatusChange records a transition. Only terminal statuses advance
// progress.
func (t *Tracker) OnStatusChange(trackID string, status model.ClipStatus) {
	if !status.IsTerminal() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done || t.completed >= t.total {
		return
	}
	t.completed++

	ev := Event{
		Progress:      percent(t.completed, t.total),
		CompletedItem: trackID,
		Status:        status.String(),
		Done:          t.completed == t.total,
	}
	t.done = ev.Done
	t.pub.Publish(t.session, ev)
}

// Finish sends the final event if the run ended before every track
// completed, e.g. after a setup error. It is a no-op after the final event.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return
	}
	t.done = true
	t.pub.Publish(t.session, Event{Progress: 100, Done: true})
}

// Progress returns the last computed percentage.
func (t *Tracker) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return 100
	}
	return percent(t.completed, t.total)
}

func percent(completed, total int) int {
	if total <= 0 {
		return 100
	}
	return (completed*100 + total - 1) / total
}
