package scheduler

import (
	"sync"
	"time"

	"github.com/Arletteportilla/PoliGer/models"
)

// AckTracker keeps per-record dismissal state for one user session.
// It is the pending overlay on top of the server's read/unread flags:
// a locally dismissed record stays suppressed until the next refresh
// confirms the dismissal server-side (or the grace window expires and
// the server still reports the record unread, in which case it comes
// back).
type AckTracker struct {
	mu      sync.Mutex
	entries map[int]models.AcknowledgmentEntry
}

func NewAckTracker() *AckTracker {
	return &AckTracker{entries: make(map[int]models.AcknowledgmentEntry)}
}

// Acknowledge marks a record dismissed at the given time.
func (t *AckTracker) Acknowledge(id int, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = models.AcknowledgmentEntry{RecordID: id, AcknowledgedAt: at}
}

// Suppressed reports whether the record's reminder should be held
// back: an acknowledgment exists and is younger than the grace
// window. An entry older than the grace window no longer suppresses;
// the refresh cycle's source of truth wins from then on.
func (t *AckTracker) Suppressed(id int, now time.Time, grace time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[id]
	if !ok {
		return false
	}
	return now.Sub(entry.AcknowledgedAt) < grace
}

// Clear removes the suppression for one record (explicit re-open, or
// the server reported it unread again after the grace window).
func (t *AckTracker) Clear(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Reconcile drops every entry whose record the server no longer
// reports as unresolved: either the dismissal was confirmed or the
// record finalized, and in both cases no further suppression is
// needed.
func (t *AckTracker) Reconcile(unresolved map[int]bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.entries {
		if !unresolved[id] {
			delete(t.entries, id)
		}
	}
}

// Entries returns a snapshot of the current acknowledgments.
func (t *AckTracker) Entries() []models.AcknowledgmentEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.AcknowledgmentEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}
