package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Arletteportilla/PoliGer/models"
)

// fakeClock drives the scheduler's delayed surfacing by hand.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	f        func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return !t.fired
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// advance moves the clock and fires every due, unstopped timer.
func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.deadline.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

type fakeStore struct {
	mu          sync.Mutex
	unresolved  []models.Record
	listErr     error
	onList      func()
	marked      []int
	markErrs    map[int]error
	cleared     []int
	applied     []models.Status
	applyErr    error
	listCalls   int
	clearAckErr error
}

func (f *fakeStore) ListUnresolved(ctx context.Context) ([]models.Record, error) {
	f.mu.Lock()
	f.listCalls++
	onList := f.onList
	err := f.listErr
	out := append([]models.Record(nil), f.unresolved...)
	f.mu.Unlock()
	if onList != nil {
		onList()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeStore) GetRecord(ctx context.Context, id int) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.unresolved {
		if rec.ID == id {
			cp := rec
			return &cp, nil
		}
	}
	return nil, &models.TransportError{Op: "get record", Err: errors.New("not found")}
}

func (f *fakeStore) SaveRecord(ctx context.Context, rec *models.Record) error { return nil }

func (f *fakeStore) ApplyTransition(ctx context.Context, id int, target models.Status, outcomeDate *time.Time) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	f.applied = append(f.applied, target)
	for i := range f.unresolved {
		if f.unresolved[i].ID == id {
			f.unresolved[i].Status = target
			if target == models.StatusFinalized {
				f.unresolved = append(f.unresolved[:i], f.unresolved[i+1:]...)
			}
			break
		}
	}
	return &models.Record{ID: id, Status: target}, nil
}

func (f *fakeStore) SaveValidation(ctx context.Context, rec *models.Record) error { return nil }

func (f *fakeStore) MarkAcknowledged(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.markErrs[id]; ok {
		return err
	}
	f.marked = append(f.marked, id)
	// Server stops reporting a read record as unresolved.
	for i := range f.unresolved {
		if f.unresolved[i].ID == id {
			f.unresolved = append(f.unresolved[:i], f.unresolved[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) ClearAcknowledgment(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
	return f.clearAckErr
}

type fakeSurface struct {
	mu        sync.Mutex
	showCalls int
	last      []models.Reminder
	showErr   error
}

func (f *fakeSurface) Show(reminders []models.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.showErr != nil {
		return f.showErr
	}
	f.showCalls++
	f.last = reminders
	return nil
}

func (f *fakeSurface) Hide() {}

func (f *fakeSurface) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.showCalls
}

func unresolvedRecord(id int) models.Record {
	return models.Record{
		ID:        id,
		Type:      models.RecordPollination,
		Species:   "Vanda coerulea",
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:    models.StatusInProgress,
	}
}

func newTestScheduler(store *fakeStore, surface *fakeSurface, clock *fakeClock) *Scheduler {
	return New(store, surface, Options{
		RefreshInterval:     15 * time.Second,
		ReopenCheckInterval: 60 * time.Second,
		SurfaceDelay:        1200 * time.Millisecond,
		RenagAfter:          time.Hour,
		Clock:               clock,
	})
}

func TestEmptySetNeverSurfaces(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	clock.advance(5 * time.Second)
	s.reopenCheck()

	if surface.calls() != 0 {
		t.Errorf("Show called %d times on an empty set, want 0", surface.calls())
	}
}

func TestFirstAlertSurfacesOnceAfterDelay(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	if surface.calls() != 0 {
		t.Fatal("Show called before the surface delay elapsed")
	}

	clock.advance(1200 * time.Millisecond)
	if surface.calls() != 1 {
		t.Fatalf("Show called %d times after delay, want 1", surface.calls())
	}

	// Further refreshes and early re-open checks must not re-surface.
	s.refresh(context.Background())
	clock.advance(30 * time.Second)
	s.reopenCheck()
	if surface.calls() != 1 {
		t.Errorf("Show called %d times, want still 1", surface.calls())
	}
}

func TestSurfacingIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	clock.advance(2 * time.Second)

	// Direct re-triggers while shown are no-ops.
	s.surfaceNow()
	s.surfaceNow()
	if surface.calls() != 1 {
		t.Errorf("Show called %d times, want 1", surface.calls())
	}
}

func TestHourlyRenag(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	clock.advance(2 * time.Second)
	if surface.calls() != 1 {
		t.Fatalf("Show calls = %d, want 1", surface.calls())
	}
	s.SurfaceClosed()

	// Under an hour: nothing.
	clock.advance(30 * time.Minute)
	s.reopenCheck()
	if surface.calls() != 1 {
		t.Fatalf("Show calls = %d after 30min, want 1", surface.calls())
	}

	// Past the hour: surfaced again.
	clock.advance(31 * time.Minute)
	s.reopenCheck()
	if surface.calls() != 2 {
		t.Errorf("Show calls = %d after >1h, want 2", surface.calls())
	}
}

func TestEmptyThenNonEmptyTriggersAgain(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	clock.advance(2 * time.Second)
	if surface.calls() != 1 {
		t.Fatalf("Show calls = %d, want 1", surface.calls())
	}

	// Record resolved elsewhere: set drains, session state resets.
	store.mu.Lock()
	store.unresolved = nil
	store.mu.Unlock()
	s.refresh(context.Background())

	// A new unresolved record restarts the first-alert path.
	store.mu.Lock()
	store.unresolved = []models.Record{unresolvedRecord(2)}
	store.mu.Unlock()
	s.refresh(context.Background())
	clock.advance(2 * time.Second)

	if surface.calls() != 2 {
		t.Errorf("Show calls = %d, want 2", surface.calls())
	}
}

func TestPendingSurfaceCanceledWhenSetDrains(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())

	// The sole record resolves before the delayed surfacing fires.
	store.mu.Lock()
	store.unresolved = nil
	store.mu.Unlock()
	s.refresh(context.Background())

	clock.advance(5 * time.Second)
	if surface.calls() != 0 {
		t.Errorf("Show called %d times after pending surface should be canceled", surface.calls())
	}
}

func TestDismissIsOptimistic(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{
		unresolved: []models.Record{unresolvedRecord(1), unresolvedRecord(2)},
		markErrs:   map[int]error{1: &models.TransportError{Op: "mark read", Err: errors.New("timeout")}},
	}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	s.Dismiss(context.Background(), 1)

	// Removed locally even though the server call failed.
	if got := s.Reminders(); len(got) != 1 || got[0].RecordID != 2 {
		t.Fatalf("Reminders() = %v, want only record 2", got)
	}

	// Within the grace window the server's stale view does not bring
	// it back.
	s.refresh(context.Background())
	if got := s.Reminders(); len(got) != 1 {
		t.Fatalf("dismissed record re-added within grace window: %v", got)
	}

	// After the grace window the server still reports it unread, so
	// it returns.
	clock.advance(16 * time.Second)
	s.refresh(context.Background())
	if got := s.Reminders(); len(got) != 2 {
		t.Errorf("Reminders() = %v, want record 1 re-added after grace window", got)
	}
}

func TestDismissAllToleratesIndividualFailures(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{
		unresolved: []models.Record{unresolvedRecord(1), unresolvedRecord(2), unresolvedRecord(3)},
		markErrs:   map[int]error{2: &models.TransportError{Op: "mark read", Err: errors.New("boom")}},
	}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	s.DismissAll(context.Background())

	if got := s.Reminders(); len(got) != 0 {
		t.Errorf("Reminders() = %v, want empty after dismiss-all", got)
	}
	// Records 1 and 3 still got their server-side mark despite 2
	// failing.
	store.mu.Lock()
	marked := append([]int(nil), store.marked...)
	store.mu.Unlock()
	if len(marked) != 2 || marked[0] != 1 || marked[1] != 3 {
		t.Errorf("marked = %v, want [1 3]", marked)
	}
}

func TestAdvanceRecordFinalizeRequiresDate(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	err := s.AdvanceRecord(context.Background(), 1, models.StatusFinalized, nil)

	var missingErr *models.MissingOutcomeDateError
	if !errors.As(err, &missingErr) {
		t.Fatalf("AdvanceRecord() error = %v, want MissingOutcomeDateError", err)
	}
	// The reminder stays: the user must be re-prompted for the date.
	if got := s.Reminders(); len(got) != 1 {
		t.Errorf("Reminders() = %v, want record 1 still present", got)
	}
}

func TestAdvanceRecordRemovesReminderEvenOnFailure(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{
		unresolved: []models.Record{unresolvedRecord(1), unresolvedRecord(2)},
		applyErr:   &models.TransportError{Op: "apply transition", Err: errors.New("503")},
	}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	listCallsBefore := store.listCalls

	outcome := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	err := s.AdvanceRecord(context.Background(), 1, models.StatusFinalized, &outcome)
	if err == nil {
		t.Fatal("AdvanceRecord() = nil error, want transport failure surfaced")
	}

	for _, r := range s.Reminders() {
		if r.RecordID == 1 {
			t.Error("failing record still has a reminder; must be removed to avoid a stuck alert")
		}
	}
	store.mu.Lock()
	listCallsAfter := store.listCalls
	store.mu.Unlock()
	if listCallsAfter != listCallsBefore+1 {
		t.Errorf("refresh not forced after transition: list calls %d -> %d", listCallsBefore, listCallsAfter)
	}
}

func TestAdvanceRecordNonTerminal(t *testing.T) {
	clock := newFakeClock()
	rec := unresolvedRecord(1)
	rec.Status = models.StatusInitial
	store := &fakeStore{unresolved: []models.Record{rec}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	if err := s.AdvanceRecord(context.Background(), 1, models.StatusInProgress, nil); err != nil {
		t.Fatalf("AdvanceRecord() error: %v", err)
	}

	store.mu.Lock()
	applied := append([]models.Status(nil), store.applied...)
	store.mu.Unlock()
	if len(applied) != 1 || applied[0] != models.StatusInProgress {
		t.Errorf("applied transitions = %v, want [IN_PROGRESS]", applied)
	}
}

func TestRefreshInFlightGuard(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	// A reentrant refresh while one is outstanding must bail out
	// instead of overlapping.
	reentered := false
	store.onList = func() {
		if !reentered {
			reentered = true
			s.refresh(context.Background())
		}
	}
	s.refresh(context.Background())

	store.mu.Lock()
	calls := store.listCalls
	store.mu.Unlock()
	if calls != 1 {
		t.Errorf("ListUnresolved called %d times, want 1 (guard must stop the nested refresh)", calls)
	}
}

func TestRefreshFailureKeepsPreviousSet(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	store.mu.Lock()
	store.listErr = &models.TransportError{Op: "list unresolved", Err: errors.New("network down")}
	store.mu.Unlock()

	s.refresh(context.Background())
	if got := s.Reminders(); len(got) != 1 {
		t.Errorf("Reminders() = %v, want previous set kept on refresh failure", got)
	}
}

func TestMarkUnreadBringsReminderBack(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{unresolved: []models.Record{unresolvedRecord(1)}}
	surface := &fakeSurface{}
	s := newTestScheduler(store, surface, clock)

	s.refresh(context.Background())
	s.Dismiss(context.Background(), 1)

	// Server-side the record is read now; re-opening clears that and
	// the record must come back once the store reports it again.
	store.mu.Lock()
	store.unresolved = []models.Record{unresolvedRecord(1)}
	store.mu.Unlock()

	if err := s.MarkUnread(context.Background(), 1); err != nil {
		t.Fatalf("MarkUnread() error: %v", err)
	}
	if got := s.Reminders(); len(got) != 1 || got[0].RecordID != 1 {
		t.Errorf("Reminders() = %v, want record 1 back", got)
	}
}
