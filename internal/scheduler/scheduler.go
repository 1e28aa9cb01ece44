// Package scheduler resurfaces unresolved breeding records to the
// user on a fixed cadence, without duplicate or missed notifications,
// for the lifetime of one user session.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Arletteportilla/PoliGer/internal/lifecycle"
	"github.com/Arletteportilla/PoliGer/models"
)

// Options tunes the scheduling cadence. Zero values fall back to the
// defaults below.
type Options struct {
	// RefreshInterval is the cadence of the unresolved-set refresh.
	RefreshInterval time.Duration
	// ReopenCheckInterval is the cadence of the re-nag check; the
	// check itself only fires once RenagAfter has elapsed since the
	// surface was last auto-opened.
	ReopenCheckInterval time.Duration
	// SurfaceDelay postpones the very first surfacing slightly so it
	// does not land in the middle of the initial screen mount.
	SurfaceDelay time.Duration
	RenagAfter   time.Duration
	Clock        Clock
}

const (
	defaultRefreshInterval     = 15 * time.Second
	defaultReopenCheckInterval = 60 * time.Second
	defaultSurfaceDelay        = 1200 * time.Millisecond
	defaultRenagAfter          = time.Hour
)

// Scheduler owns the live set of unresolved records and decides when
// to push them to the notification surface. One instance per user
// session; all shared state lives behind its mutex and nothing else
// mutates it.
type Scheduler struct {
	store   models.RecordStore
	surface models.NotificationSurface
	tracker *AckTracker
	clock   Clock
	opts    Options
	logger  zerolog.Logger

	mu             sync.Mutex
	alerts         map[int]models.Record
	lastAutoOpen   time.Time
	surfaced       bool
	refreshing     bool
	pendingSurface Timer

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New creates a scheduler with constructor-injected collaborators.
// Call Start to begin the timers and Stop when the session ends.
func New(store models.RecordStore, surface models.NotificationSurface, opts Options) *Scheduler {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}
	if opts.ReopenCheckInterval <= 0 {
		opts.ReopenCheckInterval = defaultReopenCheckInterval
	}
	if opts.SurfaceDelay <= 0 {
		opts.SurfaceDelay = defaultSurfaceDelay
	}
	if opts.RenagAfter <= 0 {
		opts.RenagAfter = defaultRenagAfter
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}

	return &Scheduler{
		store:   store,
		surface: surface,
		tracker: NewAckTracker(),
		clock:   opts.Clock,
		opts:    opts,
		logger:  log.With().Str("component", "reminder_scheduler").Logger(),
		alerts:  make(map[int]models.Record),
		stop:    make(chan struct{}),
	}
}

// Start launches the refresh and re-open timers. An immediate first
// refresh runs before the first tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop cancels both timers and any pending delayed surfacing, then
// waits for the loop to exit. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()

	s.mu.Lock()
	if s.pendingSurface != nil {
		s.pendingSurface.Stop()
		s.pendingSurface = nil
	}
	s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	refresh := time.NewTicker(s.opts.RefreshInterval)
	defer refresh.Stop()
	reopen := time.NewTicker(s.opts.ReopenCheckInterval)
	defer reopen.Stop()

	s.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-refresh.C:
			s.refresh(ctx)
		case <-reopen.C:
			s.reopenCheck()
		}
	}
}

// refresh pulls the authoritative unresolved set and replaces the
// in-memory one wholesale. A failed fetch is logged and retried on
// the next tick, never propagated. The in-flight guard keeps a slow
// fetch from overlapping the next one.
func (s *Scheduler) refresh(ctx context.Context) {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	records, err := s.store.ListUnresolved(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Refresh failed, keeping previous reminder set")
		return
	}

	now := s.clock.Now()

	unresolved := make(map[int]bool, len(records))
	for _, rec := range records {
		unresolved[rec.ID] = true
	}
	s.tracker.Reconcile(unresolved)

	next := make(map[int]models.Record, len(records))
	for _, rec := range records {
		if s.tracker.Suppressed(rec.ID, now, s.opts.RefreshInterval) {
			continue
		}
		// Past the grace window the server's word stands: the record
		// is still unread, so the reminder comes back.
		s.tracker.Clear(rec.ID)
		next[rec.ID] = rec
	}

	s.mu.Lock()
	s.alerts = next

	if len(next) == 0 {
		s.lastAutoOpen = time.Time{}
		s.surfaced = false
		if s.pendingSurface != nil {
			s.pendingSurface.Stop()
			s.pendingSurface = nil
		}
		s.mu.Unlock()
		return
	}

	if s.lastAutoOpen.IsZero() {
		s.lastAutoOpen = now
		if s.pendingSurface == nil {
			s.pendingSurface = s.clock.AfterFunc(s.opts.SurfaceDelay, s.surfaceNow)
		}
	}
	s.mu.Unlock()

	s.logger.Debug().Int("unresolved", len(next)).Msg("Reminder set refreshed")
}

// reopenCheck re-surfaces the reminder set once RenagAfter has
// elapsed since the last auto-open, provided anything is still
// unresolved.
func (s *Scheduler) reopenCheck() {
	now := s.clock.Now()

	s.mu.Lock()
	due := len(s.alerts) > 0 && !s.lastAutoOpen.IsZero() && now.Sub(s.lastAutoOpen) >= s.opts.RenagAfter
	if due {
		s.lastAutoOpen = now
	}
	s.mu.Unlock()

	if due {
		s.surfaceNow()
	}
}

// surfaceNow pushes the current reminders to the surface. Idempotent:
// a surface that is already showing is not shown again.
func (s *Scheduler) surfaceNow() {
	s.mu.Lock()
	s.pendingSurface = nil
	if s.surfaced || len(s.alerts) == 0 {
		s.mu.Unlock()
		return
	}
	reminders := s.remindersLocked(s.clock.Now())
	s.surfaced = true
	s.mu.Unlock()

	if err := s.surface.Show(reminders); err != nil {
		s.logger.Error().Err(err).Msg("Failed to surface reminders")
		s.mu.Lock()
		s.surfaced = false
		s.mu.Unlock()
	}
}

// SurfaceClosed tells the scheduler the user closed the notification
// surface, so the next trigger may show it again.
func (s *Scheduler) SurfaceClosed() {
	s.mu.Lock()
	s.surfaced = false
	s.mu.Unlock()
}

// Reminders returns the current reminder projection, ordered by
// record id.
func (s *Scheduler) Reminders() []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remindersLocked(s.clock.Now())
}

func (s *Scheduler) remindersLocked(now time.Time) []models.Reminder {
	out := make([]models.Reminder, 0, len(s.alerts))
	for id, rec := range s.alerts {
		out = append(out, models.Reminder{
			RecordID:  id,
			Record:    rec,
			RaisedAt:  now,
			DaysSince: int(now.Sub(rec.StartDate).Hours() / 24),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// Dismiss acknowledges one record's reminder. The in-memory set is
// updated immediately; the server-side mark-as-read is best effort
// and the next refresh reconciles.
func (s *Scheduler) Dismiss(ctx context.Context, id int) {
	now := s.clock.Now()

	s.mu.Lock()
	delete(s.alerts, id)
	s.tracker.Acknowledge(id, now)
	s.emptyCheckLocked()
	s.mu.Unlock()

	if err := s.store.MarkAcknowledged(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int("record_id", id).Msg("Mark-as-read failed, will reconcile next refresh")
	}
}

// DismissAll acknowledges every current reminder. Each server-side
// mark is attempted independently: one failure never blocks the
// rest, and the in-memory set is cleared regardless.
func (s *Scheduler) DismissAll(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	ids := make([]int, 0, len(s.alerts))
	for id := range s.alerts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s.tracker.Acknowledge(id, now)
	}
	s.alerts = make(map[int]models.Record)
	s.emptyCheckLocked()
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.store.MarkAcknowledged(ctx, id); err != nil {
			s.logger.Warn().Err(err).Int("record_id", id).Msg("Mark-as-read failed during dismiss-all")
		}
	}
}

// MarkUnread clears a record's suppression so its reminder can come
// back on the next refresh.
func (s *Scheduler) MarkUnread(ctx context.Context, id int) error {
	s.tracker.Clear(id)
	if err := s.store.ClearAcknowledgment(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// AdvanceRecord moves a record's lifecycle forward from the reminder
// surface. Finalizing requires the caller to have collected the real
// outcome date first. Whatever the transition's outcome, the
// record's reminder is removed and an immediate refresh runs, so a
// failing record cannot pin a stuck reminder; the error is still
// returned for the UI to report.
func (s *Scheduler) AdvanceRecord(ctx context.Context, id int, target models.Status, outcomeDate *time.Time) error {
	if target == models.StatusFinalized && outcomeDate == nil {
		return &models.MissingOutcomeDateError{RecordID: id}
	}

	var transitionErr error

	s.mu.Lock()
	rec, known := s.alerts[id]
	s.mu.Unlock()
	if known {
		// Check legality locally before a round trip.
		local := rec
		transitionErr = lifecycle.Transition(&local, target, outcomeDate)
	}

	if transitionErr == nil {
		if _, err := s.store.ApplyTransition(ctx, id, target, outcomeDate); err != nil {
			transitionErr = err
		}
	}

	now := s.clock.Now()
	s.mu.Lock()
	delete(s.alerts, id)
	s.tracker.Acknowledge(id, now)
	s.emptyCheckLocked()
	s.mu.Unlock()

	s.refresh(ctx)

	if transitionErr != nil {
		s.logger.Error().Err(transitionErr).Int("record_id", id).Str("target", string(target)).
			Msg("Status change from reminder failed")
	}
	return transitionErr
}

// emptyCheckLocked resets session surfacing state once nothing is
// left to remind about. Caller holds s.mu.
func (s *Scheduler) emptyCheckLocked() {
	if len(s.alerts) != 0 {
		return
	}
	s.lastAutoOpen = time.Time{}
	s.surfaced = false
	if s.pendingSurface != nil {
		s.pendingSurface.Stop()
		s.pendingSurface = nil
	}
}
