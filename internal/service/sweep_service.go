package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskify/internal/lock"
	"taskify/internal/model"
	"taskify/internal/timeutil"
)

// OverdueSummaryID addresses the aggregate overdue notification. Stored task ids start at 1.
const OverdueSummaryID = 0

const overdueSummaryTitle = "Pending Tasks"

// Trigger says what started a sweep.
type Trigger int

const (
	// TriggerTimer is the daily alarm or boot.
	TriggerTimer Trigger = iota
	// TriggerManual is a "check now" request.
	TriggerManual
)

// SweepResult describes what a sweep found.
type SweepResult struct {
	Overdue []model.Task
	Skipped bool
}

// SweepService notifies about incomplete, reminder-enabled tasks dated before today.
type SweepService struct {
	tasks     TaskStore
	scheduler *ReminderScheduler
	guard     lock.SweepGuard
	clock     timeutil.Clock
	loc       *time.Location
}

func NewSweepService(tasks TaskStore, scheduler *ReminderScheduler, guard lock.SweepGuard, clock timeutil.Clock, loc *time.Location) *SweepService {
	if guard == nil {
		guard = lock.NopGuard{}
	}
	return &SweepService{tasks: tasks, scheduler: scheduler, guard: guard, clock: clock, loc: loc}
}

// Run sweeps once and always re-arms the next daily sweep, even when the query fails.
func (s *SweepService) Run(ctx context.Context, trigger Trigger) (SweepResult, error) {
	defer s.rearm()

	now := s.clock.Now()
	if trigger == TriggerTimer {
		day := timeutil.InstantToCalendarDate(now, s.loc)
		granted, err := s.guard.AcquireDay(ctx, day)
		switch {
		case err != nil:
			log.Printf("[warn] sweep guard: %v, sweeping anyway", err)
		case !granted:
			log.Printf("[info] sweep for %s already handled elsewhere", day)
			return SweepResult{Skipped: true}, nil
		}
	}

	today := timeutil.StartOfDay(now, s.loc)
	overdue, err := s.tasks.ListOverdue(ctx, today)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep overdue tasks: %w", err)
	}
	log.Printf("[info] overdue sweep for %s found %d task(s)", timeutil.StoredDate(today), len(overdue))

	switch len(overdue) {
	case 0:
	case 1:
		task := overdue[0]
		s.scheduler.Notify(ctx, task.ID, task.Title, task.Description)
	default:
		s.scheduler.Notify(ctx, OverdueSummaryID, overdueSummaryTitle, OverdueSummaryBody(len(overdue)))
	}
	return SweepResult{Overdue: overdue}, nil
}

// HandleTimer is the daily alarm entry point. Failures are logged only.
func (s *SweepService) HandleTimer(ctx context.Context) {
	if _, err := s.Run(ctx, TriggerTimer); err != nil {
		log.Printf("[warn] daily sweep: %v", err)
	}
}

func (s *SweepService) rearm() {
	if err := s.scheduler.ScheduleDailySweep(); err != nil {
		log.Printf("[warn] re-arm daily sweep: %v", err)
	}
}

func OverdueSummaryBody(count int) string {
	return fmt.Sprintf("You have %d overdue tasks!", count)
}
