package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"taskify/internal/alarm"
	"taskify/internal/notification"
	"taskify/internal/timeutil"
)

const sweepKey = "daily-sweep"

func reminderKey(taskID int) string { return "reminder:" + strconv.Itoa(taskID) }

func purgeKey(taskID int) string { return "purge:" + strconv.Itoa(taskID) }

// ReminderScheduler arms and cancels per-task reminders, per-task purges and the
// global daily sweep. Reminders and purges live under disjoint keys so either can
// be cancelled without touching the other.
type ReminderScheduler struct {
	facility alarm.Facility
	notifier notification.Notifier
	clock    timeutil.Clock
	sweep    cron.Schedule

	onPurge func(ctx context.Context, taskID int)
	onSweep func(ctx context.Context)
}

// NewReminderScheduler builds a scheduler whose daily sweep fires at sweepTime (HH:MM) in loc.
func NewReminderScheduler(facility alarm.Facility, notifier notification.Notifier, clock timeutil.Clock, sweepTime string, loc *time.Location) (*ReminderScheduler, error) {
	spec, err := buildDailySpec(sweepTime)
	if err != nil {
		return nil, err
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse sweep spec: %w", err)
	}
	if s, ok := schedule.(*cron.SpecSchedule); ok {
		s.Location = loc
	}
	return &ReminderScheduler{
		facility: facility,
		notifier: notifier,
		clock:    clock,
		sweep:    schedule,
	}, nil
}

// ScheduleReminder arms a one-shot reminder for taskID, replacing any pending one.
// Fire instants at or before now arm nothing and drop any reminder still pending
// for taskID; the overdue sweep covers them.
func (s *ReminderScheduler) ScheduleReminder(taskID int, title, body string, at time.Time) error {
	if !at.After(s.clock.Now()) {
		log.Printf("[info] reminder for task %d at %s is in the past, skipped", taskID, at.Format(time.RFC3339))
		return s.facility.Cancel(reminderKey(taskID))
	}
	return s.facility.Arm(reminderKey(taskID), at, func(ctx context.Context) {
		s.deliver(ctx, taskID, title, body)
	})
}

func (s *ReminderScheduler) CancelReminder(taskID int) error {
	return s.facility.Cancel(reminderKey(taskID))
}

// ScheduleDailySweep arms the next sweep unless one is already pending.
func (s *ReminderScheduler) ScheduleDailySweep() error {
	at := s.NextSweep()
	armed, err := s.facility.ArmIfAbsent(sweepKey, at, func(ctx context.Context) {
		if s.onSweep != nil {
			s.onSweep(ctx)
		}
	})
	if err != nil {
		return err
	}
	if armed {
		log.Printf("[info] daily sweep armed for %s", at.Format(time.RFC3339))
	}
	return nil
}

func (s *ReminderScheduler) CancelDailySweep() error {
	return s.facility.Cancel(sweepKey)
}

// NextSweep is the first sweep time strictly after now.
func (s *ReminderScheduler) NextSweep() time.Time {
	return s.sweep.Next(s.clock.Now())
}

// SchedulePurge arms the deferred deletion of taskID at deadline.
func (s *ReminderScheduler) SchedulePurge(taskID int, deadline time.Time) error {
	return s.facility.Arm(purgeKey(taskID), deadline, func(ctx context.Context) {
		if s.onPurge != nil {
			s.onPurge(ctx, taskID)
		}
	})
}

func (s *ReminderScheduler) CancelPurge(taskID int) error {
	return s.facility.Cancel(purgeKey(taskID))
}

// Notify delivers a notification now. Permission denials are logged, not returned.
func (s *ReminderScheduler) Notify(ctx context.Context, id int, title, body string) {
	s.deliver(ctx, id, title, body)
}

func (s *ReminderScheduler) deliver(ctx context.Context, id int, title, body string) {
	err := s.notifier.Notify(ctx, id, title, body)
	switch {
	case err == nil:
	case errors.Is(err, notification.ErrPermissionDenied):
		log.Printf("[warn] notification %d not shown: %v (grant notification permission to receive reminders)", id, err)
	default:
		log.Printf("[warn] notification %d failed: %v", id, err)
	}
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
