package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taskify/internal/timeutil"
)

// PurgeDelay is how long a completed task is kept before it is deleted.
const PurgeDelay = 30 * 24 * time.Hour

var (
	ErrInvalidTime         = errors.New("model: invalid task time")
	ErrInvalidPriority     = errors.New("model: invalid task priority")
	ErrInvalidReminderType = errors.New("model: invalid reminder type")
)

// Priority is ordered: NoPriority < Low < Medium < High. Values are persisted as ordinals.
type Priority int

const (
	NoPriority Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

var priorityNames = []string{"none", "low", "medium", "high"}

func (p Priority) IsValid() bool {
	return p >= NoPriority && p <= PriorityHigh
}

func (p Priority) String() string {
	if !p.IsValid() {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority accepts the names returned by String. An empty string is NoPriority.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return NoPriority, nil
	}
	for i, name := range priorityNames {
		if name == raw {
			return Priority(i), nil
		}
	}
	return NoPriority, fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
}

// ReminderType selects whether a reminder fires at the task's date+time.
type ReminderType int

const (
	ReminderNone ReminderType = iota
	ReminderOnTime
)

func (r ReminderType) IsValid() bool {
	return r == ReminderNone || r == ReminderOnTime
}

func (r ReminderType) String() string {
	switch r {
	case ReminderNone:
		return "none"
	case ReminderOnTime:
		return "on_time"
	default:
		return fmt.Sprintf("ReminderType(%d)", int(r))
	}
}

func ParseReminderType(raw string) (ReminderType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return ReminderNone, nil
	case "on_time", "ontime":
		return ReminderOnTime, nil
	default:
		return ReminderNone, fmt.Errorf("%w: %q", ErrInvalidReminderType, raw)
	}
}

// Task represents a single to-do item.
//
// Date is the UTC midnight of the chosen calendar day; Time is minutes since
// midnight. DeletionTime is set exactly when IsCompleted is true.
type Task struct {
	ID           int
	Title        string
	Description  string
	Date         *time.Time
	Time         *int
	ReminderType ReminderType
	Priority     Priority
	Tags         []string
	IsFavorite   bool
	IsCompleted  bool
	DeletionTime *time.Time
	IsCreated    bool
}

func (t Task) Validate() error {
	if t.Time != nil && (*t.Time < 0 || *t.Time >= timeutil.MinutesPerDay) {
		return fmt.Errorf("%w: %d", ErrInvalidTime, *t.Time)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, int(t.Priority))
	}
	if !t.ReminderType.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidReminderType, int(t.ReminderType))
	}
	if t.IsCompleted && t.DeletionTime == nil {
		return errors.New("model: deletion_time is required when task is completed")
	}
	if !t.IsCompleted && t.DeletionTime != nil {
		return errors.New("model: deletion_time must be nil when task is not completed")
	}
	return nil
}

// WantsReminder reports whether a reminder may be armed for the task.
func (t Task) WantsReminder() bool {
	return t.Date != nil && t.Time != nil && t.ReminderType == ReminderOnTime && !t.IsCompleted
}

// ReminderAt is the wall-clock fire instant of the task's reminder in loc.
// ok is false when the task carries no date or no time.
func (t Task) ReminderAt(loc *time.Location) (at time.Time, ok bool) {
	if t.Date == nil || t.Time == nil {
		return time.Time{}, false
	}
	return timeutil.DateTimeToInstant(*t.Date, *t.Time, loc), true
}

// IsOverdue reports an incomplete task dated before today.
func (t Task) IsOverdue(today time.Time) bool {
	return !t.IsCompleted && t.Date != nil && t.Date.Before(today)
}

// IsToday reports a task dated on today.
func (t Task) IsToday(today time.Time) bool {
	return t.Date != nil && t.Date.Equal(today)
}

// IsPlanned reports an incomplete task dated today or later.
func (t Task) IsPlanned(today time.Time) bool {
	return !t.IsCompleted && t.Date != nil && !t.Date.Before(today)
}

// IsPendingPurge reports a completed task whose purge deadline has passed.
func (t Task) IsPendingPurge(now time.Time) bool {
	return t.IsCompleted && t.DeletionTime != nil && !t.DeletionTime.After(now)
}

// NeedsOverdueReminder is the sweep predicate: incomplete, OnTime, dated before today.
func (t Task) NeedsOverdueReminder(today time.Time) bool {
	return t.ReminderType == ReminderOnTime && t.IsOverdue(today)
}

// NeedsRestoredReminder is the boot restoration predicate: incomplete, OnTime,
// timed and dated today or later.
func (t Task) NeedsRestoredReminder(today time.Time) bool {
	return t.ReminderType == ReminderOnTime && t.Time != nil && t.IsPlanned(today)
}

// Complete marks the task done and stamps its purge deadline.
func (t *Task) Complete(now time.Time) {
	deadline := now.Add(PurgeDelay)
	t.IsCompleted = true
	t.DeletionTime = &deadline
}

// Restore undoes Complete.
func (t *Task) Restore() {
	t.IsCompleted = false
	t.DeletionTime = nil
}

// DisplayTitle falls back to a placeholder for untitled tasks.
func (t Task) DisplayTitle() string {
	if title := strings.TrimSpace(t.Title); title != "" {
		return title
	}
	return "Untitled task"
}
