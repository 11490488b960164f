package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"taskify/internal/alarm"
	"taskify/internal/lock"
	"taskify/internal/model"
	"taskify/internal/notification"
	"taskify/internal/repository"
	"taskify/internal/timeutil"
)

// Deps are the collaborators New wires together.
type Deps struct {
	Store     TaskStore
	Facility  alarm.Facility
	Notifier  notification.Notifier
	Guard     lock.SweepGuard
	Clock     timeutil.Clock
	Location  *time.Location
	SweepTime string
}

// TaskService is the entry point for every task use case: saving drafts,
// completion, deletion, views and restoring timers after a restart.
type TaskService struct {
	tasks     TaskStore
	scheduler *ReminderScheduler
	lifecycle *LifecycleService
	sweep     *SweepService
	clock     timeutil.Clock
	loc       *time.Location
	locks     *idLocks
}

// New builds the services and binds the purge and sweep timers to their handlers.
func New(d Deps) (*TaskService, error) {
	if d.Clock == nil {
		d.Clock = timeutil.SystemClock{}
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.SweepTime == "" {
		d.SweepTime = "10:00"
	}

	scheduler, err := NewReminderScheduler(d.Facility, d.Notifier, d.Clock, d.SweepTime, d.Location)
	if err != nil {
		return nil, err
	}
	lifecycle := NewLifecycleService(d.Store, scheduler, d.Clock, d.Location)
	sweep := NewSweepService(d.Store, scheduler, d.Guard, d.Clock, d.Location)

	scheduler.onPurge = lifecycle.HandlePurgeTimer
	scheduler.onSweep = sweep.HandleTimer

	return &TaskService{
		tasks:     d.Store,
		scheduler: scheduler,
		lifecycle: lifecycle,
		sweep:     sweep,
		clock:     d.Clock,
		loc:       d.Location,
		locks:     lifecycle.locks,
	}, nil
}

// NewDraft returns an unsaved task, optionally pre-dated. Storage assigns its id on save.
func (s *TaskService) NewDraft(date *timeutil.Date) model.Task {
	draft := model.Task{}
	if date != nil {
		stored := timeutil.CalendarDateToInstant(*date)
		draft.Date = &stored
	}
	return draft
}

// SaveTask inserts a draft or updates a saved task, then arms or cancels its
// reminder. Timers are touched only after the write succeeded.
func (s *TaskService) SaveTask(ctx context.Context, draft model.Task) (model.Task, error) {
	if err := draft.Validate(); err != nil {
		return model.Task{}, err
	}

	if draft.IsCreated {
		unlock := s.locks.lock(draft.ID)
		defer unlock()
		if err := s.tasks.Update(ctx, draft); err != nil {
			return model.Task{}, fmt.Errorf("save task: %w", err)
		}
	} else {
		draft.IsCreated = true
		if err := s.tasks.Insert(ctx, &draft); err != nil {
			return model.Task{}, fmt.Errorf("save task: %w", err)
		}
	}

	s.syncReminder(draft)
	return draft, nil
}

func (s *TaskService) syncReminder(task model.Task) {
	if !task.WantsReminder() {
		if err := s.scheduler.CancelReminder(task.ID); err != nil {
			log.Printf("[warn] cancel reminder for task %d: %v", task.ID, err)
		}
		return
	}
	at, _ := task.ReminderAt(s.loc)
	if err := s.scheduler.ScheduleReminder(task.ID, task.Title, task.Description, at); err != nil {
		log.Printf("[warn] schedule reminder for task %d: %v", task.ID, err)
	}
}

// GetTask returns repository.ErrTaskNotFound for unknown ids.
func (s *TaskService) GetTask(ctx context.Context, id int) (*model.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.tasks.List(ctx)
}

// Groups returns the grouped view of all tasks as of today.
func (s *TaskService) Groups(ctx context.Context, mode model.GroupMode, sortType model.SortType) ([]model.TaskGroup, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.GroupTasks(tasks, mode, sortType, s.Today()), nil
}

// Tags lists every distinct tag in use, sorted.
func (s *TaskService) Tags(ctx context.Context) ([]string, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, task := range tasks {
		for _, tag := range task.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// Subscribe streams ordered task snapshots until ctx ends.
func (s *TaskService) Subscribe(ctx context.Context) (<-chan []model.Task, error) {
	return s.tasks.Subscribe(ctx)
}

func (s *TaskService) MarkCompleted(ctx context.Context, id int) (*model.Task, error) {
	return s.lifecycle.MarkCompleted(ctx, id)
}

func (s *TaskService) Restore(ctx context.Context, id int) (*model.Task, error) {
	return s.lifecycle.Restore(ctx, id)
}

func (s *TaskService) PurgeFire(ctx context.Context, id int) (bool, error) {
	return s.lifecycle.PurgeFire(ctx, id)
}

func (s *TaskService) DeleteTask(ctx context.Context, task model.Task) error {
	return s.lifecycle.DeleteTask(ctx, task)
}

// DeleteTaskByID deletes a saved task by id. Unknown ids are a no-op.
func (s *TaskService) DeleteTaskByID(ctx context.Context, id int) error {
	task, err := s.tasks.GetByID(ctx, id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.lifecycle.DeleteTask(ctx, *task)
}

func (s *TaskService) DeleteTasks(ctx context.Context, ids []int) error {
	return s.lifecycle.DeleteTasks(ctx, ids)
}

// CheckNow runs the overdue sweep on demand.
func (s *TaskService) CheckNow(ctx context.Context) (SweepResult, error) {
	return s.sweep.Run(ctx, TriggerManual)
}

// EnsureDailySweep re-arms the daily sweep if it is not pending.
func (s *TaskService) EnsureDailySweep() error {
	return s.scheduler.ScheduleDailySweep()
}

func (s *TaskService) CancelDailySweep() error {
	return s.scheduler.CancelDailySweep()
}

// OnBootCompleted rebuilds every timer from persisted tasks: the daily sweep,
// reminders still due today or later and purges of completed tasks.
func (s *TaskService) OnBootCompleted(ctx context.Context) error {
	if err := s.scheduler.ScheduleDailySweep(); err != nil {
		log.Printf("[warn] arm daily sweep: %v", err)
	}

	upcoming, err := s.tasks.ListUpcomingReminders(ctx, s.Today())
	if err != nil {
		return fmt.Errorf("restore reminders: %w", err)
	}
	for _, task := range upcoming {
		s.syncReminder(task)
	}

	completed, err := s.tasks.ListCompleted(ctx)
	if err != nil {
		return fmt.Errorf("restore purges: %w", err)
	}
	for _, task := range completed {
		if task.DeletionTime == nil {
			continue
		}
		if err := s.scheduler.SchedulePurge(task.ID, *task.DeletionTime); err != nil {
			log.Printf("[warn] schedule purge for task %d: %v", task.ID, err)
		}
	}

	log.Printf("[info] timers restored: %d reminder candidate(s), %d purge(s)", len(upcoming), len(completed))
	return nil
}

// Today is the stored representation of the current calendar day.
func (s *TaskService) Today() time.Time {
	return timeutil.StartOfDay(s.clock.Now(), s.loc)
}

// Location is the zone reminder times are interpreted in.
func (s *TaskService) Location() *time.Location {
	return s.loc
}
