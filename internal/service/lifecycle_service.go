package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taskify/internal/model"
	"taskify/internal/repository"
	"taskify/internal/timeutil"
)

// LifecycleService completes, restores, purges and deletes tasks. Operations on
// the same id are serialized so a restore cannot race a stale completion.
type LifecycleService struct {
	tasks     TaskStore
	scheduler *ReminderScheduler
	clock     timeutil.Clock
	loc       *time.Location
	locks     *idLocks
}

func NewLifecycleService(tasks TaskStore, scheduler *ReminderScheduler, clock timeutil.Clock, loc *time.Location) *LifecycleService {
	return &LifecycleService{
		tasks:     tasks,
		scheduler: scheduler,
		clock:     clock,
		loc:       loc,
		locks:     newIDLocks(),
	}
}

// MarkCompleted completes the task, cancels its reminder and arms its purge.
// A missing task yields (nil, nil). Completing a completed task keeps its deadline.
func (s *LifecycleService) MarkCompleted(ctx context.Context, taskID int) (*model.Task, error) {
	unlock := s.locks.lock(taskID)
	defer unlock()

	task, err := s.load(ctx, taskID)
	if err != nil || task == nil {
		return nil, err
	}
	if task.IsCompleted {
		return task, nil
	}

	task.Complete(s.clock.Now())
	if err := s.tasks.Update(ctx, *task); err != nil {
		return nil, fmt.Errorf("complete task %d: %w", taskID, err)
	}

	if err := s.scheduler.CancelReminder(taskID); err != nil {
		log.Printf("[warn] cancel reminder for task %d: %v", taskID, err)
	}
	if err := s.scheduler.SchedulePurge(taskID, *task.DeletionTime); err != nil {
		log.Printf("[warn] schedule purge for task %d: %v", taskID, err)
	}
	return task, nil
}

// Restore undoes completion and cancels the pending purge. A reminder that is
// still due is re-armed.
func (s *LifecycleService) Restore(ctx context.Context, taskID int) (*model.Task, error) {
	unlock := s.locks.lock(taskID)
	defer unlock()

	task, err := s.load(ctx, taskID)
	if err != nil || task == nil {
		return nil, err
	}
	if !task.IsCompleted {
		return task, nil
	}

	task.Restore()
	if err := s.tasks.Update(ctx, *task); err != nil {
		return nil, fmt.Errorf("restore task %d: %w", taskID, err)
	}

	if err := s.scheduler.CancelPurge(taskID); err != nil {
		log.Printf("[warn] cancel purge for task %d: %v", taskID, err)
	}
	if task.WantsReminder() {
		at, _ := task.ReminderAt(s.loc)
		if err := s.scheduler.ScheduleReminder(task.ID, task.Title, task.Description, at); err != nil {
			log.Printf("[warn] schedule reminder for task %d: %v", taskID, err)
		}
	}
	return task, nil
}

// PurgeFire deletes the task if it is still completed and past its deadline.
// It reports whether the task is gone afterwards.
func (s *LifecycleService) PurgeFire(ctx context.Context, taskID int) (bool, error) {
	unlock := s.locks.lock(taskID)
	defer unlock()

	task, err := s.load(ctx, taskID)
	if err != nil {
		return false, err
	}
	if task == nil {
		return true, nil
	}

	if !task.IsPendingPurge(s.clock.Now()) {
		log.Printf("[info] purge of task %d skipped: completed=%t deadline=%v", taskID, task.IsCompleted, task.DeletionTime)
		return false, nil
	}
	if err := s.tasks.DeleteByID(ctx, taskID); err != nil {
		return false, fmt.Errorf("purge task %d: %w", taskID, err)
	}
	if err := s.scheduler.CancelReminder(taskID); err != nil {
		log.Printf("[warn] cancel reminder for task %d: %v", taskID, err)
	}
	log.Printf("[info] purged completed task %d", taskID)
	return true, nil
}

// HandlePurgeTimer is the purge alarm entry point.
func (s *LifecycleService) HandlePurgeTimer(ctx context.Context, taskID int) {
	if _, err := s.PurgeFire(ctx, taskID); err != nil {
		log.Printf("[warn] purge task %d: %v", taskID, err)
	}
}

// DeleteTask removes a saved task in any state together with its pending timers.
// Unsaved drafts are ignored.
func (s *LifecycleService) DeleteTask(ctx context.Context, task model.Task) error {
	if !task.IsCreated {
		return nil
	}
	unlock := s.locks.lock(task.ID)
	defer unlock()

	s.cancelTimers(task.ID)
	if err := s.tasks.DeleteByID(ctx, task.ID); err != nil {
		return fmt.Errorf("delete task %d: %w", task.ID, err)
	}
	return nil
}

// DeleteTasks removes a set of tasks and their pending timers. Every id stays
// locked until the rows are gone so a concurrent completion cannot arm a purge
// for a deleted task.
func (s *LifecycleService) DeleteTasks(ctx context.Context, ids []int) error {
	ids = uniqueSorted(ids)
	for _, id := range ids {
		unlock := s.locks.lock(id)
		defer unlock()
	}

	for _, id := range ids {
		s.cancelTimers(id)
	}
	if err := s.tasks.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}

func (s *LifecycleService) cancelTimers(taskID int) {
	if err := s.scheduler.CancelReminder(taskID); err != nil {
		log.Printf("[warn] cancel reminder for task %d: %v", taskID, err)
	}
	if err := s.scheduler.CancelPurge(taskID); err != nil {
		log.Printf("[warn] cancel purge for task %d: %v", taskID, err)
	}
}

func (s *LifecycleService) load(ctx context.Context, taskID int) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		log.Printf("[info] task %d not found", taskID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}
