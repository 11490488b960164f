package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"taskify/internal/model"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository handles CRUD for tasks and fans committed changes out to subscribers.
type TaskRepository struct {
	db  *gorm.DB
	hub *hub

	// publishMu keeps snapshots in commit order: a read taken before a later
	// write can never be broadcast after that write's snapshot.
	publishMu sync.Mutex
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db, hub: newHub()}
}

// Insert persists a new task. A zero ID is assigned by the database and written back.
func (r *TaskRepository) Insert(ctx context.Context, task *model.Task) error {
	row, err := toRow(*task)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	task.ID = row.ID
	r.publish()
	return nil
}

// Update overwrites every column of an existing task.
func (r *TaskRepository) Update(ctx context.Context, task model.Task) error {
	row, err := toRow(task)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&taskRow{}).Where("id = ?", task.ID).Select("*").Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update task %d: %w", task.ID, ErrTaskNotFound)
	}
	r.publish()
	return nil
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id int) error {
	if err := r.db.WithContext(ctx).Delete(&taskRow{}, id).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	r.publish()
	return nil
}

func (r *TaskRepository) DeleteByIDs(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&taskRow{}).Error; err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	r.publish()
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int) (*model.Task, error) {
	var row taskRow
	err := r.db.WithContext(ctx).First(&row, id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrTaskNotFound
	case err != nil:
		return nil, fmt.Errorf("find task: %w", err)
	}
	task, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns every task ordered by due date ascending (undated first).
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).Order("date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return fromRows(rows)
}

// ListOverdue returns incomplete, reminder-enabled tasks dated strictly before the given day.
func (r *TaskRepository) ListOverdue(ctx context.Context, before time.Time) ([]model.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).
		Where("is_completed = ? AND reminder_type = ? AND date IS NOT NULL AND date < ?",
			false, int(model.ReminderOnTime), before.UnixMilli()).
		Order("date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}
	return fromRows(rows)
}

// ListUpcomingReminders returns incomplete, reminder-enabled, timed tasks dated on or after the given day.
func (r *TaskRepository) ListUpcomingReminders(ctx context.Context, from time.Time) ([]model.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).
		Where("is_completed = ? AND reminder_type = ? AND date IS NOT NULL AND date >= ? AND time IS NOT NULL",
			false, int(model.ReminderOnTime), from.UnixMilli()).
		Order("date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list upcoming reminders: %w", err)
	}
	return fromRows(rows)
}

// ListCompleted returns completed tasks awaiting purge.
func (r *TaskRepository) ListCompleted(ctx context.Context) ([]model.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).Where("is_completed = ?", true).
		Order("deletion_time ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	return fromRows(rows)
}

// Subscribe emits the ordered task list now and after every committed change until ctx ends.
// A slow subscriber only ever sees the latest snapshot.
func (r *TaskRepository) Subscribe(ctx context.Context) (<-chan []model.Task, error) {
	tasks, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return r.hub.subscribe(ctx, tasks), nil
}

func (r *TaskRepository) publish() {
	if !r.hub.active() {
		return
	}
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tasks, err := r.List(ctx)
	if err != nil {
		log.Printf("[warn] publish tasks: %v", err)
		return
	}
	r.hub.broadcast(tasks)
}
