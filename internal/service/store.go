package service

import (
	"context"
	"time"

	"taskify/internal/model"
)

// TaskStore is the persistence the services need. *repository.TaskRepository implements it.
type TaskStore interface {
	Insert(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task model.Task) error
	DeleteByID(ctx context.Context, id int) error
	DeleteByIDs(ctx context.Context, ids []int) error
	GetByID(ctx context.Context, id int) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	ListOverdue(ctx context.Context, before time.Time) ([]model.Task, error)
	ListUpcomingReminders(ctx context.Context, from time.Time) ([]model.Task, error)
	ListCompleted(ctx context.Context) ([]model.Task, error)
	Subscribe(ctx context.Context) (<-chan []model.Task, error)
}
