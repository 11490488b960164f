package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"taskify/internal/model"
)

// taskRow is the persisted shape of model.Task. Instants are Unix milliseconds,
// enums are ordinals and tags are a JSON array of strings.
type taskRow struct {
	ID             int `gorm:"primaryKey;autoIncrement"`
	Title          string
	Description    string
	DateMillis     *int64 `gorm:"column:date;index"`
	Time           *int   `gorm:"column:time"`
	ReminderType   int    `gorm:"not null;default:0"`
	Priority       int    `gorm:"not null;default:0"`
	Tags           string `gorm:"not null;default:'[]'"`
	IsFavorite     bool   `gorm:"not null;default:false"`
	IsCompleted    bool   `gorm:"not null;default:false;index"`
	DeletionMillis *int64 `gorm:"column:deletion_time"`
	IsCreated      bool   `gorm:"not null;default:false"`
}

func (taskRow) TableName() string { return "tasks" }

func toRow(task model.Task) (taskRow, error) {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return taskRow{}, fmt.Errorf("encode tags: %w", err)
	}
	return taskRow{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		DateMillis:     toMillis(task.Date),
		Time:           task.Time,
		ReminderType:   int(task.ReminderType),
		Priority:       int(task.Priority),
		Tags:           string(encoded),
		IsFavorite:     task.IsFavorite,
		IsCompleted:    task.IsCompleted,
		DeletionMillis: toMillis(task.DeletionTime),
		IsCreated:      task.IsCreated,
	}, nil
}

func fromRow(row taskRow) (model.Task, error) {
	var tags []string
	if row.Tags != "" {
		if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
			return model.Task{}, fmt.Errorf("decode tags of task %d: %w", row.ID, err)
		}
	}
	return model.Task{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		Date:         fromMillis(row.DateMillis),
		Time:         row.Time,
		ReminderType: model.ReminderType(row.ReminderType),
		Priority:     model.Priority(row.Priority),
		Tags:         tags,
		IsFavorite:   row.IsFavorite,
		IsCompleted:  row.IsCompleted,
		DeletionTime: fromMillis(row.DeletionMillis),
		IsCreated:    row.IsCreated,
	}, nil
}

func fromRows(rows []taskRow) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		task, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func toMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
