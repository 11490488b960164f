package http

import (
	"time"

	"taskify/internal/model"
	"taskify/internal/timeutil"
)

// TaskRequest is the body of POST /tasks and PUT /tasks/:id.
// Date is YYYY-MM-DD and Time is HH:MM; empty strings clear them.
type TaskRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	ReminderType string   `json:"reminder_type"`
	Priority     string   `json:"priority"`
	Tags         []string `json:"tags"`
	IsFavorite   bool     `json:"is_favorite"`
}

type DeleteTasksRequest struct {
	IDs []int `json:"ids"`
}

type TaskResponse struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Date         string     `json:"date,omitempty"`
	Time         string     `json:"time,omitempty"`
	ReminderType string     `json:"reminder_type"`
	Priority     string     `json:"priority"`
	Tags         []string   `json:"tags"`
	IsFavorite   bool       `json:"is_favorite"`
	IsCompleted  bool       `json:"is_completed"`
	DeletionTime *time.Time `json:"deletion_time,omitempty"`
	RemindAt     *time.Time `json:"remind_at,omitempty"`
}

type GroupResponse struct {
	Name  string         `json:"name"`
	Tasks []TaskResponse `json:"tasks"`
}

type SweepResponse struct {
	Overdue int            `json:"overdue"`
	Tasks   []TaskResponse `json:"tasks"`
}

// apply copies the request onto task, leaving id and completion state alone.
func (r TaskRequest) apply(task *model.Task) error {
	task.Title = r.Title
	task.Description = r.Description
	task.IsFavorite = r.IsFavorite
	task.Tags = r.Tags

	task.Date = nil
	if r.Date != "" {
		d, err := timeutil.ParseDate(r.Date)
		if err != nil {
			return err
		}
		stored := timeutil.CalendarDateToInstant(d)
		task.Date = &stored
	}

	task.Time = nil
	if r.Time != "" {
		minutes, err := timeutil.ParseMinutes(r.Time)
		if err != nil {
			return err
		}
		task.Time = &minutes
	}

	reminder, err := model.ParseReminderType(r.ReminderType)
	if err != nil {
		return err
	}
	task.ReminderType = reminder

	priority, err := model.ParsePriority(r.Priority)
	if err != nil {
		return err
	}
	task.Priority = priority
	return nil
}

func toTaskResponse(task model.Task, loc *time.Location) TaskResponse {
	resp := TaskResponse{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		ReminderType: task.ReminderType.String(),
		Priority:     task.Priority.String(),
		Tags:         task.Tags,
		IsFavorite:   task.IsFavorite,
		IsCompleted:  task.IsCompleted,
		DeletionTime: task.DeletionTime,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if task.Date != nil {
		resp.Date = timeutil.StoredDate(*task.Date).String()
	}
	if task.Time != nil {
		resp.Time = timeutil.FormatMinutes(*task.Time)
	}
	if task.WantsReminder() {
		at, _ := task.ReminderAt(loc)
		resp.RemindAt = &at
	}
	return resp
}

func toTaskResponses(tasks []model.Task, loc *time.Location) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task, loc))
	}
	return out
}

func toGroupResponses(groups []model.TaskGroup, loc *time.Location) []GroupResponse {
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupResponse{Name: g.Name, Tasks: toTaskResponses(g.Tasks, loc)})
	}
	return out
}
