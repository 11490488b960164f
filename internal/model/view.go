package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// GroupMode selects which tasks a view shows and how they are bucketed.
type GroupMode int

const (
	GroupAll GroupMode = iota
	GroupToday
	GroupPlanned
	GroupCompleted
)

func ParseGroupMode(raw string) (GroupMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return GroupAll, nil
	case "today":
		return GroupToday, nil
	case "planned":
		return GroupPlanned, nil
	case "completed":
		return GroupCompleted, nil
	default:
		return GroupAll, fmt.Errorf("unknown group %q", raw)
	}
}

type SortType int

const (
	SortByDate SortType = iota
	SortByTitle
	SortByPriority
)

func ParseSortType(raw string) (SortType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "date":
		return SortByDate, nil
	case "title":
		return SortByTitle, nil
	case "priority":
		return SortByPriority, nil
	default:
		return SortByDate, fmt.Errorf("unknown sort %q", raw)
	}
}

const (
	GroupNameCompleted  = "Completed"
	GroupNameOverdue    = "Overdue"
	GroupNameNotPlanned = "Not planned"
	GroupNameActive     = "Active"
	GroupNameToday      = "Today"
	GroupNamePlanned    = "Planned"
)

var groupOrder = []string{
	GroupNameCompleted,
	GroupNameOverdue,
	GroupNameNotPlanned,
	GroupNameActive,
	GroupNameToday,
	GroupNamePlanned,
}

// TaskGroup is one named bucket of a view.
type TaskGroup struct {
	Name  string
	Tasks []Task
}

// GroupTasks buckets tasks for display. Empty groups are omitted and groups come
// back in a fixed order.
func GroupTasks(tasks []Task, mode GroupMode, sortType SortType, today time.Time) []TaskGroup {
	buckets := make(map[string][]Task)
	for _, task := range tasks {
		name, ok := groupName(task, mode, today)
		if !ok {
			continue
		}
		buckets[name] = append(buckets[name], task)
	}

	groups := make([]TaskGroup, 0, len(buckets))
	for _, name := range groupOrder {
		list, ok := buckets[name]
		if !ok {
			continue
		}
		SortTasks(list, sortType)
		groups = append(groups, TaskGroup{Name: name, Tasks: list})
	}
	return groups
}

func groupName(task Task, mode GroupMode, today time.Time) (string, bool) {
	switch mode {
	case GroupToday:
		if task.Date == nil || task.Date.After(today) {
			return "", false
		}
		switch {
		case task.IsCompleted:
			return GroupNameCompleted, true
		case task.IsToday(today):
			return GroupNameToday, true
		default:
			return GroupNameOverdue, true
		}
	case GroupCompleted:
		return GroupNameCompleted, task.IsCompleted
	case GroupPlanned:
		return GroupNamePlanned, task.IsPlanned(today)
	default:
		switch {
		case task.IsCompleted:
			return GroupNameCompleted, true
		case task.IsOverdue(today):
			return GroupNameOverdue, true
		case task.Date == nil:
			return GroupNameNotPlanned, true
		default:
			return GroupNameActive, true
		}
	}
}

// SortTasks orders tasks in place. Undated tasks sort first by date.
func SortTasks(tasks []Task, sortType SortType) {
	switch sortType {
	case SortByTitle:
		sort.SliceStable(tasks, func(i, j int) bool {
			return strings.ToLower(tasks[i].Title) < strings.ToLower(tasks[j].Title)
		})
	case SortByPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority > tasks[j].Priority
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			switch {
			case tasks[i].Date == nil && tasks[j].Date == nil:
				return false
			case tasks[i].Date == nil:
				return true
			case tasks[j].Date == nil:
				return false
			default:
				return tasks[i].Date.Before(*tasks[j].Date)
			}
		})
	}
}
