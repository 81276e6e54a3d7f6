// Package project provides the project and task domain models and data access.
package project

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no project or task matches.
var ErrNotFound = errors.New("not found")

// Status is a project's lifecycle state.
type Status string

// Project statuses.
const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusCompleted  Status = "COMPLETED"
)

// ParseStatus validates a project status. Empty means NOT_STARTED.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusNotStarted, nil
	case StatusNotStarted, StatusInProgress, StatusOnHold, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("invalid project status: %q", s)
	}
}

// TaskStatus is a task's workflow state.
type TaskStatus string

// Task statuses.
const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

// Priority ranks a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParseTaskStatus validates a task status. Empty means TODO.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case "":
		return TaskTodo, nil
	case TaskTodo, TaskInProgress, TaskDone:
		return TaskStatus(s), nil
	default:
		return "", fmt.Errorf("invalid task status: %q", s)
	}
}

// ParsePriority validates a task priority. Empty means MEDIUM.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	default:
		return "", fmt.Errorf("invalid priority: %q", s)
	}
}

// Project groups tasks and carries its own comment feed.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
}
