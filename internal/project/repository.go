package project

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Repository provides CRUD operations for projects and tasks.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a project repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const projectColumns = `id, name, description, status, created_by, created_at`

const taskColumns = `id, project_id, title, description, status, priority, created_at`

// Create adds a new project.
func (r *Repository) Create(name, description string, status Status, createdBy *int64) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if status == "" {
		status = StatusNotStarted
	}

	result, err := r.db.Exec(
		"INSERT INTO projects (name, description, status, created_by) VALUES (?, ?, ?, ?)",
		name, description, string(status), createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a project by its ID.
func (r *Repository) GetByID(id int64) (*Project, error) {
	var p Project
	var status string
	var createdBy sql.NullInt64
	err := r.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM projects WHERE id = ?", projectColumns), id,
	).Scan(&p.ID, &p.Name, &p.Description, &status, &createdBy, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying project %d: %w", id, err)
	}
	p.Status = Status(status)
	if createdBy.Valid {
		p.CreatedBy = &createdBy.Int64
	}
	return &p, nil
}

// Delete removes a project along with its tasks and comments.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project %d: %w", id, ErrNotFound)
	}

	return nil
}

// CreateTask adds a task to an existing project.
func (r *Repository) CreateTask(t Task) (*Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if _, err := r.GetByID(t.ProjectID); err != nil {
		return nil, err
	}

	result, err := r.db.Exec(
		"INSERT INTO tasks (project_id, title, description, status, priority) VALUES (?, ?, ?, ?, ?)",
		t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetTask(id)
}

// GetTask returns a task by its ID.
func (r *Repository) GetTask(id int64) (*Task, error) {
	t, err := scanTask(r.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM tasks WHERE id = ?", taskColumns), id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying task %d: %w", id, err)
	}
	return t, nil
}

// ListTasks returns a project's tasks in creation order.
func (r *Repository) ListTasks(projectID int64) ([]*Task, error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT %s FROM tasks WHERE project_id = ? ORDER BY id", taskColumns), projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var status, priority string
	if err := s.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &priority, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = TaskStatus(status)
	t.Priority = Priority(priority)
	return &t, nil
}
