package comment

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrNotFound is returned when no comment matches.
var ErrNotFound = errors.New("comment not found")

const selectSQL = `SELECT c.id, c.content, COALESCE(NULLIF(u.name, ''), u.username, ''),
	c.created_at, c.updated_at, c.project_id, c.task_id
	FROM comments c LEFT JOIN users u ON u.id = c.author_id`

// Repository provides CRUD operations for comments.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Add creates a new comment on a project or task.
func (r *Repository) Add(parent Parent, content string, authorID int64) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required")
	}

	var projectID, taskID *int64
	switch parent.Kind {
	case ParentProject:
		projectID = &parent.ID
	case ParentTask:
		taskID = &parent.ID
	default:
		return nil, fmt.Errorf("invalid parent kind: %q", parent.Kind)
	}

	result, err := r.db.Exec(
		"INSERT INTO comments (project_id, task_id, author_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
		projectID, taskID, authorID, content, r.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a comment by its ID.
func (r *Repository) GetByID(id int64) (*Comment, error) {
	c, err := scanComment(r.db.QueryRow(selectSQL+" WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading comment: %w", err)
	}
	return c, nil
}

// ListByParent returns all comments for a project or task, oldest first.
func (r *Repository) ListByParent(parent Parent) ([]*Comment, error) {
	column := "c.project_id"
	if parent.Kind == ParentTask {
		column = "c.task_id"
	}

	rows, err := r.db.Query(
		selectSQL+" WHERE "+column+" = ? ORDER BY c.created_at, c.id",
		parent.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	comments := []*Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// Update replaces a comment's content and stamps updated_at.
func (r *Repository) Update(id int64, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required")
	}

	result, err := r.db.Exec(
		"UPDATE comments SET content = ?, updated_at = ? WHERE id = ?",
		content, r.now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

// Owner returns the author's user id, or 0 when the author was removed.
func (r *Repository) Owner(id int64) (int64, error) {
	var authorID sql.NullInt64
	err := r.db.QueryRow("SELECT author_id FROM comments WHERE id = ?", id).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("reading comment owner: %w", err)
	}
	return authorID.Int64, nil
}

// Delete removes a comment by ID.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return requireAffected(result, id)
}

func requireAffected(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanComment(s scanner) (*Comment, error) {
	var c Comment
	var createdAt time.Time
	var updatedAt sql.NullTime
	var projectID, taskID sql.NullInt64
	if err := s.Scan(&c.ID, &c.Content, &c.AuthorName, &createdAt, &updatedAt, &projectID, &taskID); err != nil {
		return nil, err
	}
	createdAt = createdAt.UTC()
	c.CreatedAt = &createdAt
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		c.UpdatedAt = &t
	}
	if projectID.Valid {
		c.ProjectID = &projectID.Int64
	}
	if taskID.Valid {
		c.TaskID = &taskID.Int64
	}
	return &c, nil
}
