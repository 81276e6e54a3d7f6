// Package comment provides the comment domain model, normalization of
// server payloads, chronological ordering and data access.
package comment

import (
	"fmt"
	"time"
)

// ParentKind names the entity type a comment is attached to.
type ParentKind string

// Parent kinds.
const (
	ParentProject ParentKind = "project"
	ParentTask    ParentKind = "task"
)

// ParseParentKind validates a parent kind string.
func ParseParentKind(s string) (ParentKind, error) {
	switch ParentKind(s) {
	case ParentProject, ParentTask:
		return ParentKind(s), nil
	default:
		return "", fmt.Errorf("invalid parent kind: %q (must be project or task)", s)
	}
}

// Parent identifies the project or task that owns a comment.
type Parent struct {
	Kind ParentKind `json:"kind"`
	ID   int64      `json:"id"`
}

// ProjectParent is shorthand for a project parent.
func ProjectParent(id int64) Parent {
	return Parent{Kind: ParentProject, ID: id}
}

// TaskParent is shorthand for a task parent.
func TaskParent(id int64) Parent {
	return Parent{Kind: ParentTask, ID: id}
}

func (p Parent) String() string {
	return fmt.Sprintf("%s #%d", p.Kind, p.ID)
}

// Comment is one remark attached to a project or task.
// Nil timestamps and parent references mean the server did not send them.
type Comment struct {
	ID         int64      `json:"id"`
	Content    string     `json:"content"`
	AuthorName string     `json:"author_name,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	ProjectID  *int64     `json:"project_id,omitempty"`
	TaskID     *int64     `json:"task_id,omitempty"`
}

// ParentRef returns the comment's reference for the given parent kind.
func (c Comment) ParentRef(kind ParentKind) *int64 {
	if kind == ParentTask {
		return c.TaskID
	}
	return c.ProjectID
}

// BelongsTo reports whether the comment may be shown in p's feed.
// Comments without a parent reference are kept; the server scoped them already.
func (c Comment) BelongsTo(p Parent) bool {
	ref := c.ParentRef(p.Kind)
	return ref == nil || *ref == p.ID
}

// DisplayAuthor returns the author name, or viewer when the server sent none.
func (c Comment) DisplayAuthor(viewer string) string {
	if c.AuthorName != "" {
		return c.AuthorName
	}
	return viewer
}

// Edited reports whether the comment was updated after it was created.
func (c Comment) Edited() bool {
	if c.CreatedAt == nil || c.UpdatedAt == nil {
		return false
	}
	return !c.CreatedAt.Equal(*c.UpdatedAt)
}

// EffectiveTime is the sort key: CreatedAt, or the Unix epoch when missing.
func (c Comment) EffectiveTime() time.Time {
	if c.CreatedAt == nil {
		return time.UnixMilli(0).UTC()
	}
	return *c.CreatedAt
}
