package comment

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Raw is one comment record as the server sent it, before field names are resolved.
type Raw map[string]json.RawMessage

// Accepted field names per canonical field, in priority order.
var (
	idAliases        = []string{"id", "commentId", "comment_id"}
	contentAliases   = []string{"content", "text", "body"}
	authorAliases    = []string{"authorName", "author", "username", "authorUsername", "userName", "author_name"}
	createdAtAliases = []string{"createdAt", "created_at", "createdDate"}
	updatedAtAliases = []string{"updatedAt", "updated_at", "updatedDate"}
	projectIDAliases = []string{"projectId", "project_id"}
	taskIDAliases    = []string{"taskId", "task_id"}
)

// timeLayouts are tried in order for string timestamps. Zone-less layouts are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize resolves field aliases into the canonical Comment.
// Missing or malformed optional fields are left empty; it never fails.
func Normalize(raw Raw) Comment {
	var c Comment
	if id, ok := raw.int64Field(idAliases); ok {
		c.ID = id
	}
	c.Content, _ = raw.stringField(contentAliases)
	c.AuthorName, _ = raw.stringField(authorAliases)
	c.CreatedAt = raw.timeField(createdAtAliases)
	c.UpdatedAt = raw.timeField(updatedAtAliases)
	if id, ok := raw.int64Field(projectIDAliases); ok {
		c.ProjectID = &id
	}
	if id, ok := raw.int64Field(taskIDAliases); ok {
		c.TaskID = &id
	}
	return c
}

// Canonicalize normalizes every record, drops records that reference a
// different parent, and sorts the rest chronologically.
func Canonicalize(raws []Raw, parent Parent) []Comment {
	comments := make([]Comment, 0, len(raws))
	for _, raw := range raws {
		c := Normalize(raw)
		if !c.BelongsTo(parent) {
			continue
		}
		comments = append(comments, c)
	}
	SortChronological(comments)
	return comments
}

// lookup returns the first alias present with a non-null value.
func (r Raw) lookup(aliases []string) (json.RawMessage, bool) {
	for _, name := range aliases {
		v, ok := r[name]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || bytes.Equal(v, []byte("null")) {
			continue
		}
		return v, true
	}
	return nil, false
}

func (r Raw) stringField(aliases []string) (string, bool) {
	v, ok := r.lookup(aliases)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// int64Field accepts JSON integers and numeric strings.
func (r Raw) int64Field(aliases []string) (int64, bool) {
	v, ok := r.lookup(aliases)
	if !ok {
		return 0, false
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

// timeField parses a timestamp string or a Unix millisecond number.
func (r Raw) timeField(aliases []string) *time.Time {
	v, ok := r.lookup(aliases)
	if !ok {
		return nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return ParseTime(s)
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return nil
	}
	ms, err := n.Int64()
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

// ParseTime parses any accepted timestamp format. It returns nil for
// empty or unparseable input.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
