package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/evcraddock/pmfeed/internal/comment"
	"github.com/evcraddock/pmfeed/internal/project"
	"github.com/evcraddock/pmfeed/internal/user"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printJSONLine writes v as a single JSON line, for streaming output.
func printJSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

// printHeader introduces a comment listing.
func printHeader(w io.Writer, parent comment.Parent) error {
	_, err := fmt.Fprintf(w, "Comments for %s:\n\n", parent)
	return err
}

// printCommentList prints comments in text format.
func printCommentList(w io.Writer, comments []comment.Comment, viewer string) error {
	if len(comments) == 0 {
		_, err := fmt.Fprintln(w, "No comments.")
		return err
	}

	for _, c := range comments {
		if err := printCommentEntry(w, c, viewer); err != nil {
			return err
		}
	}
	return nil
}

// printCommentEntry prints one comment block. viewer names comments the server sent without an author.
func printCommentEntry(w io.Writer, c comment.Comment, viewer string) error {
	suffix := ""
	if c.Edited() {
		suffix = " (edited)"
	}
	_, err := fmt.Fprintf(w, "[%s] #%d (%s)%s\n  %s\n\n",
		formatTime(c.CreatedAt), c.ID, c.DisplayAuthor(viewer), suffix, c.Content)
	return err
}

// printCommentSingle confirms a comment write.
func printCommentSingle(w io.Writer, verb string, c comment.Comment) error {
	_, err := fmt.Fprintf(w, "Comment #%d %s.\n  %s\n", c.ID, verb, c.Content)
	return err
}

// printProjectSummary prints a single project in text format.
func printProjectSummary(w io.Writer, p *project.Project) error {
	_, err := fmt.Fprintf(w, "Project #%d\n  Name:     %s\n  Status:   %s\n  Created:  %s\n",
		p.ID, p.Name, p.Status, formatTime(&p.CreatedAt))
	if err != nil {
		return err
	}
	if p.Description != "" {
		_, err = fmt.Fprintf(w, "  About:    %s\n", p.Description)
	}
	return err
}

// printTaskSummary prints a single task in text format.
func printTaskSummary(w io.Writer, t *project.Task) error {
	_, err := fmt.Fprintf(w, "Task #%d (project #%d)\n  Title:    %s\n  Status:   %s\n  Priority: %s\n",
		t.ID, t.ProjectID, t.Title, t.Status, t.Priority)
	return err
}

// printUserTable prints users as a formatted table.
func printUserTable(out io.Writer, users []*user.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(out, "No users found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE\tDEPARTMENT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t--------\t----\t----\t----------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, u := range users {
		dept := u.Department
		if dept == "" {
			dept = "-"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			u.ID, u.Username, truncate(u.Name, 30), u.Role, dept); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d users\n", len(users))
	return err
}

// formatTime renders a timestamp in local time, or "-" when missing.
func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
