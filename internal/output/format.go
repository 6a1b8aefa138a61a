// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskhub/internal/service"
)

// FormatTask formats a task line for the list view.
// Format: "{N:>4}  [{x| }] {PRIORITY:<6}  {TITLE}\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	mark := " "
	if task.Completed {
		mark = "x"
	}
	fmt.Fprintf(w, "%4d  [%s] %-6s  %s\n", num, mark, task.Priority, normalizeTitle(task.Title))
}

// FormatTaskDetail formats a task line plus its description, when
// present, indented underneath.
func FormatTaskDetail(w io.Writer, num int, task service.Task) {
	FormatTask(w, num, task)
	if strings.TrimSpace(task.Description) != "" {
		fmt.Fprintf(w, "      %s\n", normalizeTitle(task.Description))
	}
}

// FormatPageFooter formats the pagination line under a list.
func FormatPageFooter(w io.Writer, page, pages, total int) {
	fmt.Fprintf(w, "page %d/%d (%d tasks)\n", page, pages, total)
}

// FormatSession formats a session for whoami and login output.
func FormatSession(w io.Writer, sess service.Session) {
	if sess.DisplayName != "" {
		fmt.Fprintf(w, "%s (%s)\n", sess.Email, sess.DisplayName)
		return
	}
	fmt.Fprintln(w, sess.Email)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
