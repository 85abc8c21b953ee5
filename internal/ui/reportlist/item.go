package reportlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
)

// ReportItem wraps a model.Report so it can be used in a bubbles/list.
type ReportItem struct {
	Report  model.Report
	Pending bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i ReportItem) FilterValue() string { return i.Report.Title }

// Title returns the report title for the list.
func (i ReportItem) Title() string {
	if i.Pending {
		return i.Report.Title + " (local)"
	}
	return i.Report.Title
}

// Description returns a short summary line for the list.
func (i ReportItem) Description() string {
	parts := []string{
		string(i.Report.Category),
		fmt.Sprintf("P%d", i.Report.Priority),
		string(i.Report.Status),
	}
	if !i.Report.CreatedAt.IsZero() {
		parts = append(parts, relativeTime(i.Report.CreatedAt))
	}
	return strings.Join(parts, " | ")
}

// relativeTime formats t as a compact "how long ago" label.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
