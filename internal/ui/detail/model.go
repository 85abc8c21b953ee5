package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/keys"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// AdvanceMsg asks the parent to move the report to the next status.
type AdvanceMsg struct {
	ID string
}

// DeleteMsg asks the parent to delete the report.
type DeleteMsg struct {
	ID string
}

// Model is the report detail view component.
type Model struct {
	report   *model.Report
	pending  bool
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Show loads a report into the view.
func (m *Model) Show(r model.Report, pending bool) {
	m.report = &r
	m.pending = pending
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Advance):
			if m.report != nil {
				id := m.report.ID
				return m, func() tea.Msg { return AdvanceMsg{ID: id} }
			}

		case key.Matches(msg, m.keys.Delete):
			if m.report != nil {
				id := m.report.ID
				return m, func() tea.Msg { return DeleteMsg{ID: id} }
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.report == nil {
		return theme.HelpStyle.Render("no report selected")
	}
	return m.viewport.View()
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

// renderContent formats the report and its audit trail.
func (m Model) renderContent() string {
	r := m.report
	var sb strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	label := lipgloss.NewStyle().Foreground(theme.ColorGray)

	sb.WriteString(title.Render(r.Title))
	sb.WriteString("\n")
	sb.WriteString(theme.CategoryStyle(r.Category).Render(string(r.Category)))
	sb.WriteString(theme.StatusStyle(r.Status).Render(string(r.Status)))
	sb.WriteString(theme.PriorityStyle(r.Priority).Render(fmt.Sprintf(" P%d", r.Priority)))
	if m.pending {
		sb.WriteString("  ")
		sb.WriteString(theme.PendingStyle.Render("not yet synced"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(r.Description)
	sb.WriteString("\n\n")

	sb.WriteString(label.Render("id: "))
	sb.WriteString(r.ID)
	sb.WriteString("\n")
	if r.Reporter.Name != "" {
		sb.WriteString(label.Render("reporter: "))
		sb.WriteString(r.Reporter.Name)
		sb.WriteString("\n")
	}
	if r.AssignedTo != "" {
		sb.WriteString(label.Render("assigned to: "))
		sb.WriteString(r.AssignedTo)
		sb.WriteString("\n")
	}
	if r.Location != nil {
		sb.WriteString(label.Render("location: "))
		if r.Location.Address != "" {
			sb.WriteString(r.Location.Address)
		} else {
			sb.WriteString(fmt.Sprintf("%.5f, %.5f", r.Location.Lat, r.Location.Lng))
		}
		sb.WriteString("\n")
	}
	if len(r.Media) > 0 {
		sb.WriteString(label.Render(fmt.Sprintf("media: %d attachment(s)", len(r.Media))))
		sb.WriteString("\n")
	}
	if !r.CreatedAt.IsZero() {
		sb.WriteString(label.Render("created: "))
		sb.WriteString(r.CreatedAt.Format("2006-01-02 15:04"))
		sb.WriteString("\n")
	}
	if !r.UpdatedAt.IsZero() {
		sb.WriteString(label.Render("updated: "))
		sb.WriteString(r.UpdatedAt.Format("2006-01-02 15:04"))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(title.Render("Timeline"))
	sb.WriteString("\n")
	for _, ev := range r.Timeline {
		sb.WriteString(fmt.Sprintf("  %s  %-10s %s\n",
			ev.TS.Format("2006-01-02 15:04"), ev.Actor, ev.Note))
	}
	if len(r.Timeline) == 0 {
		sb.WriteString(theme.HelpStyle.Render("  (empty)"))
		sb.WriteString("\n")
	}

	return theme.DetailPanelStyle.Width(m.width - 4).Render(sb.String())
}
