package reportlist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/keys"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/theme"
)

// ReportsLoadedMsg is sent when the repository view has been (re)read.
type ReportsLoadedMsg struct {
	Reports []model.Report
	Pending map[string]bool
}

// SelectedReportMsg is sent when a user selects a report to view details.
type SelectedReportMsg struct {
	ID string
}

// Model is the report list view component.
type Model struct {
	list    list.Model
	spinner spinner.Model
	keys    *keys.KeyMap
	syncing bool
	width   int
	height  int
}

// New creates a new report list model.
func New(k *keys.KeyMap, width, height int) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(theme.ColorBlue).
		BorderLeftForeground(theme.ColorBlue)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(theme.ColorGray).
		BorderLeftForeground(theme.ColorBlue)

	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Reports"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.PendingStyle

	return Model{
		list:    l,
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// SetSyncing toggles the spinner shown while a remote operation runs.
func (m *Model) SetSyncing(on bool) tea.Cmd {
	if on && !m.syncing {
		m.syncing = true
		return m.spinner.Tick
	}
	if !on {
		m.syncing = false
	}
	return nil
}

// Selected returns the id of the currently highlighted report.
func (m Model) Selected() (string, bool) {
	item, ok := m.list.SelectedItem().(ReportItem)
	if !ok {
		return "", false
	}
	return item.Report.ID, true
}

// Init returns the initial command for the list view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the report list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReportsLoadedMsg:
		items := make([]list.Item, len(msg.Reports))
		for i, r := range msg.Reports {
			items[i] = ReportItem{
				Report:  r,
				Pending: msg.Pending[r.ID],
			}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Select) {
			if id, ok := m.Selected(); ok {
				return m, func() tea.Msg {
					return SelectedReportMsg{ID: id}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the report list.
func (m Model) View() string {
	if m.syncing {
		return m.spinner.View() + " syncing…\n" + m.list.View()
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
