// Package app wires the repository, the AI delegate, and the views
// into the root Bubble Tea model.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/ai"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/keys"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/report"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/theme"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/ui"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/ui/detail"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/ui/reportform"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/ui/reportlist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewForm
)

// syncDoneMsg is sent when a repository operation has finished; the
// handler re-reads the view state from the repository.
type syncDoneMsg struct{}

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the sync core.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	repo        *report.Repository
	delegate    *ai.Delegate
	keys        *keys.KeyMap

	list     reportlist.Model
	detail   detail.Model
	form     reportform.Model
	detailID string
	showHelp bool
}

// New creates the root model around an initialized repository.
func New(repo *report.Repository, delegate *ai.Delegate) Model {
	k := keys.DefaultKeyMap()
	layout := ui.NewLayout(80, 24)

	return Model{
		currentView: ViewList,
		layout:      layout,
		repo:        repo,
		delegate:    delegate,
		keys:        k,
		list:        reportlist.New(k, layout.ContentWidth(), layout.ContentHeight()),
		detail:      detail.New(k, layout.ContentWidth(), layout.ContentHeight()),
		form:        reportform.New(layout.ContentWidth(), layout.ContentHeight()),
	}
}

// Init populates the list from the cached view and kicks off a refresh
// against the remote store.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.reloadCmd(), m.refreshCmd())
}

// Update routes messages to the active view and runs repository
// operations off the UI loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.list.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.detail.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.form.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		return m, nil

	case syncDoneMsg:
		cmds := []tea.Cmd{m.reloadCmd()}
		if spin := m.list.SetSyncing(m.repo.Loading()); spin != nil {
			cmds = append(cmds, spin)
		}
		return m, tea.Batch(cmds...)

	case reportlist.ReportsLoadedMsg:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		if m.currentView == ViewDetail {
			if r, ok := m.repo.Get(m.detailID); ok {
				m.detail.Show(r, m.repo.IsPending(r.ID))
			} else {
				m.currentView = ViewList
			}
		}
		return m, cmd

	case reportlist.SelectedReportMsg:
		if r, ok := m.repo.Get(msg.ID); ok {
			m.detailID = msg.ID
			m.detail.Show(r, m.repo.IsPending(msg.ID))
			m.currentView = ViewDetail
		}
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.AdvanceMsg:
		return m, m.advanceCmd(msg.ID)

	case detail.DeleteMsg:
		m.currentView = ViewList
		return m, m.deleteCmd(msg.ID)

	case reportform.SubmittedMsg:
		m.currentView = ViewList
		return m, m.createCmd(msg.Draft, msg.UseAI)

	case reportform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case tea.KeyMsg:
		if m.currentView != ViewForm {
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.Help):
				m.showHelp = !m.showHelp
				return m, nil
			case key.Matches(msg, m.keys.Refresh):
				spin := m.list.SetSyncing(true)
				return m, tea.Batch(m.refreshCmd(), spin)
			case key.Matches(msg, m.keys.New):
				if m.currentView == ViewList {
					m.currentView = ViewForm
					return m, m.form.Start()
				}
			}
		}
	}

	return m.routeToView(msg)
}

// routeToView forwards a message to the active view component.
func (m Model) routeToView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	}
	return m, cmd
}

// View renders the frame: header, active view, status bar.
func (m Model) View() string {
	var content string
	switch m.currentView {
	case ViewList:
		content = m.list.View()
	case ViewDetail:
		content = m.detail.View()
	case ViewForm:
		content = m.form.View()
	}

	header := m.layout.RenderHeader("Civic Reports", m.syncStatus())
	statusBar := m.layout.RenderStatusBar(m.statusHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// syncStatus summarizes the repository state for the header.
func (m Model) syncStatus() string {
	if m.repo.Loading() {
		return "syncing…"
	}
	if pending := m.repo.Pending(); len(pending) > 0 {
		return fmt.Sprintf("%d local-only", len(pending))
	}
	return "synced"
}

// statusHints builds the bottom bar: last error if any, else key help.
func (m Model) statusHints() string {
	if err := m.repo.Err(); err != nil {
		return theme.ErrorStyle.Render("offline: " + err.Error())
	}
	if m.showHelp {
		return "j/↓ down · k/↑ up · enter detail · n new · r refresh · t advance · x delete · esc back · q quit"
	}
	return "n new · r refresh · enter detail · ? help · q quit"
}

// reloadCmd re-reads the repository view into a ReportsLoadedMsg.
func (m Model) reloadCmd() tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		pending := make(map[string]bool)
		for _, id := range repo.Pending() {
			pending[id] = true
		}
		return reportlist.ReportsLoadedMsg{
			Reports: repo.Reports(),
			Pending: pending,
		}
	}
}

// refreshCmd pulls the authoritative collection in the background.
func (m Model) refreshCmd() tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		_, _ = repo.Refresh(context.Background())
		return syncDoneMsg{}
	}
}

// createCmd submits a new report, optionally filling blanks via the AI
// delegate first. The delegate never fails, so the create always runs.
func (m Model) createCmd(draft model.Report, useAI bool) tea.Cmd {
	repo := m.repo
	delegate := m.delegate
	return func() tea.Msg {
		ctx := context.Background()
		if useAI {
			sug := delegate.Suggest(ctx, draft.Description)
			if draft.Title == "" {
				draft.Title = sug.Title
			}
			if draft.Category == "" {
				draft.Category = sug.Category
			}
			if draft.Priority == 0 {
				draft.Priority = sug.Priority
			}
		}
		_, _ = repo.Create(ctx, draft)
		return syncDoneMsg{}
	}
}

// advanceCmd moves a report to the next status in lifecycle order.
func (m Model) advanceCmd(id string) tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		r, ok := repo.Get(id)
		if !ok {
			return syncDoneMsg{}
		}
		statuses := model.Statuses()
		idx := r.Status.Index()
		if idx < 0 || idx >= len(statuses)-1 {
			return syncDoneMsg{}
		}
		next := statuses[idx+1]
		_, _ = repo.Update(context.Background(), id, model.ReportUpdate{Status: &next})
		return syncDoneMsg{}
	}
}

// deleteCmd removes a report.
func (m Model) deleteCmd(id string) tea.Cmd {
	repo := m.repo
	return func() tea.Msg {
		_ = repo.Delete(context.Background(), id)
		return syncDoneMsg{}
	}
}
