package reportform

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/classify"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/theme"
)

// SubmittedMsg is dispatched when the citizen submits the form.
type SubmittedMsg struct {
	Draft model.Report

	// UseAI asks the parent to run the AI delegate over the
	// description and fill whatever the citizen left blank.
	UseAI bool
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	category    string
	priority    string
	address     string
	useAI       bool
}

// Model is the Bubble Tea model for the new-report form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new report form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for a fresh report.
func (m *Model) Start() tea.Cmd {
	*m.fb = formBindings{}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the report form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the report form with a live rule-based suggestion under it.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("New Report") + "\n" + m.form.View()

	if m.fb.description != "" {
		res := classify.Classify(m.fb.description)
		hint := fmt.Sprintf("suggestion: %s, priority %d — %s",
			res.Category, res.Priority, res.Title)
		content += "\n" + theme.HelpStyle.Render(hint)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	categoryOptions := []huh.Option[string]{
		huh.NewOption("(suggest for me)", ""),
	}
	for _, c := range model.Categories() {
		categoryOptions = append(categoryOptions, huh.NewOption(string(c), string(c)))
	}

	priorityOptions := []huh.Option[string]{
		huh.NewOption("(suggest for me)", ""),
	}
	for p := model.PriorityMin; p <= model.PriorityMax; p++ {
		priorityOptions = append(priorityOptions,
			huh.NewOption(strconv.Itoa(p), strconv.Itoa(p)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Description").
				Placeholder("Describe the issue…").
				Value(&m.fb.description).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("description is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Title").
				Placeholder("Leave empty to use the suggested title").
				Value(&m.fb.title),
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions...).
				Value(&m.fb.category),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(&m.fb.priority),
			huh.NewInput().
				Title("Address").
				Placeholder("Optional street address").
				Value(&m.fb.address),
			huh.NewConfirm().
				Title("Ask AI for suggestions?").
				Value(&m.fb.useAI),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// handleSubmit assembles the draft. Blank classification fields are
// filled from the rule classifier unless the citizen asked for AI, in
// which case the parent fills them via the delegate.
func (m *Model) handleSubmit() tea.Cmd {
	fb := *m.fb

	draft := model.Report{
		Title:       fb.title,
		Description: fb.description,
	}
	if fb.category != "" {
		draft.Category = model.Category(fb.category)
	}
	if fb.priority != "" {
		if p, err := strconv.Atoi(fb.priority); err == nil {
			draft.Priority = p
		}
	}
	if fb.address != "" {
		draft.Location = &model.Location{Address: fb.address}
	}

	if !fb.useAI {
		res := classify.Classify(fb.description)
		if draft.Title == "" {
			draft.Title = res.Title
		}
		if draft.Category == "" {
			draft.Category = res.Category
		}
		if draft.Priority == 0 {
			draft.Priority = res.Priority
		}
	}

	return func() tea.Msg {
		return SubmittedMsg{Draft: draft, UseAI: fb.useAI}
	}
}

func (m *Model) formWidth() int {
	w := m.width - 8
	if w > 80 {
		w = 80
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}
