package planform

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/planner"
	"github.com/nhle/planbatch/internal/theme"
)

// SubmitMsg is dispatched when the details form is completed.
type SubmitMsg struct {
	Selection planner.Selection
}

// CancelMsg is dispatched when the user backs out of either stage.
type CancelMsg struct{}

type stage int

const (
	stageType stage = iota
	stageDetails
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	taskType    model.TaskType
	ownerID     string
	propertyID  string
	portfolio   string
	month       string
	subject     string
	dueDate     string
	description string
}

// Model is the Bubble Tea model for the add-tasks form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	stage      stage
	ref        *model.ReferenceData
	now        func() time.Time
	monthCount int
	width      int
	height     int
}

// New creates a new form model. now supplies "today" for the month list
// and the due date check.
func New(now func() time.Time, monthCount, width, height int) Model {
	if monthCount <= 0 {
		monthCount = planner.DefaultMonthCount
	}
	return Model{
		fb:         &formBindings{},
		now:        now,
		monthCount: monthCount,
		width:      width,
		height:     height,
	}
}

// Start resets the form and asks for the task type.
func (m *Model) Start(ref *model.ReferenceData) tea.Cmd {
	*m.fb = formBindings{taskType: model.TaskTypeMonthlyPlan}
	m.ref = ref
	m.stage = stageType
	m.form = m.buildTypeForm()
	return m.form.Init()
}

// TaskType returns the type chosen in the first stage.
func (m Model) TaskType() model.TaskType {
	return m.fb.taskType
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	case huh.StateCompleted:
		if m.stage == stageType {
			m.stage = stageDetails
			m.form = m.buildDetailsForm()
			return m, m.form.Init()
		}
		sel := m.selection()
		m.form = nil
		return m, func() tea.Msg { return SubmitMsg{Selection: sel} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Add Tasks"
	if m.stage == stageDetails {
		titleText = "Add Tasks: " + theme.TaskTypeStyle(m.fb.taskType).Render(string(m.fb.taskType))
	}

	content := theme.TitleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) keyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	return km
}

func (m *Model) buildTypeForm() *huh.Form {
	opts := make([]huh.Option[model.TaskType], len(model.AllTaskTypes))
	for i, tt := range model.AllTaskTypes {
		opts[i] = huh.NewOption(typeLabel(tt), tt)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.TaskType]().
				Title("Task type").
				Options(opts...).
				Value(&m.fb.taskType),
		),
	).WithKeyMap(m.keyMap()).WithWidth(m.formWidth()).WithShowHelp(true)
}

func typeLabel(tt model.TaskType) string {
	switch tt {
	case model.TaskTypeMonthlyPlan:
		return "Monthly Plan - one task for an owner and property"
	case model.TaskTypePortfolioPlan:
		return "Portfolio Plan - one task per property in a portfolio"
	case model.TaskTypeOwnerExternal:
		return "Owner External - owner approval, owner from the property mapping"
	case model.TaskTypeOwnerInternal:
		return "Owner Internal - owner approval handled internally"
	default:
		return string(tt)
	}
}

// buildDetailsForm shows exactly the inputs the chosen task type uses.
func (m *Model) buildDetailsForm() *huh.Form {
	var fields []huh.Field
	for _, f := range planner.Inputs(m.fb.taskType) {
		if field := m.field(f); field != nil {
			fields = append(fields, field)
		}
	}
	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithKeyMap(m.keyMap()).WithWidth(m.formWidth()).WithHeight(m.formHeight()).WithShowHelp(true)
}

func (m *Model) field(f planner.Field) huh.Field {
	switch f {
	case planner.FieldOwner:
		return huh.NewSelect[string]().
			Title("Owner").
			Options(m.userOptions()...).
			Height(8).
			Value(&m.fb.ownerID)
	case planner.FieldProperty:
		return huh.NewSelect[string]().
			Title("Property").
			Options(m.propertyOptions()...).
			Height(8).
			Value(&m.fb.propertyID)
	case planner.FieldPortfolio:
		return huh.NewSelect[string]().
			Title("Portfolio").
			Description("Org-Wide creates one task for every mapped property").
			Options(huh.NewOptions(m.portfolioOptions()...)...).
			Value(&m.fb.portfolio)
	case planner.FieldMonth:
		return huh.NewSelect[string]().
			Title("Month").
			Options(huh.NewOptions(planner.MonthOptions(m.now(), m.monthCount)...)...).
			Value(&m.fb.month)
	case planner.FieldSubject:
		return huh.NewSelect[string]().
			Title("Subject").
			Options(huh.NewOptions(m.subjects()...)...).
			Value(&m.fb.subject)
	case planner.FieldDueDate:
		return huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.dueDate).
			Validate(m.validateDueDate)
	case planner.FieldDescription:
		return huh.NewText().
			Title("Description").
			Placeholder(model.DefaultDescription).
			Value(&m.fb.description)
	default:
		return nil
	}
}

func (m *Model) userOptions() []huh.Option[string] {
	if m.ref == nil {
		return nil
	}
	users := m.ref.Users()
	opts := make([]huh.Option[string], len(users))
	for i, u := range users {
		opts[i] = huh.NewOption(fmt.Sprintf("%s (%s)", u.Name, u.ID), u.ID)
	}
	return opts
}

func (m *Model) propertyOptions() []huh.Option[string] {
	if m.ref == nil {
		return nil
	}
	props := m.ref.Properties()
	opts := make([]huh.Option[string], len(props))
	for i, p := range props {
		opts[i] = huh.NewOption(fmt.Sprintf("%s (%s)", p.Name, p.ID), p.ID)
	}
	return opts
}

func (m *Model) portfolioOptions() []string {
	if m.ref == nil {
		return []string{model.OrgWidePortfolio}
	}
	return m.ref.PortfolioOptions()
}

func (m *Model) subjects() []string {
	if m.ref == nil {
		return nil
	}
	return m.ref.Subjects()
}

// selection builds the planner input from the bound values. Names come
// from the reference snapshot the options were built from.
func (m Model) selection() planner.Selection {
	sel := planner.Selection{
		TaskType:    m.fb.taskType,
		Portfolio:   m.fb.portfolio,
		Month:       m.fb.month,
		Subject:     m.fb.subject,
		Description: m.fb.description,
		DueDate:     strings.TrimSpace(m.fb.dueDate),
	}
	if m.fb.ownerID != "" {
		sel.Owner = model.SalesPerson{ID: m.fb.ownerID}
		if m.ref != nil {
			if u, ok := m.ref.User(m.fb.ownerID); ok {
				sel.Owner = u
			}
		}
	}
	if m.fb.propertyID != "" {
		sel.Property = model.Property{ID: m.fb.propertyID}
		if m.ref != nil {
			if p, ok := m.ref.Property(m.fb.propertyID); ok {
				sel.Property = p
			}
		}
	}
	return sel
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// validateDueDate mirrors the planner's check so mistakes are caught
// before the form closes.
func (m Model) validateDueDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("due date is required")
	}
	d, err := time.Parse(model.DueDateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	today := planner.Today(m.now())
	if d.Before(today) {
		return fmt.Errorf("due date cannot be before today (%s)", today.Format(model.DueDateLayout))
	}
	return nil
}
