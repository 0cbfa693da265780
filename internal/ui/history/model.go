package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planbatch/internal/keys"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/store"
	"github.com/nhle/planbatch/internal/theme"
)

const (
	listLimit  = 50
	timeLayout = "2006-01-02 15:04"
)

// BackMsg signals the parent to navigate back to the batch.
type BackMsg struct{}

// DispatchesLoadedMsg carries the journal listing.
type DispatchesLoadedMsg struct {
	Dispatches []model.Dispatch
	Err        error
}

// TasksLoadedMsg carries the tasks one dispatch sent.
type TasksLoadedMsg struct {
	Dispatch model.Dispatch
	Tasks    []model.PlanTask
	Err      error
}

// dispatchItem wraps a model.Dispatch for the list.
type dispatchItem struct {
	d model.Dispatch
}

func (i dispatchItem) FilterValue() string { return i.d.ID }

func (i dispatchItem) Title() string {
	return fmt.Sprintf("%s  %d tasks", i.d.DispatchedAt.Local().Format(timeLayout), i.d.TaskCount)
}

func (i dispatchItem) Description() string {
	state := "sent, not confirmed"
	if i.d.Confirmed {
		state = fmt.Sprintf("confirmed, %d rows added", i.d.RowsAdded)
	}
	return state + " | " + i.d.Endpoint
}

// Model is the dispatch history view: a list of past dispatches and, on
// enter, the tasks the selected one sent.
type Model struct {
	journal  store.Journal
	keys     *keys.KeyMap
	list     list.Model
	viewport viewport.Model
	current  *model.Dispatch
	err      error
	loading  bool
	width    int
	height   int
}

// New creates a history view reading from journal, which may be nil when
// the journal is disabled.
func New(journal store.Journal, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), width, height)
	l.Title = "Dispatch History"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("dispatch", "dispatches")
	l.Styles.Title = theme.HeaderStyle

	vp := viewport.New(width, height-2)

	return Model{
		journal:  journal,
		keys:     k,
		list:     l,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Load returns a command that lists recent dispatches.
func (m *Model) Load() tea.Cmd {
	m.current = nil
	m.err = nil
	if m.journal == nil {
		return nil
	}
	m.loading = true
	j := m.journal
	return func() tea.Msg {
		ds, err := j.ListDispatches(context.Background(), listLimit)
		return DispatchesLoadedMsg{Dispatches: ds, Err: err}
	}
}

func (m Model) loadTasks(d model.Dispatch) tea.Cmd {
	j := m.journal
	return func() tea.Msg {
		tasks, err := j.GetDispatchTasks(context.Background(), d.ID)
		return TasksLoadedMsg{Dispatch: d, Tasks: tasks, Err: err}
	}
}

// Update handles messages for the history view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DispatchesLoadedMsg:
		m.loading = false
		m.err = msg.Err
		items := make([]list.Item, len(msg.Dispatches))
		for i, d := range msg.Dispatches {
			items[i] = dispatchItem{d: d}
		}
		return m, m.list.SetItems(items)

	case TasksLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		d := msg.Dispatch
		m.current = &d
		m.viewport.SetContent(renderTasks(d, msg.Tasks, m.width))
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			if m.current != nil {
				m.current = nil
				return m, nil
			}
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Select):
			if m.current != nil || m.journal == nil {
				return m, nil
			}
			item, ok := m.list.SelectedItem().(dispatchItem)
			if !ok {
				return m, nil
			}
			m.loading = true
			return m, m.loadTasks(item.d)
		}
	}

	var cmd tea.Cmd
	if m.current != nil {
		m.viewport, cmd = m.viewport.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

// View renders the history view.
func (m Model) View() string {
	center := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.journal == nil:
		return center.Render("The dispatch journal is disabled.\n\nSet journal.enabled: true to keep a history.")
	case m.err != nil:
		return center.Render(theme.ErrorStyle.Render("Could not read the journal: " + m.err.Error()))
	case m.loading:
		return center.Render("Loading history...")
	case m.current != nil:
		return m.viewport.View()
	case len(m.list.Items()) == 0:
		return center.Render("No batches have been dispatched yet.")
	default:
		return m.list.View()
	}
}

// Viewing reports whether a single dispatch is open.
func (m Model) Viewing() bool {
	return m.current != nil
}

// renderTasks builds the viewport content for one dispatch.
func renderTasks(d model.Dispatch, tasks []model.PlanTask, width int) string {
	label := theme.DimmedStyle.Render
	value := lipgloss.NewStyle().Foreground(theme.ColorWhite).Render

	sections := []string{
		theme.TitleStyle.Render("Dispatch " + d.ID),
		fmt.Sprintf("%s   %s", label("Sent:"), value(d.DispatchedAt.Local().Format(timeLayout))),
		fmt.Sprintf("%s   %s (%s)", label("Endpoint:"), value(d.Endpoint), d.Mode),
	}
	if d.Confirmed {
		sections = append(sections, fmt.Sprintf("%s   %s", label("Result:"),
			theme.SuccessStyle.Render(fmt.Sprintf("confirmed, %d rows added", d.RowsAdded))))
	} else {
		sections = append(sections, fmt.Sprintf("%s   %s", label("Result:"),
			theme.WarningStyle.Render("sent; the endpoint did not confirm the write")))
	}
	if d.Message != "" {
		sections = append(sections, fmt.Sprintf("%s   %s", label("Message:"), value(d.Message)))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(width-4, 80), 1)))
	sections = append(sections, "", sep, "")

	for i, t := range tasks {
		badge := theme.TaskTypeStyle(t.TaskType).Render(theme.TaskTypeBadge(t.TaskType))
		line := fmt.Sprintf("%3d. %s %s → %s  %s", i+1, badge, t.OwnerName, t.TargetName, label(t.Subject))
		if t.Month != "" {
			line += label(" · " + t.Month)
		}
		line += label(" · due " + t.DueDate)
		sections = append(sections, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
