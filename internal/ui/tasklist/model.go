package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planbatch/internal/keys"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/theme"
)

// detailHeight is the number of lines under the list used for the
// selected task's details.
const detailHeight = 3

// Model is the batch list view component. It only displays tasks; the
// session owns the batch.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new batch list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, listHeight(height))
	l.Title = "Batch"
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("task", "tasks")
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

func listHeight(height int) int {
	h := height - detailHeight
	if h < 1 {
		h = 1
	}
	return h
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetTasks replaces the displayed rows, keeping the cursor in range.
func (m *Model) SetTasks(tasks []model.PlanTask) tea.Cmd {
	items := make([]list.Item, len(tasks))
	for i, task := range tasks {
		items[i] = TaskItem{Task: task}
	}
	return m.list.SetItems(items)
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.PlanTask, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.PlanTask{}, false
	}
	return item.Task, true
}

// Filtering reports whether the filter input has focus, in which case
// single-letter shortcuts must go to the list.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Len returns the number of rows, ignoring any filter.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Update handles messages for the batch list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list and the selected task's details.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), m.renderSelected())
}

func (m Model) renderSelected() string {
	task, ok := m.SelectedTask()
	if !ok {
		return ""
	}
	label := theme.DimmedStyle.Render
	lines := []string{
		fmt.Sprintf("%s %s   %s %s (%s)", label("id:"), task.ID, label("property:"), task.TargetName, task.TargetID),
		fmt.Sprintf("%s %s (%s)   %s %s", label("owner:"), task.OwnerName, task.OwnerID, label("status:"), task.Status),
		fmt.Sprintf("%s %s", label("description:"), task.Description),
	}
	return lipgloss.NewStyle().
		PaddingLeft(2).
		MaxWidth(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderEmptyState shows guidance text when the batch is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	return style.Render(
		"The batch is empty.\n\n" +
			fmt.Sprintf("Press %s to add tasks.", m.keys.New.Help().Key),
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, listHeight(height))
}
