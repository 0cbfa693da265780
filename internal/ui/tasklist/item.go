package tasklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/theme"
)

// TaskItem wraps a model.PlanTask so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.PlanTask
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string {
	return strings.Join([]string{
		i.Task.OwnerName,
		i.Task.TargetName,
		i.Task.Subject,
		i.Task.Month,
		i.Task.Portfolio,
		string(i.Task.TaskType),
	}, " ")
}

// Title returns the owner and property the task is about.
func (i TaskItem) Title() string {
	return fmt.Sprintf("%s → %s", i.Task.OwnerName, i.Task.TargetName)
}

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{string(i.Task.TaskType), i.Task.Subject}
	if i.Task.Month != "" {
		parts = append(parts, i.Task.Month)
	}
	parts = append(parts, "due "+i.Task.DueDate)
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering batch rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single batch row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	task := ti.Task

	badge := theme.TaskTypeStyle(task.TaskType).
		Width(11).
		Render(theme.TaskTypeBadge(task.TaskType))

	meta := theme.DimmedStyle.Render(task.Subject)
	if task.Month != "" {
		meta += theme.DimmedStyle.Render(" · " + task.Month)
	}

	due := lipgloss.NewStyle().
		Foreground(theme.ColorYellow).
		Render(" due " + task.DueDate)

	portfolio := ""
	if task.Portfolio != "" {
		portfolio = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" [" + task.Portfolio + "]")
	}

	line := fmt.Sprintf("%s %s  %s%s%s", badge, ti.Title(), meta, due, portfolio)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
