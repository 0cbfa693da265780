package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planbatch/internal/keys"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/planner"
	"github.com/nhle/planbatch/internal/theme"
	"github.com/nhle/planbatch/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay: key bindings, palette commands and the
// inputs each task type asks for.
func (m Model) View() string {
	m.help.Width = m.width - 4
	m.help.ShowAll = true

	sections := []string{
		theme.TitleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		theme.TitleStyle.Render("Commands"),
	}
	for _, c := range command.Commands {
		sections = append(sections, fmt.Sprintf("%s %s",
			lipgloss.NewStyle().Width(10).Render(c.Name),
			theme.DimmedStyle.Render(c.Help),
		))
	}

	sections = append(sections, "", theme.TitleStyle.Render("Task Types"))
	for _, tt := range model.AllTaskTypes {
		var fields []string
		for _, f := range planner.Requirements(tt) {
			fields = append(fields, string(f))
		}
		sections = append(sections, fmt.Sprintf("%s %s",
			theme.TaskTypeStyle(tt).Width(18).Render(string(tt)),
			theme.DimmedStyle.Render("needs "+strings.Join(fields, ", ")),
		))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
