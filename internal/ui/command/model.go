package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planbatch/internal/theme"
)

// Palette command names.
const (
	Upload   = "upload"
	Clear    = "clear"
	Reload   = "reload"
	History  = "history"
	NewTasks = "new"
	Quit     = "quit"
)

// Command describes one palette entry.
type Command struct {
	Name    string
	Aliases []string
	Help    string
}

// Commands lists every palette entry in display order.
var Commands = []Command{
	{Name: NewTasks, Aliases: []string{"add"}, Help: "add tasks to the batch"},
	{Name: Upload, Aliases: []string{"send", "dispatch"}, Help: "upload the batch"},
	{Name: Clear, Help: "remove every task from the batch"},
	{Name: Reload, Aliases: []string{"refresh", "retry"}, Help: "reload reference data"},
	{Name: History, Help: "show dispatched batches"},
	{Name: Quit, Aliases: []string{"q", "exit"}, Help: "quit planbatch"},
}

// Resolve maps typed input to a command name. Matching ignores case and
// surrounding spaces.
func Resolve(input string) (string, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, c := range Commands {
		if c.Name == input {
			return c.Name, true
		}
		for _, a := range c.Aliases {
			if a == input {
				return c.Name, true
			}
		}
	}
	return "", false
}

// CommandMsg is emitted when the user executes a command. It carries the
// raw input; use Resolve to map it.
type CommandMsg string

// CancelMsg is emitted when the palette is dismissed with esc.
type CancelMsg struct{}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(names())
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

func names() []string {
	out := make([]string, 0, len(Commands))
	for _, c := range Commands {
		out = append(out, c.Name)
	}
	return out
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil
		case "esc":
			m.input.Reset()
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Command Palette")

	var rows []string
	for _, c := range Commands {
		rows = append(rows, theme.DimmedStyle.Render(
			lipgloss.NewStyle().Width(10).Render(c.Name)+c.Help,
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.input.View(),
		"",
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
