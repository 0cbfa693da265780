package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/planbatch/internal/ingest"
	"github.com/nhle/planbatch/internal/keys"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/session"
	"github.com/nhle/planbatch/internal/store"
	"github.com/nhle/planbatch/internal/theme"
	"github.com/nhle/planbatch/internal/ui"
	"github.com/nhle/planbatch/internal/ui/command"
	helpview "github.com/nhle/planbatch/internal/ui/help"
	"github.com/nhle/planbatch/internal/ui/history"
	"github.com/nhle/planbatch/internal/ui/planform"
	"github.com/nhle/planbatch/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewLoadError
	ViewList
	ViewForm
	ViewConfirm
	ViewHistory
	ViewHelp
	ViewCommand
)

// Options carries everything the UI needs from the outside.
type Options struct {
	Session *session.Session
	// Loader reads a fresh reference snapshot.
	Loader func(context.Context) (*model.ReferenceData, error)
	// Submitter uploads batches. When nil, IngestErr explains why.
	Submitter ingest.Submitter
	IngestErr error
	// Journal backs the history view; nil when disabled.
	Journal    store.Journal
	MonthCount int
	// Now defaults to time.Now.
	Now func() time.Time
}

// pendingAction is the operation waiting on the confirm dialog.
type pendingAction int

const (
	actionNone pendingAction = iota
	actionClear
	actionUpload
)

// Model is the root Bubble Tea model that manages view routing, layout
// and the planning session.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	opts         Options
	session      *session.Session
	keys         *keys.KeyMap
	spinner      spinner.Model
	taskList     tasklist.Model
	form         planform.Model
	historyView  history.Model
	helpView     helpview.Model
	commandView  command.Model

	confirm   *huh.Form
	confirmed *bool
	pending   pendingAction

	ready     bool
	uploading bool
	loadErr   error
	notice    ui.Notice
}

// New creates the root model. Reference data is loaded by Init.
func New(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	k := keys.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.DimmedStyle

	return Model{
		currentView: ViewLoading,
		opts:        opts,
		session:     opts.Session,
		keys:        k,
		spinner:     sp,
		taskList:    tasklist.New(k, 80, 22),
		form:        planform.New(opts.Now, opts.MonthCount, 80, 22),
		historyView: history.New(opts.Journal, k, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.New(80, 22),
		confirmed:   new(bool),
	}
}

// Run starts the UI on the alternate screen and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init starts the first reference data load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadReference())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.form.SetSize(contentWidth, contentHeight)
		m.historyView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		if m.currentView == ViewLoading || m.uploading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case referenceLoadedMsg:
		return m.handleReferenceLoaded(msg)

	case dispatchDoneMsg:
		return m.handleDispatchDone(msg)

	case planform.SubmitMsg:
		m.currentView = ViewList
		return m, m.addTasks(msg)

	case planform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case history.BackMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.currentView == ViewConfirm {
			return m.updateConfirm(msg)
		}
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes shortcuts for the batch, help and error
// screens. Views with text input get their keys untouched.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return true, m, nil
		}
		return false, m, nil

	case ViewLoadError:
		switch {
		case key.Matches(msg, m.keys.Reload):
			return true, m, m.startReload()
		case key.Matches(msg, m.keys.Quit):
			return true, m, tea.Quit
		}
		return false, m, nil

	case ViewList:
		if m.taskList.Filtering() {
			return false, m, nil
		}
	default:
		return false, m, nil
	}

	// A new key press replaces the last notice.
	m.notice = ui.Notice{}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return true, m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m, m.commandView.Focus()

	case key.Matches(msg, m.keys.New):
		return true, m, m.startForm()

	case key.Matches(msg, m.keys.Delete):
		m.removeSelected()
		return true, m, nil

	case key.Matches(msg, m.keys.Clear):
		return true, m, m.askClear()

	case key.Matches(msg, m.keys.Upload):
		return true, m, m.askUpload()

	case key.Matches(msg, m.keys.Reload):
		return true, m, m.startReload()

	case key.Matches(msg, m.keys.History):
		m.previousView = m.currentView
		m.currentView = ViewHistory
		return true, m, m.historyView.Load()
	}
	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	case ViewConfirm:
		return m.updateConfirm(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(input string) tea.Cmd {
	name, ok := command.Resolve(input)
	if !ok {
		m.notice = ui.Notice{Kind: ui.NoticeWarning, Text: fmt.Sprintf("unknown command %q", input)}
		return nil
	}
	// Palette commands obey the same bindings as their keys.
	switch name {
	case command.NewTasks:
		if m.keys.New.Enabled() {
			return m.startForm()
		}
	case command.Upload:
		if m.keys.Upload.Enabled() {
			return m.askUpload()
		}
	case command.Clear:
		if m.keys.Clear.Enabled() {
			return m.askClear()
		}
	case command.Reload:
		if m.keys.Reload.Enabled() {
			return m.startReload()
		}
	case command.History:
		m.previousView = m.currentView
		m.currentView = ViewHistory
		return m.historyView.Load()
	case command.Quit:
		return tea.Quit
	}
	m.notice = ui.Notice{Kind: ui.NoticeWarning, Text: "not available while an upload is in progress"}
	return nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("planbatch", m.headerContext())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.notice)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLoading:
		return m.layout.RenderCentered(m.spinner.View() + " Loading reference data...")
	case ViewLoadError:
		return m.layout.RenderCentered(
			theme.ErrorStyle.Render("Could not load reference data"),
			"",
			m.loadErr.Error(),
			"",
			theme.HelpStyle.Render("press r to retry or q to quit"),
		)
	case ViewList:
		return m.taskList.View()
	case ViewForm:
		return m.form.View()
	case ViewConfirm:
		if m.confirm == nil {
			return ""
		}
		return theme.PanelStyle.Render(m.confirm.View())
	case ViewHistory:
		return m.historyView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerContext summarizes the loaded reference data and upload state.
func (m Model) headerContext() string {
	if m.uploading {
		return m.spinner.View() + " uploading"
	}
	ref := m.session.Reference()
	if ref == nil {
		return "no reference data"
	}
	return fmt.Sprintf("%d users · %d properties · %d subjects · batch %d",
		len(ref.Users()), len(ref.Properties()), len(ref.Subjects()), m.session.Len())
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLoading:
		return "ctrl+c quit"
	case ViewLoadError:
		return "r retry | q quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewForm:
		return "enter next | / filter | esc cancel"
	case ViewConfirm:
		return "y yes | n no | enter confirm"
	case ViewHistory:
		if m.historyView.Viewing() {
			return "esc back | j/k scroll"
		}
		return "enter open | esc back"
	default:
		if m.uploading {
			return "uploading... | h history | q quit"
		}
		return "n new | d remove | C clear | u upload | h history | r reload | / filter | ? help | q quit"
	}
}

// Compile-time check that Model satisfies tea.Model.
var _ tea.Model = Model{}
