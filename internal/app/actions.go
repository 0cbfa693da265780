package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/planbatch/internal/apperr"
	"github.com/nhle/planbatch/internal/ingest"
	"github.com/nhle/planbatch/internal/logger"
	"github.com/nhle/planbatch/internal/model"
	"github.com/nhle/planbatch/internal/ui"
	"github.com/nhle/planbatch/internal/ui/planform"
)

// referenceLoadedMsg carries the result of a reference data load.
type referenceLoadedMsg struct {
	ref *model.ReferenceData
	err error
}

// dispatchDoneMsg carries the result of an upload.
type dispatchDoneMsg struct {
	receipt ingest.Receipt
	err     error
}

// loadReference returns a command that reads a fresh snapshot.
func (m Model) loadReference() tea.Cmd {
	load := m.opts.Loader
	return func() tea.Msg {
		if load == nil {
			return referenceLoadedMsg{err: errors.New("no reference data source configured")}
		}
		ref, err := load(context.Background())
		return referenceLoadedMsg{ref: ref, err: err}
	}
}

// startReload switches to the loading screen and reads the reference
// data again.
func (m *Model) startReload() tea.Cmd {
	m.currentView = ViewLoading
	m.loadErr = nil
	return tea.Batch(m.spinner.Tick, m.loadReference())
}

// handleReferenceLoaded installs the snapshot. A failed load drops any
// earlier snapshot so stale data is never used.
func (m Model) handleReferenceLoaded(msg referenceLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		logger.Error("loading reference data", "err", msg.err)
		m.session.ResetReferenceData()
		m.loadErr = msg.err
		m.currentView = ViewLoadError
		return m, nil
	}

	m.session.SetReferenceData(msg.ref)
	m.loadErr = nil
	m.currentView = ViewList
	m.notice = ui.Notice{
		Kind: ui.NoticeInfo,
		Text: fmt.Sprintf("Loaded %d users, %d properties, %d subjects, %d portfolio mappings",
			len(msg.ref.Users()), len(msg.ref.Properties()), len(msg.ref.Subjects()), len(msg.ref.Mappings())),
	}
	logger.Info("reference data loaded",
		"users", len(msg.ref.Users()),
		"properties", len(msg.ref.Properties()),
		"subjects", len(msg.ref.Subjects()),
		"mappings", len(msg.ref.Mappings()),
	)
	return m, nil
}

// startForm opens the add-tasks form.
func (m *Model) startForm() tea.Cmd {
	if !m.session.Loaded() {
		m.notice = ui.Notice{Kind: ui.NoticeError, Text: "reference data is not loaded; press r to reload"}
		return nil
	}
	m.currentView = ViewForm
	return m.form.Start(m.session.Reference())
}

// addTasks runs the planner on the submitted selection. On any error the
// batch is left as it was.
func (m *Model) addTasks(msg planform.SubmitMsg) tea.Cmd {
	req, err := msg.Selection.Request()
	if err == nil {
		var tasks []model.PlanTask
		tasks, err = m.session.Add(req)
		if err == nil {
			m.notice = ui.Notice{
				Kind: ui.NoticeSuccess,
				Text: fmt.Sprintf("Added %s (%s); batch has %d", plural(len(tasks), "task"), req.TaskType(), m.session.Len()),
			}
			return m.refreshList()
		}
	}
	logger.Warn("generating tasks", "type", msg.Selection.TaskType, "err", err)
	m.notice = ui.Notice{Kind: ui.NoticeError, Text: err.Error()}
	return nil
}

// removeSelected drops the task under the cursor.
func (m *Model) removeSelected() {
	task, ok := m.taskList.SelectedTask()
	if !ok {
		return
	}
	removed, err := m.session.Remove(task.ID)
	if err != nil {
		m.notice = ui.Notice{Kind: ui.NoticeError, Text: err.Error()}
		return
	}
	if removed {
		m.notice = ui.Notice{Kind: ui.NoticeInfo, Text: fmt.Sprintf("Removed task for %s; batch has %d", task.TargetName, m.session.Len())}
	}
	m.refreshList()
}

func (m *Model) refreshList() tea.Cmd {
	return m.taskList.SetTasks(m.session.Tasks())
}

// askClear opens the clear confirmation.
func (m *Model) askClear() tea.Cmd {
	n := m.session.Len()
	if n == 0 {
		m.notice = ui.Notice{Kind: ui.NoticeInfo, Text: "the batch is already empty"}
		return nil
	}
	return m.openConfirm(actionClear,
		fmt.Sprintf("Clear all %s from the batch?", plural(n, "task")),
		"Nothing has been uploaded; the tasks will be lost.",
		"Yes, clear",
	)
}

// askUpload opens the upload confirmation.
func (m *Model) askUpload() tea.Cmd {
	if m.opts.Submitter == nil {
		err := m.opts.IngestErr
		if err == nil {
			err = &apperr.ConfigError{Component: model.ComponentIngest, Fields: []string{"ingest.url"}}
		}
		m.notice = ui.Notice{Kind: ui.NoticeError, Text: "cannot upload: " + err.Error()}
		return nil
	}
	n := m.session.Len()
	if n == 0 {
		m.notice = ui.Notice{Kind: ui.NoticeWarning, Text: "no tasks to upload"}
		return nil
	}
	return m.openConfirm(actionUpload,
		fmt.Sprintf("Upload %s?", plural(n, "task")),
		"All tasks are sent in one request. The batch is cleared once the endpoint accepts it.",
		"Yes, upload",
	)
}

func (m *Model) openConfirm(action pendingAction, title, description, affirmative string) tea.Cmd {
	*m.confirmed = false
	m.pending = action
	m.previousView = m.currentView
	m.currentView = ViewConfirm

	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))

	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(m.confirmed),
		),
	).WithKeyMap(km).WithWidth(60).WithShowHelp(false)
	return m.confirm.Init()
}

// updateConfirm forwards msg to the confirm dialog and acts once it
// closes.
func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		m.currentView = ViewList
		return m, nil
	}

	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		return m, m.resolveConfirm(*m.confirmed)
	case huh.StateAborted:
		return m, m.resolveConfirm(false)
	}
	return m, cmd
}

// resolveConfirm runs the pending action when accepted and returns to the
// batch either way.
func (m *Model) resolveConfirm(accepted bool) tea.Cmd {
	action := m.pending
	m.pending = actionNone
	m.confirm = nil
	m.currentView = ViewList

	if !accepted {
		return nil
	}
	switch action {
	case actionClear:
		if err := m.session.Clear(); err != nil {
			m.notice = ui.Notice{Kind: ui.NoticeError, Text: err.Error()}
			return nil
		}
		m.notice = ui.Notice{Kind: ui.NoticeInfo, Text: "Batch cleared"}
		return m.refreshList()
	case actionUpload:
		return m.startUpload()
	}
	return nil
}

// startUpload freezes the batch and sends the snapshot in the background.
func (m *Model) startUpload() tea.Cmd {
	snapshot, err := m.session.BeginDispatch()
	if err != nil {
		m.notice = ui.Notice{Kind: ui.NoticeError, Text: err.Error()}
		return nil
	}
	m.uploading = true
	m.keys.SetDispatching(true)
	m.notice = ui.Notice{Kind: ui.NoticeInfo, Text: fmt.Sprintf("Uploading %s...", plural(len(snapshot), "task"))}

	sub := m.opts.Submitter
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		receipt, err := sub.Submit(context.Background(), snapshot)
		return dispatchDoneMsg{receipt: receipt, err: err}
	})
}

// handleDispatchDone settles the session. Success clears the batch;
// failure keeps it for a manual retry.
func (m Model) handleDispatchDone(msg dispatchDoneMsg) (tea.Model, tea.Cmd) {
	m.uploading = false
	m.keys.SetDispatching(false)

	if err := m.session.EndDispatch(context.Background(), msg.receipt, msg.err); err != nil {
		logger.Error("ending dispatch", "err", err)
	}

	if msg.err != nil {
		m.notice = ui.Notice{
			Kind: ui.NoticeError,
			Text: fmt.Sprintf("Upload failed: %v. The batch was kept; press u to retry.", msg.err),
		}
		return m, m.refreshList()
	}

	m.notice = ui.Notice{Kind: ui.NoticeSuccess, Text: receiptText(msg.receipt)}
	return m, m.refreshList()
}

// receiptText words the outcome. An optimistic receipt only says the
// request went out.
func receiptText(r ingest.Receipt) string {
	if r.Confirmed {
		return fmt.Sprintf("Upload confirmed: %d rows added (%s)", r.RowsAdded, r.Message)
	}
	return fmt.Sprintf("Dispatched %s; the endpoint did not confirm the write", plural(r.Count, "task"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
