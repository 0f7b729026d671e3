package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/projectflow/projectflow/internal/logging"
)

// refreshDoneMsg is sent when a background refresh finishes
type refreshDoneMsg struct {
	err error
}

// actionDoneMsg is sent when a task mutation finishes
type actionDoneMsg struct {
	op  string
	err error
}

// Init starts the first refresh so the dashboard opens with fresh data
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmd())
}

func (m Model) refreshCmd() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := st.RefreshProjects(ctx)
		if err == nil {
			err = st.RefreshNotifications(ctx)
		}
		return refreshDoneMsg{err: err}
	}
}

func (m Model) actionCmd(op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return actionDoneMsg{op: op, err: fn(ctx)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil {
			m.message = "Refresh failed: " + msg.err.Error()
			logging.Logger.WithError(msg.err).Warn("dashboard refresh failed")
		} else {
			m.message = ""
		}
		m.reloadSnapshot()
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.message = msg.op + " failed: " + msg.err.Error()
			m.reloadSnapshot()
			return m, nil
		}
		// The store refetched after the mutation; pick up the new snapshot.
		m.message = msg.op + " done"
		m.reloadSnapshot()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeHelp {
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneProjects {
			m.pane = PaneTasks
		} else {
			m.pane = PaneProjects
		}

	case key.Matches(msg, keys.Left):
		m.pane = PaneProjects

	case key.Matches(msg, keys.Right):
		m.pane = PaneTasks

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	case key.Matches(msg, keys.Accept):
		return m.startAcceptance(true)

	case key.Matches(msg, keys.Reject):
		return m.startAcceptance(false)

	case key.Matches(msg, keys.Complete):
		return m.startComplete()

	case key.Matches(msg, keys.Refresh):
		m.refreshing = true
		m.message = ""
		return m, m.refreshCmd()

	case key.Matches(msg, keys.Escape):
		m.message = ""

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) handleUp() {
	if m.pane == PaneProjects {
		if m.projCursor > 0 {
			m.projCursor--
			m.taskCursor = 0
		}
		return
	}
	if m.taskCursor > 0 {
		m.taskCursor--
	}
}

func (m *Model) handleDown() {
	if m.pane == PaneProjects {
		if m.projCursor < len(m.projects)-1 {
			m.projCursor++
			m.taskCursor = 0
		}
		return
	}
	if p := m.currentProject(); p != nil && m.taskCursor < len(p.Tasks)-1 {
		m.taskCursor++
	}
}

func (m Model) startAcceptance(accept bool) (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	st := m.store
	projectID, taskID := t.ProjectID, t.ID
	if accept {
		return m, m.actionCmd("Accept", func(ctx context.Context) error {
			return st.AcceptTask(ctx, projectID, taskID)
		})
	}
	return m, m.actionCmd("Reject", func(ctx context.Context) error {
		return st.RejectTask(ctx, projectID, taskID)
	})
}

func (m Model) startComplete() (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil {
		return m, nil
	}
	st := m.store
	projectID, taskID := t.ProjectID, t.ID
	return m, m.actionCmd("Complete", func(ctx context.Context) error {
		return st.CompleteTask(ctx, projectID, taskID)
	})
}
