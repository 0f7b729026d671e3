package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/projectflow/projectflow/internal/logging"
	"github.com/projectflow/projectflow/internal/model"
	"github.com/projectflow/projectflow/internal/store"
)

// Pane represents which pane is focused
type Pane int

const (
	PaneProjects Pane = iota
	PaneTasks
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeHelp
)

// Model is the main TUI model
type Model struct {
	store    *store.Store
	projects []model.Project

	// UI state
	width      int
	height     int
	pane       Pane
	mode       Mode
	projCursor int
	taskCursor int

	spinner    spinner.Model
	refreshing bool
	message    string
}

// NewModel creates a new TUI model backed by the given store
func NewModel(st *store.Store) Model {
	logging.Logger.Debug("initializing dashboard model")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Primary)

	m := Model{
		store:   st,
		pane:    PaneProjects,
		mode:    ModeNormal,
		spinner: sp,
	}
	m.reloadSnapshot()
	return m
}

// reloadSnapshot copies the store's current project list into the model and
// clamps the cursors.
func (m *Model) reloadSnapshot() {
	m.projects = m.store.Projects()
	if m.projCursor >= len(m.projects) {
		m.projCursor = 0
	}
	if p := m.currentProject(); p == nil || m.taskCursor >= len(p.Tasks) {
		m.taskCursor = 0
	}
}

func (m *Model) currentProject() *model.Project {
	if m.projCursor < len(m.projects) {
		return &m.projects[m.projCursor]
	}
	return nil
}

func (m *Model) currentTask() *model.Task {
	p := m.currentProject()
	if p == nil {
		return nil
	}
	if m.taskCursor < len(p.Tasks) {
		return &p.Tasks[m.taskCursor]
	}
	return nil
}
