package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/projectflow/projectflow/internal/model"
)

// Color palette
var (
	// Task status colors
	StatusDone    = lipgloss.Color("#95E1A3") // Green
	StatusActive  = lipgloss.Color("#FFE66D") // Yellow
	StatusIdle    = lipgloss.Color("#6C757D") // Gray
	StatusBlocked = lipgloss.Color("#FF6B6B") // Red

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	SidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	TaskListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	ItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	ItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// StatusColor returns the color used to render a task status
func StatusColor(status model.TaskStatus) lipgloss.Color {
	switch status {
	case model.TaskCompleted:
		return StatusDone
	case model.TaskInProgress:
		return StatusActive
	default:
		return StatusIdle
	}
}

// AcceptanceBadge renders the acceptance state of a task
func AcceptanceBadge(status model.AcceptanceStatus) string {
	switch status {
	case model.AcceptanceAccepted:
		return lipgloss.NewStyle().Foreground(StatusDone).Render("accepted")
	case model.AcceptanceRejected:
		return lipgloss.NewStyle().Foreground(StatusBlocked).Render("rejected")
	default:
		return lipgloss.NewStyle().Foreground(StatusActive).Render("pending")
	}
}
