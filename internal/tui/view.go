package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/projectflow/projectflow/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.mode == ModeHelp {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderHelp(), m.renderStatusBar())
	}

	sidebar := m.renderSidebar()
	taskList := m.renderTaskList()
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, taskList)

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

func (m Model) renderSidebar() string {
	sidebarWidth := 28
	var s string

	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("ProjectFlow") + "\n"
	if actor := m.store.Actor(); actor != nil {
		s += HelpStyle.Render(actor.Name) + "\n"
	}
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", 22)) + "\n\n"

	if len(m.projects) == 0 {
		s += HelpStyle.Render("No projects yet.")
	}

	for i, p := range m.projects {
		cursor := "  "
		style := ItemStyle
		if i == m.projCursor {
			cursor = "❯ "
			if m.pane == PaneProjects {
				style = ItemSelectedStyle
			}
		}

		line := fmt.Sprintf("%s%-14s %3d%%", cursor, truncate(p.Name, 14), p.CompletionPercentage)
		s += style.Render(line) + "\n"
	}

	if unread := m.store.UnreadCount(); unread > 0 {
		s += "\n" + lipgloss.NewStyle().Foreground(StatusActive).Render(fmt.Sprintf("● %d unread", unread))
	}

	return SidebarStyle.Width(sidebarWidth).Height(m.height - 2).Render(s)
}

func (m Model) renderTaskList() string {
	width := m.width - 30
	var s string

	p := m.currentProject()
	if p == nil {
		return TaskListStyle.Width(width).Height(m.height - 2).Render("No project selected")
	}

	header := fmt.Sprintf("%s  %d/%d done (%d%%)",
		p.Name, p.CompletedTaskCount, p.TaskCount, p.CompletionPercentage)
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 1))) + "\n\n"

	if len(p.Tasks) == 0 {
		s += HelpStyle.Render("  No tasks in this project.")
	}

	actor := m.store.Actor()
	for i, t := range p.Tasks {
		cursor := "  "
		style := ItemStyle
		if i == m.taskCursor && m.pane == PaneTasks {
			cursor = "❯ "
			style = ItemSelectedStyle
		}

		icon := "[ ]"
		switch {
		case t.Status == model.TaskCompleted:
			icon = "[x]"
			style = TaskDoneStyle
		case t.Status == model.TaskInProgress:
			icon = "[~]"
		}

		assignee := "unassigned"
		if t.AssignedTo != nil {
			assignee = t.AssignedTo.Name
			if actor != nil && t.AssignedTo.ID == actor.ID {
				assignee = "you"
			}
		}

		line := fmt.Sprintf("%s%s %-*s", cursor, icon, max(width-40, 10), truncate(t.Title, max(width-40, 10)))
		s += style.Render(line) + " " + AcceptanceBadge(t.AcceptanceStatus) + " " + HelpStyle.Render(assignee) + "\n"
	}

	return TaskListStyle.Width(width).Height(m.height - 2).Render(s)
}

func (m Model) renderStatusBar() string {
	left := "tab: pane  a: accept  r: reject  c: complete  R: refresh  ?: help  q: quit"
	if m.refreshing {
		left = m.spinner.View() + " refreshing..."
	} else if m.message != "" {
		left = m.message
	} else if m.store.LastError() != "" {
		left = "Last refresh failed: " + m.store.LastError()
	}
	return StatusBarStyle.Width(m.width).Render(left)
}

func (m Model) renderHelp() string {
	help := `
  ProjectFlow dashboard

  Navigation
    ↑/k ↓/j      move cursor
    ←/h →/l tab  switch pane

  Tasks (assignee only)
    a            accept the selected task
    r            reject the selected task
    c            complete the selected accepted task

  Other
    R            refresh from the server
    esc          clear message
    q            quit

  Press any key to close help.
`
	return TaskListStyle.Width(m.width).Height(m.height - 2).Render(help)
}
