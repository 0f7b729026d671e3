// Package aggregate derives completion rollups from the task collection: whole
// projects, per-member breakdowns, and the cross-project dashboard.
package aggregate

import (
	"math"

	"github.com/projectflow/projectflow/internal/model"
)

// Progress summarizes completion over a set of tasks
type Progress struct {
	TaskCount            int `json:"taskCount"`
	CompletedTaskCount   int `json:"completedTaskCount"`
	CompletionPercentage int `json:"completionPercentage"`
}

// MemberBreakdown is one member's share of a project's tasks
type MemberBreakdown struct {
	Member    model.User `json:"member"`
	IsManager bool       `json:"isManager"`
	Progress
}

// TeamProgress is the per-member view of a project. Tasks whose assignee is
// missing or no longer on the roster fall into Unassigned rather than any
// member's row.
type TeamProgress struct {
	Members    []MemberBreakdown `json:"members"`
	Unassigned Progress          `json:"unassigned"`
}

// DashboardStats rolls the whole visible project collection up for the
// dashboard: a count per status bucket and a global completion percentage.
type DashboardStats struct {
	TotalProjects int                         `json:"totalProjects"`
	StatusCounts  map[model.ProjectStatus]int `json:"statusCounts"`
	Progress
}

// ForTasks computes completion over a task collection. The percentage is
// round(completed/total*100), 0 when there are no tasks, and always in
// [0, 100].
func ForTasks(tasks []model.Task) Progress {
	p := Progress{TaskCount: len(tasks)}
	for _, t := range tasks {
		if t.Status == model.TaskCompleted {
			p.CompletedTaskCount++
		}
	}
	p.CompletionPercentage = percentage(p.CompletedTaskCount, p.TaskCount)
	return p
}

// ForProject computes the per-member breakdown over the project's normalized
// roster. Each member's percentage uses the same rounding rule, independently.
func ForProject(project *model.Project) TeamProgress {
	members := project.Members()
	byID := make(map[string]int, len(members))
	out := TeamProgress{Members: make([]MemberBreakdown, len(members))}
	for i, m := range members {
		byID[m.ID] = i
		out.Members[i] = MemberBreakdown{Member: m, IsManager: project.IsManager(m.ID)}
	}

	for _, t := range project.Tasks {
		idx := -1
		if t.AssignedTo != nil {
			if i, ok := byID[t.AssignedTo.ID]; ok {
				idx = i
			}
		}
		if idx < 0 {
			// Unassigned, or an orphaned assignment left behind by a
			// member removal.
			out.Unassigned.TaskCount++
			if t.Status == model.TaskCompleted {
				out.Unassigned.CompletedTaskCount++
			}
			continue
		}
		out.Members[idx].TaskCount++
		if t.Status == model.TaskCompleted {
			out.Members[idx].CompletedTaskCount++
		}
	}

	for i := range out.Members {
		out.Members[i].CompletionPercentage = percentage(out.Members[i].CompletedTaskCount, out.Members[i].TaskCount)
	}
	out.Unassigned.CompletionPercentage = percentage(out.Unassigned.CompletedTaskCount, out.Unassigned.TaskCount)
	return out
}

// ForDashboard rolls up the full project collection. The global percentage is
// round(sum of completed / sum of totals * 100), 0 when the denominator is 0.
func ForDashboard(projects []model.Project) DashboardStats {
	stats := DashboardStats{
		TotalProjects: len(projects),
		StatusCounts:  make(map[model.ProjectStatus]int),
	}
	for i := range projects {
		p := &projects[i]
		stats.StatusCounts[p.Status]++
		prog := ForTasks(p.Tasks)
		stats.TaskCount += prog.TaskCount
		stats.CompletedTaskCount += prog.CompletedTaskCount
	}
	stats.CompletionPercentage = percentage(stats.CompletedTaskCount, stats.TaskCount)
	return stats
}

func percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
