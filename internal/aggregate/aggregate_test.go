package aggregate

import (
	"testing"

	"github.com/projectflow/projectflow/internal/model"
)

func task(id string, status model.TaskStatus, assignee *model.User) model.Task {
	return model.Task{ID: id, ProjectID: "p1", Title: "task " + id, Status: status, AssignedTo: assignee}
}

func TestForTasks(t *testing.T) {
	tests := []struct {
		name          string
		tasks         []model.Task
		wantCompleted int
		wantPct       int
	}{
		{"empty collection", nil, 0, 0},
		{"half done", []model.Task{
			task("1", model.TaskCompleted, nil),
			task("2", model.TaskNotStarted, nil),
		}, 1, 50},
		{"one of three rounds up", []model.Task{
			task("1", model.TaskCompleted, nil),
			task("2", model.TaskInProgress, nil),
			task("3", model.TaskNotStarted, nil),
		}, 1, 33},
		{"two of three rounds up", []model.Task{
			task("1", model.TaskCompleted, nil),
			task("2", model.TaskCompleted, nil),
			task("3", model.TaskNotStarted, nil),
		}, 2, 67},
		{"all done", []model.Task{
			task("1", model.TaskCompleted, nil),
			task("2", model.TaskCompleted, nil),
		}, 2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForTasks(tt.tasks)
			if got.TaskCount != len(tt.tasks) {
				t.Errorf("TaskCount = %d, want %d", got.TaskCount, len(tt.tasks))
			}
			if got.CompletedTaskCount != tt.wantCompleted {
				t.Errorf("CompletedTaskCount = %d, want %d", got.CompletedTaskCount, tt.wantCompleted)
			}
			if got.CompletionPercentage != tt.wantPct {
				t.Errorf("CompletionPercentage = %d, want %d", got.CompletionPercentage, tt.wantPct)
			}
		})
	}
}

func TestForProject(t *testing.T) {
	mgr := &model.User{ID: "mgr", Name: "Mallory"}
	alice := &model.User{ID: "alice", Name: "Alice"}

	p := &model.Project{
		ID:             "p1",
		ProjectManager: mgr,
		TeamMembers:    []model.User{*alice},
		Tasks: []model.Task{
			task("1", model.TaskCompleted, alice),
			task("2", model.TaskNotStarted, alice),
			task("3", model.TaskCompleted, mgr),
			task("4", model.TaskNotStarted, nil),
			// Assignment left behind by a member removal.
			task("5", model.TaskCompleted, &model.User{ID: "gone", Name: "Gone"}),
		},
	}

	team := ForProject(p)
	if len(team.Members) != 2 {
		t.Fatalf("got %d member rows, want 2", len(team.Members))
	}

	byID := make(map[string]MemberBreakdown)
	for _, m := range team.Members {
		byID[m.Member.ID] = m
	}

	if got := byID["alice"]; got.TaskCount != 2 || got.CompletedTaskCount != 1 || got.CompletionPercentage != 50 {
		t.Errorf("alice = %d/%d (%d%%), want 1/2 (50%%)", got.CompletedTaskCount, got.TaskCount, got.CompletionPercentage)
	}
	if got := byID["mgr"]; got.TaskCount != 1 || got.CompletedTaskCount != 1 || !got.IsManager {
		t.Errorf("manager row wrong: %+v", got)
	}

	// The unassigned task and the orphaned assignment both land in the
	// unassigned bucket, never in a member's row.
	if team.Unassigned.TaskCount != 2 || team.Unassigned.CompletedTaskCount != 1 {
		t.Errorf("unassigned = %d/%d, want 1/2", team.Unassigned.CompletedTaskCount, team.Unassigned.TaskCount)
	}

	total := team.Unassigned.TaskCount
	for _, m := range team.Members {
		total += m.TaskCount
	}
	if total != len(p.Tasks) {
		t.Errorf("rows account for %d tasks, want %d", total, len(p.Tasks))
	}
}

func TestForDashboard(t *testing.T) {
	projects := []model.Project{
		{
			ID: "p1", Status: model.ProjectInProgress,
			Tasks: []model.Task{
				task("1", model.TaskCompleted, nil),
				task("2", model.TaskNotStarted, nil),
			},
		},
		{
			ID: "p2", Status: model.ProjectInProgress,
			Tasks: []model.Task{
				task("3", model.TaskCompleted, nil),
			},
		},
		{ID: "p3", Status: model.ProjectNotStarted},
	}

	stats := ForDashboard(projects)
	if stats.TotalProjects != 3 {
		t.Errorf("TotalProjects = %d, want 3", stats.TotalProjects)
	}
	if stats.StatusCounts[model.ProjectInProgress] != 2 || stats.StatusCounts[model.ProjectNotStarted] != 1 {
		t.Errorf("StatusCounts = %v", stats.StatusCounts)
	}
	if stats.TaskCount != 3 || stats.CompletedTaskCount != 2 {
		t.Errorf("tasks = %d/%d, want 2/3", stats.CompletedTaskCount, stats.TaskCount)
	}
	if stats.CompletionPercentage != 67 {
		t.Errorf("CompletionPercentage = %d, want 67", stats.CompletionPercentage)
	}
}

func TestForDashboardEmpty(t *testing.T) {
	stats := ForDashboard(nil)
	if stats.TotalProjects != 0 || stats.TaskCount != 0 || stats.CompletionPercentage != 0 {
		t.Errorf("empty dashboard = %+v", stats)
	}
}
