package model

import "time"

// ProjectStatus tracks where a project is in its life
type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "NotStarted"
	ProjectInProgress ProjectStatus = "InProgress"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectOnHold     ProjectStatus = "OnHold"
	ProjectCancelled  ProjectStatus = "Cancelled"
)

// Project represents a project and the tasks it owns
type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	Status         ProjectStatus `json:"status"`
	CreatedBy      *User         `json:"createdBy,omitempty"`
	ProjectManager *User         `json:"projectManager,omitempty"`
	TeamMembers    []User        `json:"teamMembers"`
	StartDate      *time.Time    `json:"startDate,omitempty"`
	EndDate        *time.Time    `json:"endDate,omitempty"`
	ClientName     string        `json:"clientName,omitempty"`
	ClientEmail    string        `json:"clientEmail,omitempty"`
	ClientCompany  string        `json:"clientCompany,omitempty"`
	Tasks          []Task        `json:"tasks"`

	// Server-derived rollups, recomputed locally by the aggregate package.
	TaskCount            int `json:"taskCount"`
	CompletedTaskCount   int `json:"completedTaskCount"`
	CompletionPercentage int `json:"completionPercentage"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeMembers returns the project roster with the manager guaranteed to be
// present and every id appearing exactly once, preserving first-seen order.
// Every boundary that reads or renders membership goes through this.
func NormalizeMembers(manager *User, members []User) []User {
	seen := make(map[string]bool, len(members)+1)
	out := make([]User, 0, len(members)+1)
	if manager != nil && manager.ID != "" {
		seen[manager.ID] = true
		out = append(out, *manager)
	}
	for _, m := range members {
		if m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

// Members returns the normalized roster for the project
func (p *Project) Members() []User {
	return NormalizeMembers(p.ProjectManager, p.TeamMembers)
}

// IsMember reports whether the user is on the project roster
func (p *Project) IsMember(userID string) bool {
	if userID == "" {
		return false
	}
	if p.IsManager(userID) {
		return true
	}
	for _, m := range p.TeamMembers {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// IsManager reports whether the user manages this project
func (p *Project) IsManager(userID string) bool {
	return p.ProjectManager != nil && userID != "" && p.ProjectManager.ID == userID
}

// FindTask looks up a task by id
func (p *Project) FindTask(taskID string) (*Task, bool) {
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			return &p.Tasks[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the project
func (p Project) Clone() Project {
	out := p
	if p.CreatedBy != nil {
		u := *p.CreatedBy
		out.CreatedBy = &u
	}
	if p.ProjectManager != nil {
		u := *p.ProjectManager
		out.ProjectManager = &u
	}
	if p.StartDate != nil {
		d := *p.StartDate
		out.StartDate = &d
	}
	if p.EndDate != nil {
		d := *p.EndDate
		out.EndDate = &d
	}
	out.TeamMembers = append([]User(nil), p.TeamMembers...)
	out.Tasks = make([]Task, len(p.Tasks))
	for i, t := range p.Tasks {
		out.Tasks[i] = t.Clone()
	}
	return out
}

// CloneProjects deep-copies a project collection
func CloneProjects(projects []Project) []Project {
	out := make([]Project, len(projects))
	for i, p := range projects {
		out[i] = p.Clone()
	}
	return out
}
