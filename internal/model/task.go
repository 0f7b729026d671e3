package model

import "time"

// TaskStatus tracks how far along a task is
type TaskStatus string

const (
	TaskNotStarted TaskStatus = "NotStarted"
	TaskInProgress TaskStatus = "InProgress"
	TaskCompleted  TaskStatus = "Completed"
)

// AcceptanceStatus tracks whether the assignee has taken on the task
type AcceptanceStatus string

const (
	AcceptancePending  AcceptanceStatus = "Pending"
	AcceptanceAccepted AcceptanceStatus = "Accepted"
	AcceptanceRejected AcceptanceStatus = "RejectedByTeamMember"
)

// Task represents a single unit of work inside a project
type Task struct {
	ID               string           `json:"id"`
	ProjectID        string           `json:"projectId"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	AssignedTo       *User            `json:"assignedTo,omitempty"`
	DueDate          *time.Time       `json:"dueDate,omitempty"`
	Status           TaskStatus       `json:"status"`
	AcceptanceStatus AcceptanceStatus `json:"acceptanceStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// NewTask creates a task in its initial state
func NewTask(id, projectID, title string) Task {
	now := time.Now()
	return Task{
		ID:               id,
		ProjectID:        projectID,
		Title:            title,
		Status:           TaskNotStarted,
		AcceptanceStatus: AcceptancePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsAssignedTo reports whether the task is assigned to the given user
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && t.AssignedTo.ID == userID
}

// IsOverdue returns true if the task is past its due date and not completed
func (t *Task) IsOverdue() bool {
	if t.DueDate == nil || t.Status == TaskCompleted {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return t.DueDate.Before(today)
}

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	out := t
	if t.AssignedTo != nil {
		u := *t.AssignedTo
		out.AssignedTo = &u
	}
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	return out
}
