package api

import (
	"fmt"

	"github.com/projectflow/projectflow/internal/model"
)

// APIError is a non-2xx response from the server, carrying the server's own
// message when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// AuthError is a failed login or register attempt. It never mutates session
// state; the message is shown to the user as-is.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
	Avatar   string     `json:"avatar,omitempty"`
}

// ProjectRequest is the body of project create/update calls. Member and
// manager references are user ids; dates are ISO-8601 (YYYY-MM-DD) or empty.
type ProjectRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Status         string   `json:"status,omitempty"`
	ProjectManager string   `json:"projectManager"`
	TeamMembers    []string `json:"teamMembers,omitempty"`
	StartDate      string   `json:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty"`
	ClientName     string   `json:"clientName,omitempty"`
	ClientEmail    string   `json:"clientEmail,omitempty"`
	ClientCompany  string   `json:"clientCompany,omitempty"`
}

// TaskRequest is the body of task create/update calls. Zero-valued fields are
// left unchanged by updates.
type TaskRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	AssignedTo  string `json:"assignedTo,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	Status      string `json:"status,omitempty"`
}

// MyTask is a task from GET /tasks/mytasks, which carries the owning project's
// name alongside the task itself.
type MyTask struct {
	model.Task
	ProjectName string `json:"projectName"`
}

// NotificationList is the response of GET /notifications
type NotificationList struct {
	Data        []model.Notification `json:"data"`
	UnreadCount int                  `json:"unreadCount"`
}
