// Package lifecycle is the state machine for a task's (status, acceptance)
// pair. Every transition is checked here before the store talks to the
// server, so a view can never mutate state through a transition the rules
// forbid.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/projectflow/projectflow/internal/model"
)

// InvalidTransitionError reports a lifecycle transition whose precondition
// failed. It is surfaced to the user distinctly from server errors.
type InvalidTransitionError struct {
	Op     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s task: %s", e.Op, e.Reason)
}

// ValidationError reports a required field missing from user input. These are
// rejected before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Accept transitions the task's acceptance to Accepted. Only the assignee may
// accept, and only while acceptance is still Pending. Status is unchanged.
func Accept(actor *model.User, task *model.Task) error {
	if err := requireAssignee("accept", actor, task); err != nil {
		return err
	}
	if task.AcceptanceStatus != model.AcceptancePending {
		return &InvalidTransitionError{Op: "accept", Reason: fmt.Sprintf("acceptance is %s, not Pending", task.AcceptanceStatus)}
	}
	task.AcceptanceStatus = model.AcceptanceAccepted
	return nil
}

// Reject transitions the task's acceptance to RejectedByTeamMember. Only the
// assignee may reject, and only while acceptance is still Pending. The
// rejected state is terminal; there is no un-reject.
func Reject(actor *model.User, task *model.Task) error {
	if err := requireAssignee("reject", actor, task); err != nil {
		return err
	}
	if task.AcceptanceStatus != model.AcceptancePending {
		return &InvalidTransitionError{Op: "reject", Reason: fmt.Sprintf("acceptance is %s, not Pending", task.AcceptanceStatus)}
	}
	task.AcceptanceStatus = model.AcceptanceRejected
	return nil
}

// Complete marks the task Completed. Only the assignee may complete, the task
// must have been accepted first, and completing twice is an error.
func Complete(actor *model.User, task *model.Task) error {
	if err := requireAssignee("complete", actor, task); err != nil {
		return err
	}
	if task.AcceptanceStatus != model.AcceptanceAccepted {
		return &InvalidTransitionError{Op: "complete", Reason: fmt.Sprintf("acceptance is %s, not Accepted", task.AcceptanceStatus)}
	}
	if task.Status == model.TaskCompleted {
		return &InvalidTransitionError{Op: "complete", Reason: "task is already Completed"}
	}
	task.Status = model.TaskCompleted
	return nil
}

// ValidateNew checks the fields of a task about to be created: the title must
// be non-empty after trimming, and an assignee, if given, must currently be on
// the project roster.
func ValidateNew(project *model.Project, title string, assigneeID string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "a task title is required"}
	}
	if assigneeID != "" && !project.IsMember(assigneeID) {
		return &ValidationError{Field: "assignedTo", Reason: "assignee is not a member of the project"}
	}
	return nil
}

func requireAssignee(op string, actor *model.User, task *model.Task) error {
	if actor == nil {
		return &InvalidTransitionError{Op: op, Reason: "no authenticated user"}
	}
	if !task.IsAssignedTo(actor.ID) {
		return &InvalidTransitionError{Op: op, Reason: "only the assignee may do this"}
	}
	return nil
}
