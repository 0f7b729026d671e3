package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/projectflow/projectflow/internal/api"
	"github.com/projectflow/projectflow/internal/lifecycle"
	"github.com/projectflow/projectflow/internal/logging"
	"github.com/projectflow/projectflow/internal/model"
	"github.com/projectflow/projectflow/internal/policy"
)

// Every mutation below follows the RefreshOnMutation policy: validate locally,
// call the API, then re-fetch the full authoritative collection. The client
// never patches its snapshot optimistically; with several views rendering from
// the same state, local patching is how stale and duplicated memberships crept
// in historically.

func (s *Store) afterMutation(ctx context.Context, op string) error {
	if err := s.RefreshProjects(ctx); err != nil {
		logging.Logger.WithError(err).WithField("op", op).Warn("post-mutation refresh failed")
		return err
	}
	return nil
}

// requireCapability re-validates the policy server-independently. Views should
// already have hidden actions the actor cannot take; this is the backstop.
func (s *Store) requireCapability(projectID string, want policy.Capability) (*model.User, model.Project, error) {
	actor := s.Actor()
	if actor == nil {
		return nil, model.Project{}, ErrNotAuthenticated
	}
	project, ok := s.Project(projectID)
	if !ok {
		return nil, model.Project{}, ErrProjectNotFound
	}
	if !policy.CapabilitiesFor(actor, &project, s.policy).Has(want) {
		return nil, model.Project{}, ErrAuthorizationDenied
	}
	return actor, project, nil
}

// CreateProject creates a project. Any authenticated actor may create one; a
// name and a selected manager are required before any network call is made.
func (s *Store) CreateProject(ctx context.Context, req api.ProjectRequest) error {
	if s.Actor() == nil {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(req.Name) == "" {
		return &lifecycle.ValidationError{Field: "name", Reason: "a project name is required"}
	}
	if strings.TrimSpace(req.ProjectManager) == "" {
		return &lifecycle.ValidationError{Field: "projectManager", Reason: "a project manager must be selected"}
	}
	if _, err := s.api.CreateProject(ctx, req); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return s.afterMutation(ctx, "create project")
}

// UpdateProject updates a project's fields
func (s *Store) UpdateProject(ctx context.Context, projectID string, req api.ProjectRequest) error {
	if _, _, err := s.requireCapability(projectID, policy.ManageProject); err != nil {
		return err
	}
	if _, err := s.api.UpdateProject(ctx, projectID, req); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return s.afterMutation(ctx, "update project")
}

// DeleteProject deletes a project and everything it owns
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	if _, _, err := s.requireCapability(projectID, policy.ManageProject); err != nil {
		return err
	}
	if err := s.api.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return s.afterMutation(ctx, "delete project")
}

// AddMember adds a user to the project roster
func (s *Store) AddMember(ctx context.Context, projectID, userID string) error {
	if _, _, err := s.requireCapability(projectID, policy.ManageMembers); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return &lifecycle.ValidationError{Field: "userId", Reason: "a user must be selected"}
	}
	if _, err := s.api.AddMember(ctx, projectID, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return s.afterMutation(ctx, "add member")
}

// RemoveMember removes a user from the project roster. Tasks assigned to the
// removed user keep their assignment; aggregation surfaces them as unassigned.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID string) error {
	if _, _, err := s.requireCapability(projectID, policy.ManageMembers); err != nil {
		return err
	}
	if _, err := s.api.RemoveMember(ctx, projectID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return s.afterMutation(ctx, "remove member")
}

// CreateTask creates a task in the project
func (s *Store) CreateTask(ctx context.Context, projectID string, req api.TaskRequest) error {
	_, project, err := s.requireCapability(projectID, policy.CreateTask)
	if err != nil {
		return err
	}
	if err := lifecycle.ValidateNew(&project, req.Title, req.AssignedTo); err != nil {
		return err
	}
	if _, err := s.api.CreateTask(ctx, projectID, req); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return s.afterMutation(ctx, "create task")
}

// UpdateTask updates a task's fields. The manager, an admin, or the assignee
// may update.
func (s *Store) UpdateTask(ctx context.Context, projectID, taskID string, req api.TaskRequest) error {
	actor := s.Actor()
	if actor == nil {
		return ErrNotAuthenticated
	}
	if project, ok := s.Project(projectID); ok {
		task, found := project.FindTask(taskID)
		if !found {
			return ErrTaskNotFound
		}
		allowed := policy.CapabilitiesFor(actor, &project, s.policy).Has(policy.ManageProject) || task.IsAssignedTo(actor.ID)
		if !allowed {
			return ErrAuthorizationDenied
		}
	}
	if _, err := s.api.UpdateTask(ctx, projectID, taskID, req); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return s.afterMutation(ctx, "update task")
}

// DeleteTask removes a task. There is no state precondition; only the
// capability matters.
func (s *Store) DeleteTask(ctx context.Context, projectID, taskID string) error {
	if _, _, err := s.requireCapability(projectID, policy.DeleteTask); err != nil {
		return err
	}
	if err := s.api.DeleteTask(ctx, projectID, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return s.afterMutation(ctx, "delete task")
}

// AcceptTask records the assignee taking on a task
func (s *Store) AcceptTask(ctx context.Context, projectID, taskID string) error {
	if err := s.checkTransition(projectID, taskID, lifecycle.Accept); err != nil {
		return err
	}
	if _, err := s.api.UpdateTaskAcceptance(ctx, projectID, taskID, model.AcceptanceAccepted); err != nil {
		return fmt.Errorf("accept task: %w", err)
	}
	return s.afterMutation(ctx, "accept task")
}

// RejectTask records the assignee declining a task. Rejection is terminal.
func (s *Store) RejectTask(ctx context.Context, projectID, taskID string) error {
	if err := s.checkTransition(projectID, taskID, lifecycle.Reject); err != nil {
		return err
	}
	if _, err := s.api.UpdateTaskAcceptance(ctx, projectID, taskID, model.AcceptanceRejected); err != nil {
		return fmt.Errorf("reject task: %w", err)
	}
	return s.afterMutation(ctx, "reject task")
}

// CompleteTask marks an accepted task as done
func (s *Store) CompleteTask(ctx context.Context, projectID, taskID string) error {
	if err := s.checkTransition(projectID, taskID, lifecycle.Complete); err != nil {
		return err
	}
	if _, err := s.api.UpdateTask(ctx, projectID, taskID, api.TaskRequest{Status: string(model.TaskCompleted)}); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return s.afterMutation(ctx, "complete task")
}

// checkTransition runs a lifecycle transition against a copy of the local
// task to catch precondition violations before any network call. When the
// project is not in the snapshot yet (for example right after restoring a
// session), the server remains the authority.
func (s *Store) checkTransition(projectID, taskID string, transition func(*model.User, *model.Task) error) error {
	actor := s.Actor()
	if actor == nil {
		return ErrNotAuthenticated
	}
	project, ok := s.Project(projectID)
	if !ok {
		return nil
	}
	task, found := project.FindTask(taskID)
	if !found {
		return ErrTaskNotFound
	}
	probe := task.Clone()
	return transition(actor, &probe)
}

// MyTasks fetches the tasks assigned to the actor across all projects
func (s *Store) MyTasks(ctx context.Context) ([]api.MyTask, error) {
	if s.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	return s.api.MyTasks(ctx)
}

// AssignableUsers fetches every user a project or task can reference
func (s *Store) AssignableUsers(ctx context.Context) ([]model.User, error) {
	if s.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	return s.api.AssignableUsers(ctx)
}

// MarkNotificationRead marks one notification as read and refreshes the list
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	if s.Token() == "" {
		return ErrNotAuthenticated
	}
	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return s.RefreshNotifications(ctx)
}

// MarkAllNotificationsRead marks everything read and refreshes the list
func (s *Store) MarkAllNotificationsRead(ctx context.Context) error {
	if s.Token() == "" {
		return ErrNotAuthenticated
	}
	if err := s.api.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return s.RefreshNotifications(ctx)
}
