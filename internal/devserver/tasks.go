package devserver

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/projectflow/projectflow/internal/model"
)

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
}

type acceptanceRequest struct {
	AcceptanceStatus string `json:"acceptanceStatus" validate:"required"`
}

func (s *Server) handleCreateTask(c echo.Context) error {
	actor := currentUser(c)
	projectID := c.Param("id")
	managerID, err := s.managerID(projectID)
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	if !isManagerOrAdmin(actor, managerID) {
		return fail(c, http.StatusForbidden, "only the project manager or an admin can create tasks")
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Title) == "" {
		return fail(c, http.StatusBadRequest, "a task title is required")
	}

	project, err := s.loadProject(projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	if req.AssignedTo != "" && !project.IsMember(req.AssignedTo) {
		return fail(c, http.StatusBadRequest, "assignee is not a member of the project")
	}

	taskID := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO tasks (id, project_id, title, description, assigned_to, due_date,
			status, acceptance_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		taskID, projectID, strings.TrimSpace(req.Title), req.Description, req.AssignedTo,
		req.DueDate, string(model.TaskNotStarted), string(model.AcceptancePending), now(), now())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	s.touchProject(projectID)

	task, err := s.getTask(projectID, taskID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	if task.AssignedTo != nil {
		s.notify(actor, *task.AssignedTo, model.NotificationTaskAssigned,
			actor.Name+" assigned you a new task: '"+task.Title+"'.",
			"/projects/"+projectID, task.Title)
	}
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	actor := currentUser(c)
	projectID := c.Param("id")
	taskID := c.Param("taskId")

	managerID, err := s.managerID(projectID)
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	task, err := s.getTask(projectID, taskID)
	if err != nil {
		return fail(c, http.StatusNotFound, "task not found")
	}
	if !isManagerOrAdmin(actor, managerID) && !task.IsAssignedTo(actor.ID) {
		return fail(c, http.StatusForbidden, "you are not authorized to update this task")
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request")
	}

	title := task.Title
	if strings.TrimSpace(req.Title) != "" {
		title = strings.TrimSpace(req.Title)
	}
	description := task.Description
	if req.Description != "" {
		description = req.Description
	}
	assignedTo := ""
	if task.AssignedTo != nil {
		assignedTo = task.AssignedTo.ID
	}
	if req.AssignedTo != "" {
		project, err := s.loadProject(projectID)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
		if !project.IsMember(req.AssignedTo) {
			return fail(c, http.StatusBadRequest, "assignee is not a member of the project")
		}
		assignedTo = req.AssignedTo
	}
	dueDate := ""
	if task.DueDate != nil {
		dueDate = task.DueDate.Format("2006-01-02")
	}
	if req.DueDate != "" {
		dueDate = req.DueDate
	}

	status := task.Status
	if req.Status != "" {
		switch model.TaskStatus(req.Status) {
		case model.TaskNotStarted, model.TaskInProgress, model.TaskCompleted:
			status = model.TaskStatus(req.Status)
		default:
			return fail(c, http.StatusBadRequest, "unknown task status %q", req.Status)
		}
		// A task may only be completed once its assignee accepted it.
		if status == model.TaskCompleted && task.AcceptanceStatus != model.AcceptanceAccepted {
			return fail(c, http.StatusConflict, "task cannot be completed before it is accepted")
		}
	}

	_, err = s.db.Exec(`
		UPDATE tasks SET title = $1, description = $2, assigned_to = $3, due_date = $4,
			status = $5, updated_at = $6
		WHERE id = $7 AND project_id = $8`,
		title, description, assignedTo, dueDate, string(status), now(), taskID, projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	s.touchProject(projectID)

	updated, err := s.getTask(projectID, taskID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	actor := currentUser(c)
	projectID := c.Param("id")
	managerID, err := s.managerID(projectID)
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	if !isManagerOrAdmin(actor, managerID) {
		return fail(c, http.StatusForbidden, "only the project manager or an admin can delete tasks")
	}

	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = $1 AND project_id = $2`,
		c.Param("taskId"), projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fail(c, http.StatusNotFound, "task not found")
	}
	s.touchProject(projectID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleTaskAcceptance(c echo.Context) error {
	actor := currentUser(c)
	projectID := c.Param("id")
	taskID := c.Param("taskId")

	managerID, err := s.managerID(projectID)
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	task, err := s.getTask(projectID, taskID)
	if err != nil {
		return fail(c, http.StatusNotFound, "task not found")
	}
	if !task.IsAssignedTo(actor.ID) {
		return fail(c, http.StatusForbidden, "you are not assigned to this task")
	}

	var req acceptanceRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request")
	}

	newStatus := model.AcceptanceStatus(req.AcceptanceStatus)
	if newStatus != model.AcceptanceAccepted && newStatus != model.AcceptanceRejected {
		return fail(c, http.StatusBadRequest, "acceptanceStatus must be Accepted or RejectedByTeamMember")
	}
	if task.AcceptanceStatus != model.AcceptancePending {
		return fail(c, http.StatusConflict, "task acceptance is already %s", task.AcceptanceStatus)
	}

	_, err = s.db.Exec(`UPDATE tasks SET acceptance_status = $1, updated_at = $2 WHERE id = $3`,
		string(newStatus), now(), taskID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	s.touchProject(projectID)

	if manager, err := s.getUser(managerID); err == nil {
		switch newStatus {
		case model.AcceptanceAccepted:
			s.notify(actor, manager, model.NotificationTaskAccepted,
				actor.Name+" accepted the task: '"+task.Title+"'.",
				"/projects/"+projectID, task.Title)
		case model.AcceptanceRejected:
			s.notify(actor, manager, model.NotificationTaskRejected,
				actor.Name+" rejected the task: '"+task.Title+"'.",
				"/projects/"+projectID, task.Title)
		}
	}

	updated, err := s.getTask(projectID, taskID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleMyTasks(c echo.Context) error {
	actor := currentUser(c)
	rows, err := s.db.Query(`
		SELECT t.id, t.project_id, t.title, t.description, t.assigned_to, t.due_date,
		       t.status, t.acceptance_status, t.created_at, t.updated_at, p.name
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.assigned_to = $1
		ORDER BY t.created_at ASC, t.id ASC`, actor.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	defer rows.Close()

	type myTask struct {
		model.Task
		ProjectName string `json:"projectName"`
	}
	tasks := make([]myTask, 0)
	for rows.Next() {
		var t model.Task
		var assignedTo, dueDate, createdAt, updatedAt, projectName string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &assignedTo,
			&dueDate, &t.Status, &t.AcceptanceStatus, &createdAt, &updatedAt, &projectName); err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
		if assignedTo != "" {
			if u, err := s.getUser(assignedTo); err == nil {
				t.AssignedTo = &u
			}
		}
		t.DueDate = parseTime(dueDate)
		if ts := parseTime(createdAt); ts != nil {
			t.CreatedAt = *ts
		}
		if ts := parseTime(updatedAt); ts != nil {
			t.UpdatedAt = *ts
		}
		tasks = append(tasks, myTask{Task: t, ProjectName: projectName})
	}
	if err := rows.Err(); err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(projectID, taskID string) (model.Task, error) {
	row := s.db.QueryRow(`
		SELECT id, project_id, title, description, assigned_to, due_date,
		       status, acceptance_status, created_at, updated_at
		FROM tasks WHERE id = $1 AND project_id = $2`, taskID, projectID)
	t, err := s.scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, err
	}
	return t, err
}
