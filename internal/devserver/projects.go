package devserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/projectflow/projectflow/internal/model"
)

type projectRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Status         string   `json:"status"`
	ProjectManager string   `json:"projectManager"`
	TeamMembers    []string `json:"teamMembers"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	ClientName     string   `json:"clientName"`
	ClientEmail    string   `json:"clientEmail"`
	ClientCompany  string   `json:"clientCompany"`
}

func parseProjectStatus(s string) model.ProjectStatus {
	switch model.ProjectStatus(s) {
	case model.ProjectNotStarted, model.ProjectInProgress, model.ProjectCompleted,
		model.ProjectOnHold, model.ProjectCancelled:
		return model.ProjectStatus(s)
	}
	return model.ProjectNotStarted
}

func (s *Server) handleListProjects(c echo.Context) error {
	actor := currentUser(c)
	ids, err := s.projectIDsForUser(actor)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	projects := make([]model.Project, 0, len(ids))
	for _, id := range ids {
		p, err := s.loadProject(id)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
		projects = append(projects, p)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleGetProject(c echo.Context) error {
	actor := currentUser(c)
	p, err := s.loadProject(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	if actor.Role != model.RoleAdmin && !p.IsMember(actor.ID) &&
		(p.CreatedBy == nil || p.CreatedBy.ID != actor.ID) {
		return fail(c, http.StatusForbidden, "you are not a member of this project")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleAssignableUsers(c echo.Context) error {
	users, err := s.listUsers()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	actor := currentUser(c)
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "project name is required")
	}
	if strings.TrimSpace(req.ProjectManager) == "" {
		return fail(c, http.StatusBadRequest, "a project manager must be selected")
	}
	manager, err := s.getUser(req.ProjectManager)
	if err != nil {
		return fail(c, http.StatusBadRequest, "project manager not found")
	}

	projectID := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO projects (id, name, description, status, manager_id, created_by,
			start_date, end_date, client_name, client_email, client_company,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		projectID, req.Name, req.Description, string(parseProjectStatus(req.Status)),
		manager.ID, actor.ID, req.StartDate, req.EndDate,
		req.ClientName, req.ClientEmail, req.ClientCompany, now(), now())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	// The creator and the manager are always on the roster; duplicates in
	// the request collapse through the primary key.
	memberIDs := append([]string{actor.ID, manager.ID}, req.TeamMembers...)
	for _, id := range memberIDs {
		if id == "" {
			continue
		}
		if err := s.addRosterMember(projectID, id); err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}

	p, err := s.loadProject(projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	for _, m := range p.TeamMembers {
		s.notify(actor, m, model.NotificationGeneric,
			actor.Name+" added you to the project '"+p.Name+"'.",
			"/projects/"+projectID, "")
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	actor := currentUser(c)
	projectID := c.Param("id")
	managerID, err := s.managerID(projectID)
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	if !isManagerOrAdmin(actor, managerID) {
		return fail(c, http.StatusForbidden, "only the project manager or an admin can update this project")
	}

	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "project name is required")
	}

	newManagerID := managerID
	if strings.TrimSpace(req.ProjectManager) != "" {
		manager, err := s.getUser(req.ProjectManager)
		if err != nil {
			return fail(c, http.StatusBadRequest, "project manager not found")
		}
		newManagerID = manager.ID
	}

	_, err = s.db.Exec(`
		UPDATE projects SET name = $1, description = $2, status = $3, manager_id = $4,
			start_date = $5, end_date = $6, client_name = $7, client_email = $8,
			client_company = $9, updated_at = $10
		WHERE id = $11`,
		req.Name, req.Description, string(parseProjectStatus(req.Status)), newManagerID,
		req.StartDate, req.EndDate, req.ClientName, req.ClientEmail, req.ClientCompany,
		now(), projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	if req.TeamMembers != nil {
		if _, err := s.db.Exec(`DELETE FROM project_members WHERE project_id = $1`, projectID); err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
		for _, id := range append(req.TeamMembers, newManagerID) {
			if id == "" {
				continue
			}
			if err := s.addRosterMember(projectID, id); err != nil {
				return fail(c, http.StatusInternalServerError, "internal error")
			}
		}
	} else if newManagerID != managerID {
		if err := s.addRosterMember(projectID, newManagerID); err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}

	p, err := s.loadProject(projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	actor := currentUser(c)
	projectID := c.Param("id")
	managerID, err := s.managerID(projectID)
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	if !isManagerOrAdmin(actor, managerID) {
		return fail(c, http.StatusForbidden, "only the project manager or an admin can delete this project")
	}

	// Project deletion cascades to everything the project owns.
	for _, q := range []string{
		`DELETE FROM tasks WHERE project_id = $1`,
		`DELETE FROM project_members WHERE project_id = $1`,
		`DELETE FROM projects WHERE id = $1`,
	} {
		if _, err := s.db.Exec(q, projectID); err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAddMember(c echo.Context) error {
	actor := currentUser(c)
	projectID := c.Param("id")
	managerID, err := s.managerID(projectID)
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	if !isManagerOrAdmin(actor, managerID) {
		return fail(c, http.StatusForbidden, "only the project manager or an admin can manage members")
	}

	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		return fail(c, http.StatusBadRequest, "a userId is required")
	}
	member, err := s.getUser(req.UserID)
	if err != nil {
		return fail(c, http.StatusBadRequest, "user not found")
	}

	if err := s.addRosterMember(projectID, member.ID); err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	s.touchProject(projectID)

	p, err := s.loadProject(projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	s.notify(actor, member, model.NotificationGeneric,
		actor.Name+" added you to the project '"+p.Name+"'.",
		"/projects/"+projectID, "")
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleRemoveMember(c echo.Context) error {
	actor := currentUser(c)
	projectID := c.Param("id")
	userID := c.Param("userId")
	managerID, err := s.managerID(projectID)
	if err != nil {
		return fail(c, http.StatusNotFound, "project not found")
	}
	if !isManagerOrAdmin(actor, managerID) {
		return fail(c, http.StatusForbidden, "only the project manager or an admin can manage members")
	}
	if userID == managerID {
		return fail(c, http.StatusBadRequest, "the project manager cannot be removed from the roster")
	}

	// Tasks assigned to the removed member keep their assignment; the
	// client surfaces them as unassigned in aggregation.
	if _, err := s.db.Exec(`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID); err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	s.touchProject(projectID)

	p, err := s.loadProject(projectID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, p)
}
