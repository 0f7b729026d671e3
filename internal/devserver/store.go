package devserver

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/projectflow/projectflow/internal/aggregate"
	"github.com/projectflow/projectflow/internal/model"
)

// now returns the stored timestamp format. Nanosecond precision keeps
// created_at ordering stable for rows inserted within the same second.
func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (s *Server) getUser(id string) (model.User, error) {
	var u model.User
	err := s.db.QueryRow(`SELECT id, name, email, role, avatar FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.AvatarURL)
	return u, err
}

func (s *Server) listUsers() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT id, name, email, role, avatar FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.AvatarURL); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// loadProject assembles the full project document: roster, tasks, and the
// derived completion rollups.
func (s *Server) loadProject(id string) (model.Project, error) {
	var p model.Project
	var managerID, createdBy, startDate, endDate string
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, name, description, status, manager_id, created_by,
		       start_date, end_date, client_name, client_email, client_company,
		       created_at, updated_at
		FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Status, &managerID, &createdBy,
			&startDate, &endDate, &p.ClientName, &p.ClientEmail, &p.ClientCompany,
			&createdAt, &updatedAt)
	if err != nil {
		return model.Project{}, err
	}

	if manager, err := s.getUser(managerID); err == nil {
		p.ProjectManager = &manager
	}
	if creator, err := s.getUser(createdBy); err == nil {
		p.CreatedBy = &creator
	}
	p.StartDate = parseTime(startDate)
	p.EndDate = parseTime(endDate)
	if t := parseTime(createdAt); t != nil {
		p.CreatedAt = *t
	}
	if t := parseTime(updatedAt); t != nil {
		p.UpdatedAt = *t
	}

	members, err := s.loadMembers(id)
	if err != nil {
		return model.Project{}, err
	}
	p.TeamMembers = model.NormalizeMembers(p.ProjectManager, members)

	p.Tasks, err = s.loadTasks(id)
	if err != nil {
		return model.Project{}, err
	}

	prog := aggregate.ForTasks(p.Tasks)
	p.TaskCount = prog.TaskCount
	p.CompletedTaskCount = prog.CompletedTaskCount
	p.CompletionPercentage = prog.CompletionPercentage
	return p, nil
}

func (s *Server) loadMembers(projectID string) ([]model.User, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.name, u.email, u.role, u.avatar
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = $1
		ORDER BY u.name ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.AvatarURL); err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (s *Server) loadTasks(projectID string) ([]model.Task, error) {
	rows, err := s.db.Query(`
		SELECT id, project_id, title, description, assigned_to, due_date,
		       status, acceptance_status, created_at, updated_at
		FROM tasks WHERE project_id = $1
		ORDER BY created_at ASC, id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Server) scanTask(row rowScanner) (model.Task, error) {
	var t model.Task
	var assignedTo, dueDate, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &assignedTo,
		&dueDate, &t.Status, &t.AcceptanceStatus, &createdAt, &updatedAt)
	if err != nil {
		return model.Task{}, err
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
	return t, nil
}

// projectIDsForUser lists projects the user created, manages, or belongs to.
// Admins see every project.
func (s *Server) projectIDsForUser(actor model.User) ([]string, error) {
	var rows *sql.Rows
	var err error
	if actor.Role == model.RoleAdmin {
		rows, err = s.db.Query(`SELECT id, created_at FROM projects ORDER BY created_at ASC, id ASC`)
	} else {
		rows, err = s.db.Query(`
			SELECT DISTINCT p.id, p.created_at
			FROM projects p
			LEFT JOIN project_members pm ON pm.project_id = p.id
			WHERE p.created_by = $1 OR p.manager_id = $1 OR pm.user_id = $1
			ORDER BY p.created_at ASC, p.id ASC`, actor.ID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id, createdAt string
		if err := rows.Scan(&id, &createdAt); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// addRosterMember inserts into the roster, ignoring duplicates
func (s *Server) addRosterMember(projectID, userID string) error {
	_, err := s.db.Exec(`
		INSERT INTO project_members (project_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, projectID, userID)
	return err
}

func (s *Server) touchProject(projectID string) {
	_, _ = s.db.Exec(`UPDATE projects SET updated_at = $1 WHERE id = $2`, now(), projectID)
}

// notify records a notification unless the sender is notifying themselves
func (s *Server) notify(sender, recipient model.User, ntype model.NotificationType, message, link, taskTitle string) {
	if recipient.ID == "" || sender.ID == recipient.ID {
		return
	}
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, recipient_id, sender_id, type, message, link, related_task_title, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)`,
		uuid.NewString(), recipient.ID, sender.ID, string(ntype), message, link, taskTitle, now())
	if err != nil {
		// Notifications are best-effort; the mutation itself already
		// succeeded.
		_ = err
	}
}

// isManagerOrAdmin is the capability check for project and task management
func isManagerOrAdmin(actor model.User, managerID string) bool {
	return actor.Role == model.RoleAdmin || actor.ID == managerID
}

func (s *Server) managerID(projectID string) (string, error) {
	var managerID string
	err := s.db.QueryRow(`SELECT manager_id FROM projects WHERE id = $1`, projectID).Scan(&managerID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("project not found")
	}
	return managerID, err
}
