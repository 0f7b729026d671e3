package devserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/projectflow/projectflow/internal/model"
)

func (s *Server) handleNotifications(c echo.Context) error {
	actor := currentUser(c)
	rows, err := s.db.Query(`
		SELECT id, type, message, link, related_task_title, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC`, actor.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	defer rows.Close()

	notifications := make([]model.Notification, 0)
	unread := 0
	for rows.Next() {
		var n model.Notification
		var read int
		var createdAt string
		if err := rows.Scan(&n.ID, &n.Type, &n.Message, &n.Link, &n.RelatedTaskTitle, &read, &createdAt); err != nil {
			return fail(c, http.StatusInternalServerError, "internal error")
		}
		n.Read = read != 0
		if t := parseTime(createdAt); t != nil {
			n.CreatedAt = *t
		}
		if !n.Read {
			unread++
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":        notifications,
		"unreadCount": unread,
	})
}

func (s *Server) handleNotificationRead(c echo.Context) error {
	actor := currentUser(c)
	res, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = $1 AND recipient_id = $2`,
		c.Param("id"), actor.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fail(c, http.StatusNotFound, "notification not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotificationsReadAll(c echo.Context) error {
	actor := currentUser(c)
	if _, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE recipient_id = $1`, actor.ID); err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
