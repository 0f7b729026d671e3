// Package devserver is a self-contained ProjectFlow API server for local
// development and integration tests. It implements the same REST surface and
// the same invariants the client store assumes: rosters are de-duplicated on
// every write, the manager is always a member, and acceptance transitions are
// restricted to the assignee.
package devserver

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/projectflow/projectflow/internal/logging"
)

// DefaultDSN is an in-memory sqlite database shared across connections
const DefaultDSN = "file:projectflow?mode=memory&cache=shared"

// Server is the development API server
type Server struct {
	db        *sql.DB
	echo      *echo.Echo
	jwtSecret []byte
}

// New creates a server. A postgres:// DSN selects the postgres driver, any
// other DSN is treated as a sqlite path.
func New(databaseURL, jwtSecret string) (*Server, error) {
	driver := "sqlite"
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		driver = "postgres"
	}

	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// The shared in-memory database disappears with its last connection.
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Server{
		db:        db,
		jwtSecret: []byte(jwtSecret),
	}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	s.setupEcho()
	return s, nil
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			logging.Logger.WithFields(map[string]interface{}{
				"method":   req.Method,
				"uri":      req.RequestURI,
				"status":   c.Response().Status,
				"duration": time.Since(start).String(),
			}).Info("http request")
			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Auth endpoints (public)
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/auth/me", s.handleMe)

	protected.GET("/projects", s.handleListProjects)
	protected.GET("/projects/users", s.handleAssignableUsers)
	protected.POST("/projects", s.handleCreateProject)
	protected.GET("/projects/:id", s.handleGetProject)
	protected.PUT("/projects/:id", s.handleUpdateProject)
	protected.DELETE("/projects/:id", s.handleDeleteProject)
	protected.POST("/projects/:id/members", s.handleAddMember)
	protected.DELETE("/projects/:id/members/:userId", s.handleRemoveMember)

	protected.POST("/projects/:id/tasks", s.handleCreateTask)
	protected.PUT("/projects/:id/tasks/:taskId", s.handleUpdateTask)
	protected.DELETE("/projects/:id/tasks/:taskId", s.handleDeleteTask)
	protected.PUT("/projects/:id/tasks/:taskId/accept", s.handleTaskAcceptance)
	protected.GET("/tasks/mytasks", s.handleMyTasks)

	protected.GET("/notifications", s.handleNotifications)
	protected.PUT("/notifications/readall", s.handleNotificationsReadAll)
	protected.PUT("/notifications/:id/read", s.handleNotificationRead)

	s.echo = e
}

// Router returns the HTTP handler, for mounting under httptest in tests
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.db.Close()
}

// fail sends the {"message": ...} error body the client expects
func fail(c echo.Context, status int, format string, args ...interface{}) error {
	return c.JSON(status, map[string]string{"message": fmt.Sprintf(format, args...)})
}
