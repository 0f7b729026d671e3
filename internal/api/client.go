// Package api is the HTTP client for the ProjectFlow REST API. It attaches
// the bearer credential to every authenticated request, unwraps the server's
// {"message": ...} error bodies into typed errors, and runs every request
// through a circuit breaker. There are no automatic retries: failures are
// reported to the caller for the user to re-attempt.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/projectflow/projectflow/internal/logging"
	"github.com/projectflow/projectflow/internal/model"
	"github.com/projectflow/projectflow/internal/session"
)

// TokenFunc returns the current bearer token, or "" when unauthenticated
type TokenFunc func() string

// Client talks to the ProjectFlow API
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client for the API rooted at baseURL. The token func is
// consulted on every request so the client always sends the current
// credential.
func NewClient(baseURL string, token TokenFunc) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "projectflow-api",
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Warnf("circuit breaker %s changed from %s to %s", name, from, to)
			},
		}),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, decodeError(resp)
		}
		if resp.StatusCode >= 400 {
			// The request reached the server and was rejected;
			// that must not trip the breaker.
			return decodeError(resp), nil
		}

		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, nil
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	switch v := result.(type) {
	case *APIError:
		return v
	case []byte:
		if out != nil {
			return json.Unmarshal(v, out)
		}
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError, preferring the
// server's own message.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			apiErr.Message = body.Message
		} else {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}

// authErr converts any failure of an auth endpoint into an *AuthError
func authErr(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &AuthError{Message: apiErr.Error()}
	}
	return &AuthError{Message: err.Error()}
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*session.Record, error) {
	var rec session.Record
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{Email: email, Password: password}, &rec); err != nil {
		return nil, authErr(err)
	}
	return &rec, nil
}

// Register creates a new account and returns its credential
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*session.Record, error) {
	var rec session.Record
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &rec); err != nil {
		return nil, authErr(err)
	}
	return &rec, nil
}

// Me returns the actor the current credential belongs to
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u)
	return u, err
}

// ListProjects fetches the full project collection visible to the actor
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects)
	return projects, err
}

// GetProject fetches one project by id
func (c *Client) GetProject(ctx context.Context, id string) (model.Project, error) {
	var p model.Project
	err := c.do(ctx, http.MethodGet, "/api/projects/"+id, nil, &p)
	return p, err
}

// AssignableUsers lists every user a project or task can reference
func (c *Client) AssignableUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.do(ctx, http.MethodGet, "/api/projects/users", nil, &users)
	return users, err
}

// CreateProject creates a project
func (c *Client) CreateProject(ctx context.Context, req ProjectRequest) (model.Project, error) {
	var p model.Project
	err := c.do(ctx, http.MethodPost, "/api/projects", req, &p)
	return p, err
}

// UpdateProject updates a project
func (c *Client) UpdateProject(ctx context.Context, id string, req ProjectRequest) (model.Project, error) {
	var p model.Project
	err := c.do(ctx, http.MethodPut, "/api/projects/"+id, req, &p)
	return p, err
}

// DeleteProject deletes a project and the tasks it owns
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+id, nil, nil)
}

// AddMember adds a user to the project roster
func (c *Client) AddMember(ctx context.Context, projectID, userID string) (model.Project, error) {
	var p model.Project
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/members", map[string]string{"userId": userID}, &p)
	return p, err
}

// RemoveMember removes a user from the project roster
func (c *Client) RemoveMember(ctx context.Context, projectID, userID string) (model.Project, error) {
	var p model.Project
	err := c.do(ctx, http.MethodDelete, "/api/projects/"+projectID+"/members/"+userID, nil, &p)
	return p, err
}

// CreateTask creates a task in the project
func (c *Client) CreateTask(ctx context.Context, projectID string, req TaskRequest) (model.Task, error) {
	var t model.Task
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/tasks", req, &t)
	return t, err
}

// UpdateTask updates a task's fields
func (c *Client) UpdateTask(ctx context.Context, projectID, taskID string, req TaskRequest) (model.Task, error) {
	var t model.Task
	err := c.do(ctx, http.MethodPut, "/api/projects/"+projectID+"/tasks/"+taskID, req, &t)
	return t, err
}

// DeleteTask removes a task from the project
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+projectID+"/tasks/"+taskID, nil, nil)
}

// UpdateTaskAcceptance records the assignee's accept/reject decision
func (c *Client) UpdateTaskAcceptance(ctx context.Context, projectID, taskID string, status model.AcceptanceStatus) (model.Task, error) {
	var t model.Task
	body := map[string]model.AcceptanceStatus{"acceptanceStatus": status}
	err := c.do(ctx, http.MethodPut, "/api/projects/"+projectID+"/tasks/"+taskID+"/accept", body, &t)
	return t, err
}

// MyTasks lists the tasks assigned to the actor across all projects
func (c *Client) MyTasks(ctx context.Context) ([]MyTask, error) {
	var tasks []MyTask
	err := c.do(ctx, http.MethodGet, "/api/tasks/mytasks", nil, &tasks)
	return tasks, err
}

// Notifications fetches the actor's notifications and unread count
func (c *Client) Notifications(ctx context.Context) (NotificationList, error) {
	var list NotificationList
	err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &list)
	return list, err
}

// MarkNotificationRead marks one notification as read
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/"+id+"/read", struct{}{}, nil)
}

// MarkAllNotificationsRead marks every unread notification as read
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/readall", struct{}{}, nil)
}
