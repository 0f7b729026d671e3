// Package store owns the client's shared state: the authenticated actor and
// the authoritative project collection. Every view reads snapshots from here
// and forwards intents back in; no view computes authorization or lifecycle
// transitions itself.
//
// Consistency discipline:
//   - refreshes are single-flight: concurrent callers share one request
//   - responses carry a monotonically increasing token; a response older than
//     the last installed one is discarded rather than overwriting newer state
//   - every mutation is followed by a full refresh (RefreshOnMutation) instead
//     of optimistic local patching, so all views converge on what the server
//     actually holds
package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/projectflow/projectflow/internal/api"
	"github.com/projectflow/projectflow/internal/logging"
	"github.com/projectflow/projectflow/internal/model"
	"github.com/projectflow/projectflow/internal/policy"
	"github.com/projectflow/projectflow/internal/session"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a logged-in actor
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrAuthorizationDenied is returned when the actor lacks the capability
	// for an operation. Views should not have offered the action; the store
	// re-validates regardless.
	ErrAuthorizationDenied = errors.New("you are not allowed to do that")

	// ErrProjectNotFound is returned when a project id is not in the snapshot
	ErrProjectNotFound = errors.New("project not found")

	// ErrTaskNotFound is returned when a task id is not in the project
	ErrTaskNotFound = errors.New("task not found")
)

// Options configures a Store
type Options struct {
	// BaseURL is the root of the ProjectFlow API, e.g. http://localhost:8080
	BaseURL string
	// Sessions persists the actor/credential pair between runs
	Sessions *session.Store
	// Policy tunes the authorization policy
	Policy policy.Options
}

// Store is the process-wide session and project store
type Store struct {
	api      *api.Client
	sessions *session.Store
	policy   policy.Options

	mu            sync.RWMutex
	actor         *model.User
	token         string
	projects      []model.Project
	notifications []model.Notification
	unread        int
	loading       bool
	lastErr       string
	installed     uint64

	group  singleflight.Group
	reqSeq atomic.Uint64
}

// New creates a store. The API client reads the credential through the store
// so it always sends the current token.
func New(opts Options) *Store {
	s := &Store{
		sessions: opts.Sessions,
		policy:   opts.Policy,
	}
	s.api = api.NewClient(opts.BaseURL, s.Token)
	return s
}

// Token returns the current bearer token, or "" when unauthenticated
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Actor returns a copy of the authenticated actor, or nil
func (s *Store) Actor() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.actor == nil {
		return nil
	}
	u := *s.actor
	return &u
}

// Projects returns a deep copy of the current authoritative snapshot
func (s *Store) Projects() []model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneProjects(s.projects)
}

// Project returns a deep copy of one project from the snapshot
func (s *Store) Project(id string) (model.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			return s.projects[i].Clone(), true
		}
	}
	return model.Project{}, false
}

// Notifications returns a copy of the actor's notifications
func (s *Store) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Notification(nil), s.notifications...)
}

// UnreadCount returns the number of unread notifications
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Loading reports whether a refresh is currently in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the error text from the most recent failed refresh, or ""
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Capabilities returns the actor's capability set on the given project
func (s *Store) Capabilities(project *model.Project) policy.Capability {
	return policy.CapabilitiesFor(s.Actor(), project, s.policy)
}

// InitializeSession restores a previously persisted actor/credential pair.
// Malformed persisted data is cleared and startup continues unauthenticated;
// this never fails.
func (s *Store) InitializeSession() {
	if s.sessions == nil {
		return
	}
	rec := s.sessions.Load()
	if rec == nil {
		return
	}
	u := rec.User()
	s.mu.Lock()
	s.actor = &u
	s.token = rec.Token
	s.mu.Unlock()
	logging.Logger.WithField("user", u.Email).Debug("session restored")
}

// Login authenticates and, on success, installs the actor, persists the
// credential, and refreshes projects and notifications. On failure the
// session state is untouched.
func (s *Store) Login(ctx context.Context, email, password string) error {
	rec, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.installCredential(rec)
	s.refreshAfterAuth(ctx)
	return nil
}

// Register creates an account and logs it in
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) error {
	rec, err := s.api.Register(ctx, req)
	if err != nil {
		return err
	}
	s.installCredential(rec)
	s.refreshAfterAuth(ctx)
	return nil
}

func (s *Store) installCredential(rec *session.Record) {
	u := rec.User()
	s.mu.Lock()
	s.actor = &u
	s.token = rec.Token
	s.lastErr = ""
	s.mu.Unlock()

	if s.sessions != nil {
		if err := s.sessions.Save(rec); err != nil {
			logging.Logger.WithError(err).Warn("failed to persist session")
		}
	}
}

func (s *Store) refreshAfterAuth(ctx context.Context) {
	if err := s.RefreshProjects(ctx); err != nil {
		logging.Logger.WithError(err).Warn("initial project refresh failed")
	}
	if err := s.RefreshNotifications(ctx); err != nil {
		logging.Logger.WithError(err).Warn("initial notification refresh failed")
	}
}

// Logout is a hard reset: actor, credential, and every derived collection are
// cleared, along with the persisted record.
func (s *Store) Logout() {
	s.mu.Lock()
	s.actor = nil
	s.token = ""
	s.projects = nil
	s.notifications = nil
	s.unread = 0
	s.lastErr = ""
	s.installed = 0
	s.mu.Unlock()

	if s.sessions != nil {
		if err := s.sessions.Clear(); err != nil {
			logging.Logger.WithError(err).Warn("failed to clear persisted session")
		}
	}
}

// RefreshProjects fetches the authoritative project collection. Concurrent
// calls collapse into a single request whose outcome every caller shares. On
// failure the prior snapshot is preserved and the error recorded for display.
func (s *Store) RefreshProjects(ctx context.Context) error {
	if s.Token() == "" {
		return ErrNotAuthenticated
	}

	_, err, _ := s.group.Do("projects", func() (interface{}, error) {
		seq := s.reqSeq.Add(1)

		s.mu.Lock()
		s.loading = true
		s.mu.Unlock()

		projects, err := s.api.ListProjects(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.loading = false
		if err != nil {
			s.lastErr = err.Error()
			return nil, err
		}
		if seq <= s.installed {
			// A newer refresh already landed; this response is stale.
			return nil, nil
		}
		s.installed = seq
		s.projects = normalizeAll(projects)
		s.lastErr = ""
		return nil, nil
	})
	return err
}

// RefreshNotifications fetches the actor's notifications, single-flight like
// the project refresh.
func (s *Store) RefreshNotifications(ctx context.Context) error {
	if s.Token() == "" {
		return ErrNotAuthenticated
	}

	_, err, _ := s.group.Do("notifications", func() (interface{}, error) {
		list, err := s.api.Notifications(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.notifications = list.Data
		s.unread = list.UnreadCount
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

// normalizeAll rewrites each project's roster through NormalizeMembers on the
// way in: the manager is always present and no id appears twice, so no view
// ever sees a duplicated membership again.
func normalizeAll(projects []model.Project) []model.Project {
	for i := range projects {
		projects[i].TeamMembers = projects[i].Members()
	}
	return projects
}
