package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/projectflow/projectflow/internal/api"
	"github.com/projectflow/projectflow/internal/lifecycle"
	"github.com/projectflow/projectflow/internal/model"
	"github.com/projectflow/projectflow/internal/policy"
	"github.com/projectflow/projectflow/internal/session"
)

// fakeAPI is an httptest-backed stand-in for the ProjectFlow server. Tests
// mutate its project list directly and observe which requests the store made.
type fakeAPI struct {
	mu       sync.Mutex
	projects []model.Project

	listCalls   atomic.Int64
	listDelay   time.Duration
	failList    atomic.Bool
	lastMethod  string
	lastPath    string
	mutateCalls atomic.Int64
}

func (f *fakeAPI) setProjects(projects []model.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = projects
}

func (f *fakeAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastMethod = r.Method
		f.lastPath = r.URL.Path
		f.mu.Unlock()

		switch {
		case r.URL.Path == "/api/auth/login" || r.URL.Path == "/api/auth/register":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "u1", "name": "Alice", "email": "alice@example.com",
				"role": "teamMember", "token": "tok-abc",
			})

		case r.URL.Path == "/api/projects" && r.Method == http.MethodGet:
			f.listCalls.Add(1)
			if f.listDelay > 0 {
				time.Sleep(f.listDelay)
			}
			if f.failList.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "database is down"})
				return
			}
			f.mu.Lock()
			projects := f.projects
			f.mu.Unlock()
			if projects == nil {
				projects = []model.Project{}
			}
			_ = json.NewEncoder(w).Encode(projects)

		case r.URL.Path == "/api/notifications":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": []model.Notification{}, "unreadCount": 0})

		default:
			// Any mutation endpoint: acknowledge with an empty object.
			f.mutateCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "new"})
		}
	})
}

func testProject(id, managerID string, memberIDs ...string) model.Project {
	p := model.Project{
		ID:             id,
		Name:           "Project " + id,
		Status:         model.ProjectInProgress,
		ProjectManager: &model.User{ID: managerID, Name: "Manager", Role: model.RoleProjectManager},
	}
	for _, m := range memberIDs {
		p.TeamMembers = append(p.TeamMembers, model.User{ID: m, Name: "Member " + m, Role: model.RoleTeamMember})
	}
	return p
}

func newTestStore(t *testing.T, f *fakeAPI) (*Store, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	sessions := session.NewStoreAt(filepath.Join(t.TempDir(), "session.json"))
	st := New(Options{BaseURL: srv.URL, Sessions: sessions})
	return st, sessions
}

func loggedIn(t *testing.T, st *Store) {
	t.Helper()
	if err := st.Login(context.Background(), "alice@example.com", "password"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func TestLoginInstallsSession(t *testing.T) {
	f := &fakeAPI{}
	st, sessions := newTestStore(t, f)

	loggedIn(t, st)

	actor := st.Actor()
	if actor == nil || actor.ID != "u1" {
		t.Fatalf("actor = %+v", actor)
	}
	if st.Token() != "tok-abc" {
		t.Errorf("token = %q", st.Token())
	}

	rec := sessions.Load()
	if rec == nil || rec.Token != "tok-abc" {
		t.Errorf("persisted record = %+v", rec)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	f := &fakeAPI{}
	f.setProjects([]model.Project{testProject("p1", "u1")})
	st, sessions := newTestStore(t, f)
	loggedIn(t, st)

	st.Logout()

	if st.Actor() != nil || st.Token() != "" {
		t.Error("actor/token survive logout")
	}
	if len(st.Projects()) != 0 {
		t.Error("projects survive logout")
	}
	if sessions.Load() != nil {
		t.Error("persisted session survives logout")
	}
	if err := st.RefreshProjects(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("refresh after logout = %v, want ErrNotAuthenticated", err)
	}
}

func TestInitializeSessionRestoresActor(t *testing.T) {
	f := &fakeAPI{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "session.json")
	sessions := session.NewStoreAt(path)
	if err := sessions.Save(&session.Record{ID: "u1", Name: "Alice", Role: model.RoleTeamMember, Token: "tok-abc"}); err != nil {
		t.Fatal(err)
	}

	st := New(Options{BaseURL: srv.URL, Sessions: sessions})
	st.InitializeSession()

	if actor := st.Actor(); actor == nil || actor.ID != "u1" {
		t.Errorf("actor = %+v", actor)
	}
	if st.Token() != "tok-abc" {
		t.Errorf("token = %q", st.Token())
	}
}

func TestInitializeSessionSurvivesCorruptRecord(t *testing.T) {
	f := &fakeAPI{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("%%% not json"), 0600); err != nil {
		t.Fatal(err)
	}

	st := New(Options{BaseURL: srv.URL, Sessions: session.NewStoreAt(path)})
	st.InitializeSession()

	if st.Actor() != nil {
		t.Error("corrupt session produced an actor")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt session file was not cleared")
	}
}

func TestRefreshProjectsSingleFlight(t *testing.T) {
	f := &fakeAPI{listDelay: 150 * time.Millisecond}
	f.setProjects([]model.Project{testProject("p1", "u1")})
	st, _ := newTestStore(t, f)
	loggedIn(t, st)
	before := f.listCalls.Load()

	const callers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := st.RefreshProjects(context.Background()); err != nil {
				t.Errorf("refresh failed: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := f.listCalls.Load() - before; got != 1 {
		t.Errorf("%d concurrent refreshes issued %d requests, want 1", callers, got)
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	f := &fakeAPI{}
	f.setProjects([]model.Project{testProject("p1", "u1")})
	st, _ := newTestStore(t, f)
	loggedIn(t, st)

	if len(st.Projects()) != 1 {
		t.Fatalf("snapshot not installed: %d projects", len(st.Projects()))
	}

	f.failList.Store(true)
	err := st.RefreshProjects(context.Background())
	if err == nil {
		t.Fatal("refresh against failing server succeeded")
	}

	if len(st.Projects()) != 1 {
		t.Error("failed refresh dropped the prior snapshot")
	}
	if st.LastError() == "" {
		t.Error("failed refresh did not record LastError")
	}

	// Recovery clears the recorded error.
	f.failList.Store(false)
	if err := st.RefreshProjects(context.Background()); err != nil {
		t.Fatalf("recovery refresh failed: %v", err)
	}
	if st.LastError() != "" {
		t.Errorf("LastError = %q after successful refresh", st.LastError())
	}
}

func TestRefreshNormalizesRosters(t *testing.T) {
	f := &fakeAPI{}
	p := testProject("p1", "mgr", "a", "a", "mgr", "b")
	f.setProjects([]model.Project{p})
	st, _ := newTestStore(t, f)
	loggedIn(t, st)

	got, ok := st.Project("p1")
	if !ok {
		t.Fatal("project missing from snapshot")
	}
	ids := make(map[string]int)
	for _, m := range got.TeamMembers {
		ids[m.ID]++
	}
	if ids["mgr"] != 1 {
		t.Errorf("manager appears %d times in roster, want exactly 1", ids["mgr"])
	}
	if ids["a"] != 1 || ids["b"] != 1 {
		t.Errorf("duplicated roster after refresh: %v", ids)
	}
}

func TestMutationTriggersRefresh(t *testing.T) {
	f := &fakeAPI{}
	f.setProjects([]model.Project{testProject("p1", "u1", "u2")})
	st, _ := newTestStore(t, f)
	loggedIn(t, st)

	before := f.listCalls.Load()
	if err := st.CreateTask(context.Background(), "p1", api.TaskRequest{Title: "New task", AssignedTo: "u2"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if got := f.listCalls.Load() - before; got != 1 {
		t.Errorf("mutation issued %d refreshes, want 1", got)
	}
}

func TestCreateTaskValidatesBeforeNetwork(t *testing.T) {
	f := &fakeAPI{}
	f.setProjects([]model.Project{testProject("p1", "u1", "u2")})
	st, _ := newTestStore(t, f)
	loggedIn(t, st)

	before := f.mutateCalls.Load()

	var validation *lifecycle.ValidationError
	if err := st.CreateTask(context.Background(), "p1", api.TaskRequest{Title: "  "}); !errors.As(err, &validation) {
		t.Errorf("blank title: got %v, want ValidationError", err)
	}
	if err := st.CreateTask(context.Background(), "p1", api.TaskRequest{Title: "ok", AssignedTo: "stranger"}); !errors.As(err, &validation) {
		t.Errorf("non-member assignee: got %v, want ValidationError", err)
	}

	if f.mutateCalls.Load() != before {
		t.Error("invalid task creation reached the network")
	}
}

func TestPolicyBackstopDeniesMember(t *testing.T) {
	f := &fakeAPI{}
	// The logged-in actor u1 is only a team member here; mgr owns the project.
	f.setProjects([]model.Project{testProject("p1", "mgr", "u1")})
	st, _ := newTestStore(t, f)
	loggedIn(t, st)

	before := f.mutateCalls.Load()
	if err := st.DeleteProject(context.Background(), "p1"); !errors.Is(err, ErrAuthorizationDenied) {
		t.Errorf("DeleteProject = %v, want ErrAuthorizationDenied", err)
	}
	if err := st.AddMember(context.Background(), "p1", "u9"); !errors.Is(err, ErrAuthorizationDenied) {
		t.Errorf("AddMember = %v, want ErrAuthorizationDenied", err)
	}
	if f.mutateCalls.Load() != before {
		t.Error("denied operations reached the network")
	}
}

func TestAcceptTaskChecksLifecycleLocally(t *testing.T) {
	f := &fakeAPI{}
	p := testProject("p1", "mgr", "u1")
	task := model.NewTask("t1", "p1", "Do the thing")
	task.AssignedTo = &model.User{ID: "u1"}
	task.AcceptanceStatus = model.AcceptanceAccepted
	p.Tasks = []model.Task{task}
	f.setProjects([]model.Project{p})

	st, _ := newTestStore(t, f)
	loggedIn(t, st)

	before := f.mutateCalls.Load()
	err := st.AcceptTask(context.Background(), "p1", "t1")
	var invalid *lifecycle.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Errorf("accepting an already accepted task: got %v, want InvalidTransitionError", err)
	}
	if f.mutateCalls.Load() != before {
		t.Error("rejected transition reached the network")
	}
}

func TestCompleteTaskRequiresAcceptance(t *testing.T) {
	f := &fakeAPI{}
	p := testProject("p1", "mgr", "u1")
	task := model.NewTask("t1", "p1", "Do the thing")
	task.AssignedTo = &model.User{ID: "u1"}
	p.Tasks = []model.Task{task}
	f.setProjects([]model.Project{p})

	st, _ := newTestStore(t, f)
	loggedIn(t, st)

	var invalid *lifecycle.InvalidTransitionError
	if err := st.CompleteTask(context.Background(), "p1", "t1"); !errors.As(err, &invalid) {
		t.Errorf("complete before accept: got %v, want InvalidTransitionError", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	f := &fakeAPI{}
	f.setProjects([]model.Project{testProject("p1", "mgr", "u1")})
	st, _ := newTestStore(t, f)
	loggedIn(t, st)

	first := st.Projects()
	first[0].Name = "mutated"
	first[0].ProjectManager.ID = "mutated"

	second := st.Projects()
	if second[0].Name == "mutated" || second[0].ProjectManager.ID == "mutated" {
		t.Error("snapshot copies share memory with the store")
	}
}

func TestCapabilitiesRespectPolicyOptions(t *testing.T) {
	f := &fakeAPI{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	sessions := session.NewStoreAt(filepath.Join(t.TempDir(), "session.json"))
	st := New(Options{BaseURL: srv.URL, Sessions: sessions, Policy: policy.Options{AnyManager: true}})

	// An actor with the manager role but not managing this project.
	if err := sessions.Save(&session.Record{ID: "other", Name: "Other", Role: model.RoleProjectManager, Token: "tok"}); err != nil {
		t.Fatal(err)
	}
	st.InitializeSession()

	p := testProject("p1", "mgr")
	if got := st.Capabilities(&p); got != policy.All {
		t.Errorf("relaxed policy: capabilities = %v, want All", got)
	}
}
