package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/projectflow/projectflow/internal/api"
	"github.com/projectflow/projectflow/internal/model"
	"github.com/projectflow/projectflow/internal/session"
)

var dsnSeq atomic.Int64

// testClient is an API client bound to one account's token
type testClient struct {
	*api.Client
	rec *session.Record
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	// Each test gets its own shared in-memory database.
	dsn := fmt.Sprintf("file:devserver_test_%d?mode=memory&cache=shared", dsnSeq.Add(1))
	srv, err := New(dsn, "test-secret")
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return ts
}

func register(t *testing.T, ts *httptest.Server, name, email string, role model.Role) *testClient {
	t.Helper()
	var rec *session.Record
	c := api.NewClient(ts.URL, func() string {
		if rec == nil {
			return ""
		}
		return rec.Token
	})

	got, err := c.Register(context.Background(), api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "password-123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", email, err)
	}
	rec = got
	return &testClient{Client: c, rec: rec}
}

func createProject(t *testing.T, mgr *testClient, memberIDs ...string) model.Project {
	t.Helper()
	p, err := mgr.CreateProject(context.Background(), api.ProjectRequest{
		Name:           "Test Project",
		ProjectManager: mgr.rec.ID,
		TeamMembers:    memberIDs,
	})
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}
	return p
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	if mgr.rec.Token == "" || mgr.rec.ID == "" {
		t.Fatalf("register returned incomplete record: %+v", mgr.rec)
	}
	if mgr.rec.Role != model.RoleProjectManager {
		t.Errorf("role = %s", mgr.rec.Role)
	}

	// Same credentials log in again.
	c := api.NewClient(ts.URL, func() string { return "" })
	rec, err := c.Login(ctx, "mallory@example.com", "password-123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if rec.ID != mgr.rec.ID {
		t.Errorf("login returned a different account")
	}

	// Wrong password is rejected.
	if _, err := c.Login(ctx, "mallory@example.com", "wrong"); err == nil {
		t.Error("login with wrong password succeeded")
	}

	// Duplicate email is rejected.
	if _, err := c.Register(ctx, api.RegisterRequest{
		Name: "Dup", Email: "mallory@example.com", Password: "password-123",
	}); err == nil {
		t.Error("duplicate register succeeded")
	}
}

func TestMeRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	me, err := mgr.Me(ctx)
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if me.ID != mgr.rec.ID {
		t.Errorf("me = %+v", me)
	}

	anon := api.NewClient(ts.URL, func() string { return "" })
	if _, err := anon.Me(ctx); err == nil {
		t.Error("me without a token succeeded")
	}
}

func TestProjectRosterInvariant(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	alice := register(t, ts, "Alice", "alice@example.com", model.RoleTeamMember)

	// The manager id appears both as manager and in the member list; the
	// roster must come back de-duplicated with the manager present.
	p, err := mgr.CreateProject(ctx, api.ProjectRequest{
		Name:           "Rollout",
		ProjectManager: mgr.rec.ID,
		TeamMembers:    []string{alice.rec.ID, mgr.rec.ID, alice.rec.ID},
	})
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	counts := map[string]int{}
	for _, m := range p.TeamMembers {
		counts[m.ID]++
	}
	if counts[mgr.rec.ID] != 1 {
		t.Errorf("manager appears %d times, want 1", counts[mgr.rec.ID])
	}
	if counts[alice.rec.ID] != 1 {
		t.Errorf("alice appears %d times, want 1", counts[alice.rec.ID])
	}

	// Re-adding an existing member is a no-op, not a duplicate.
	p2, err := mgr.AddMember(ctx, p.ID, alice.rec.ID)
	if err != nil {
		t.Fatalf("re-add member failed: %v", err)
	}
	counts = map[string]int{}
	for _, m := range p2.TeamMembers {
		counts[m.ID]++
	}
	if counts[alice.rec.ID] != 1 {
		t.Errorf("after re-add alice appears %d times, want 1", counts[alice.rec.ID])
	}
}

func TestManagerCannotBeRemoved(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	p := createProject(t, mgr)

	_, err := mgr.RemoveMember(ctx, p.ID, mgr.rec.ID)
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("removing the manager: got %v, want 400", err)
	}
}

func TestProjectVisibility(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	alice := register(t, ts, "Alice", "alice@example.com", model.RoleTeamMember)
	outsider := register(t, ts, "Oscar", "oscar@example.com", model.RoleTeamMember)

	p := createProject(t, mgr, alice.rec.ID)

	// Members see the project in their list, outsiders don't.
	for _, tc := range []struct {
		c    *testClient
		want int
	}{{mgr, 1}, {alice, 1}, {outsider, 0}} {
		projects, err := tc.c.ListProjects(ctx)
		if err != nil {
			t.Fatalf("list projects failed: %v", err)
		}
		if len(projects) != tc.want {
			t.Errorf("%s sees %d projects, want %d", tc.c.rec.Name, len(projects), tc.want)
		}
	}

	// Direct fetch by a non-member is forbidden.
	_, err := outsider.GetProject(ctx, p.ID)
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("outsider GetProject: got %v, want 403", err)
	}
}

func TestTaskAcceptanceFlow(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	alice := register(t, ts, "Alice", "alice@example.com", model.RoleTeamMember)
	p := createProject(t, mgr, alice.rec.ID)

	task, err := mgr.CreateTask(ctx, p.ID, api.TaskRequest{Title: "Ship it", AssignedTo: alice.rec.ID})
	if err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	if task.Status != model.TaskNotStarted || task.AcceptanceStatus != model.AcceptancePending {
		t.Fatalf("initial task state = (%s, %s)", task.Status, task.AcceptanceStatus)
	}

	// Completing before acceptance is rejected.
	_, err = alice.UpdateTask(ctx, p.ID, task.ID, api.TaskRequest{Status: string(model.TaskCompleted)})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("complete before accept: got %v, want 409", err)
	}

	// Only the assignee may accept.
	_, err = mgr.UpdateTaskAcceptance(ctx, p.ID, task.ID, model.AcceptanceAccepted)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("manager accepting: got %v, want 403", err)
	}

	// Accept leaves the status untouched.
	accepted, err := alice.UpdateTaskAcceptance(ctx, p.ID, task.ID, model.AcceptanceAccepted)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.AcceptanceStatus != model.AcceptanceAccepted || accepted.Status != model.TaskNotStarted {
		t.Errorf("after accept = (%s, %s)", accepted.Status, accepted.AcceptanceStatus)
	}

	// Accepting twice conflicts.
	_, err = alice.UpdateTaskAcceptance(ctx, p.ID, task.ID, model.AcceptanceAccepted)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("second accept: got %v, want 409", err)
	}

	// Now completion goes through and the rollups move.
	done, err := alice.UpdateTask(ctx, p.ID, task.ID, api.TaskRequest{Status: string(model.TaskCompleted)})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != model.TaskCompleted {
		t.Errorf("status = %s", done.Status)
	}

	got, err := mgr.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TaskCount != 1 || got.CompletedTaskCount != 1 || got.CompletionPercentage != 100 {
		t.Errorf("rollups = %d/%d (%d%%), want 1/1 (100%%)",
			got.CompletedTaskCount, got.TaskCount, got.CompletionPercentage)
	}
}

func TestRemoveMemberKeepsAssignment(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	alice := register(t, ts, "Alice", "alice@example.com", model.RoleTeamMember)
	p := createProject(t, mgr, alice.rec.ID)

	task, err := mgr.CreateTask(ctx, p.ID, api.TaskRequest{Title: "Orphan me", AssignedTo: alice.rec.ID})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.RemoveMember(ctx, p.ID, alice.rec.ID); err != nil {
		t.Fatalf("remove member failed: %v", err)
	}

	got, err := mgr.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsMember(alice.rec.ID) {
		t.Error("alice still on the roster")
	}

	kept, ok := got.FindTask(task.ID)
	if !ok {
		t.Fatal("task disappeared with the member")
	}
	if kept.AssignedTo == nil || kept.AssignedTo.ID != alice.rec.ID {
		t.Errorf("assignment cleared on removal: %+v", kept.AssignedTo)
	}
}

func TestOnlyManagerCreatesTasks(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	alice := register(t, ts, "Alice", "alice@example.com", model.RoleTeamMember)
	p := createProject(t, mgr, alice.rec.ID)

	_, err := alice.CreateTask(ctx, p.ID, api.TaskRequest{Title: "Sneaky"})
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("member creating a task: got %v, want 403", err)
	}

	// Assigning outside the roster is rejected.
	outsider := register(t, ts, "Oscar", "oscar@example.com", model.RoleTeamMember)
	_, err = mgr.CreateTask(ctx, p.ID, api.TaskRequest{Title: "Bad assignee", AssignedTo: outsider.rec.ID})
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("non-member assignee: got %v, want 400", err)
	}
}

func TestNotifications(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	alice := register(t, ts, "Alice", "alice@example.com", model.RoleTeamMember)
	p := createProject(t, mgr, alice.rec.ID)

	task, err := mgr.CreateTask(ctx, p.ID, api.TaskRequest{Title: "Review docs", AssignedTo: alice.rec.ID})
	if err != nil {
		t.Fatal(err)
	}

	// Alice was notified twice: once when added to the project, once for the
	// assignment. Newest first.
	list, err := alice.Notifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if list.UnreadCount != 2 || len(list.Data) != 2 {
		t.Fatalf("alice notifications = %d items, %d unread", len(list.Data), list.UnreadCount)
	}
	if list.Data[0].Type != model.NotificationTaskAssigned {
		t.Errorf("newest type = %s", list.Data[0].Type)
	}

	// Acceptance notifies the manager back.
	if _, err := alice.UpdateTaskAcceptance(ctx, p.ID, task.ID, model.AcceptanceAccepted); err != nil {
		t.Fatal(err)
	}
	mgrList, err := mgr.Notifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if mgrList.UnreadCount != 1 {
		t.Errorf("manager unread = %d, want 1", mgrList.UnreadCount)
	}

	// Marking one read decrements the counter.
	if err := alice.MarkNotificationRead(ctx, list.Data[0].ID); err != nil {
		t.Fatal(err)
	}
	list, err = alice.Notifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if list.UnreadCount != 1 {
		t.Errorf("unread after one read = %d, want 1", list.UnreadCount)
	}
	if !list.Data[0].Read {
		t.Error("read flag not persisted")
	}

	// Readall works for the manager.
	if err := mgr.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatal(err)
	}
	mgrList, err = mgr.Notifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if mgrList.UnreadCount != 0 {
		t.Errorf("manager unread after readall = %d", mgrList.UnreadCount)
	}
}

func TestMyTasks(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	alice := register(t, ts, "Alice", "alice@example.com", model.RoleTeamMember)
	p := createProject(t, mgr, alice.rec.ID)

	if _, err := mgr.CreateTask(ctx, p.ID, api.TaskRequest{Title: "For alice", AssignedTo: alice.rec.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.CreateTask(ctx, p.ID, api.TaskRequest{Title: "Unassigned"}); err != nil {
		t.Fatal(err)
	}

	tasks, err := alice.MyTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Fatalf("alice has %d tasks, want 1", len(tasks))
	}
	if tasks[0].Title != "For alice" || tasks[0].ProjectName != "Test Project" {
		t.Errorf("my task = %+v", tasks[0])
	}

	mgrTasks, err := mgr.MyTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(mgrTasks) != 0 {
		t.Errorf("manager has %d tasks, want 0", len(mgrTasks))
	}
}

func TestAdminSeesEverything(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	mgr := register(t, ts, "Mallory", "mallory@example.com", model.RoleProjectManager)
	admin := register(t, ts, "Root", "root@example.com", model.RoleAdmin)
	p := createProject(t, mgr)

	projects, err := admin.ListProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 {
		t.Errorf("admin sees %d projects, want 1", len(projects))
	}

	// Admins may mutate projects they do not manage.
	if _, err := admin.CreateTask(ctx, p.ID, api.TaskRequest{Title: "Admin task"}); err != nil {
		t.Errorf("admin create task failed: %v", err)
	}
	if err := admin.DeleteProject(ctx, p.ID); err != nil {
		t.Errorf("admin delete project failed: %v", err)
	}
}
