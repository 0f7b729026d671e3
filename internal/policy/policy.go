// Package policy decides what an actor may do to a project.
//
// Authorization rules:
//   - Admins hold every capability on every project
//   - The project's own manager holds every capability on that project
//   - Users with the projectManager role but managing a different project get
//     nothing unless the relaxed AnyManager option is enabled
//   - Team members (including task assignees) get no project-level
//     capabilities; task self-service is handled by the lifecycle package
//
// Decisions depend only on the actor's role/identity and the project's
// ownership. Task content is never consulted.
package policy

import (
	"strings"

	"github.com/projectflow/projectflow/internal/model"
)

// Capability is a named permission on a project
type Capability uint8

const (
	ManageProject Capability = 1 << iota
	ManageMembers
	CreateTask
	DeleteTask
)

// All is the full capability set
const All = ManageProject | ManageMembers | CreateTask | DeleteTask

// None is the empty capability set
const None Capability = 0

// Has reports whether the set contains every capability in want
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// String lists the capabilities in the set
func (c Capability) String() string {
	if c == None {
		return "none"
	}
	var names []string
	if c.Has(ManageProject) {
		names = append(names, "ManageProject")
	}
	if c.Has(ManageMembers) {
		names = append(names, "ManageMembers")
	}
	if c.Has(CreateTask) {
		names = append(names, "CreateTask")
	}
	if c.Has(DeleteTask) {
		names = append(names, "DeleteTask")
	}
	return strings.Join(names, "|")
}

// Options tunes the policy. The zero value is the strict
// admin-or-owning-manager rule.
type Options struct {
	// AnyManager grants the full capability set to every actor with the
	// projectManager role, not just the project's own manager. Off by
	// default; enable via allow_any_manager in the config file.
	AnyManager bool
}

// CapabilitiesFor returns the capability set the actor holds on the project.
// It is a pure function: same inputs always yield the same set.
func CapabilitiesFor(actor *model.User, project *model.Project, opts Options) Capability {
	if actor == nil || project == nil {
		return None
	}
	if actor.Role == model.RoleAdmin {
		return All
	}
	if project.IsManager(actor.ID) {
		return All
	}
	if opts.AnyManager && actor.Role == model.RoleProjectManager {
		return All
	}
	return None
}
