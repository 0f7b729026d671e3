package model

// Role is a user's global role in the tracker
type Role string

const (
	RoleTeamMember     Role = "teamMember"
	RoleProjectManager Role = "projectManager"
	RoleAdmin          Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleTeamMember, RoleProjectManager, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the tracker
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatar,omitempty"`
}
