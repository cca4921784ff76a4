package model

import (
	"time"

	"github.com/google/uuid"
)

// ProjectMembership links a user to a project with a role.
type ProjectMembership struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_user"`
	Role      Role      `gorm:"not null;check:role IN ('ADMIN', 'MEMBER', 'VIEWER')"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Project Project `gorm:"foreignKey:ProjectID"`
	User    User    `gorm:"foreignKey:UserID"`
}

// Project roles
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Action is a capability gated by the role policy below.
type Action string

const (
	ActionCreateBoard   Action = "create_board"
	ActionUpdateBoard   Action = "update_board"
	ActionAddMember     Action = "add_member"
	ActionRemoveMember  Action = "remove_member"
	ActionDeleteProject Action = "delete_project"
)

// Permissions is the full role policy, kept as one table so the
// asymmetries (any member may add a member, only ADMIN may remove one)
// are auditable in a single place.
var Permissions = map[Action][]Role{
	ActionCreateBoard:   {RoleAdmin},
	ActionUpdateBoard:   {RoleAdmin, RoleMember},
	ActionAddMember:     {RoleAdmin, RoleMember, RoleViewer},
	ActionRemoveMember:  {RoleAdmin},
	ActionDeleteProject: {RoleAdmin},
}

// Can reports whether the role is allowed to perform the action.
func (r Role) Can(action Action) bool {
	for _, allowed := range Permissions[action] {
		if r == allowed {
			return true
		}
	}
	return false
}
