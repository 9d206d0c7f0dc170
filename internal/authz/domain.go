// Package authz implements the privilege engine: given a principal, a
// resource and an action it computes an allow/deny decision with a reason.
// Denials are values, never errors; only directory failures surface as errors.
package authz

import (
	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/roles"
)

// Principal is the resolved acting user. Callers holding only a user ID must
// resolve it through the directory before consulting the engine.
type Principal struct {
	ID           string
	Role         roles.Role
	SuperAdmin   bool
	OwnedClubIDs []string
	ClubRoles    map[string]roles.Role
}

// PrincipalFromUser projects a directory user into a Principal.
func PrincipalFromUser(u directory.User) Principal {
	return Principal{
		ID:           u.ID,
		Role:         u.Role,
		SuperAdmin:   u.SuperAdmin,
		OwnedClubIDs: u.OwnedClubIDs,
		ClubRoles:    u.ClubRoles,
	}
}

// IsAdmin reports whether the principal bypasses all resource rules.
func (p Principal) IsAdmin() bool {
	return p.SuperAdmin || p.Role == roles.Admin
}

// ResourceType identifies the kind of resource a decision applies to.
type ResourceType string

// Resource types the engine can dispatch on. The validator table in Engine is
// keyed by these; anything else is rejected as unauthorized.
const (
	ResourceClub  ResourceType = "club"
	ResourceTeam  ResourceType = "team"
	ResourceEvent ResourceType = "event"
	ResourceChat  ResourceType = "chat"
)

// ResourceRef addresses a concrete resource. Teams additionally carry their
// parent club ID because a team is only ever resolved through its club.
type ResourceRef struct {
	Type   ResourceType
	ID     string
	ClubID string
}

// ClubRef addresses a club.
func ClubRef(id string) ResourceRef { return ResourceRef{Type: ResourceClub, ID: id} }

// TeamRef addresses a team inside a club.
func TeamRef(clubID, teamID string) ResourceRef {
	return ResourceRef{Type: ResourceTeam, ID: teamID, ClubID: clubID}
}

// EventRef addresses an event.
func EventRef(id string) ResourceRef { return ResourceRef{Type: ResourceEvent, ID: id} }

// ChatRef addresses a chat.
func ChatRef(id string) ResourceRef { return ResourceRef{Type: ResourceChat, ID: id} }

// Action identifies an operation a principal wants to perform. The grouping by
// resource type is advisory; validators reject actions they do not know.
type Action string

// Club actions.
const (
	ActionViewClub          Action = "view_club"
	ActionManageClub        Action = "manage_club"
	ActionManageClubConfig  Action = "manage_club_settings"
	ActionDeleteClub        Action = "delete_club"
	ActionTransferOwnership Action = "transfer_club_ownership"
	ActionCreateTeam        Action = "create_team"
	ActionAddClubMember     Action = "add_club_member"
	ActionRemoveClubMember  Action = "remove_club_member"
)

// Team actions.
const (
	ActionViewTeam         Action = "view_team"
	ActionManageTeam       Action = "manage_team"
	ActionDeleteTeam       Action = "delete_team"
	ActionAddTeamMember    Action = "add_team_member"
	ActionRemoveTeamMember Action = "remove_team_member"
)

// Event actions.
const (
	ActionViewEvent   Action = "view_event"
	ActionModifyEvent Action = "modify_event"
	ActionDeleteEvent Action = "delete_event"
)

// Chat actions.
const (
	ActionViewChat    Action = "view_chat"
	ActionSendMessage Action = "send_message"
)

// Decision is the engine's verdict. It is produced fresh on every call and
// never cached, because the entities underneath can change between calls.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the positive decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny wraps a reason into a negative decision.
func Deny(reason Reason) Decision { return Decision{Allowed: false, Reason: reason} }
