package authz

import (
	"context"
	"errors"

	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/roles"
)

// UserPort resolves users for the assignment guard.
type UserPort interface {
	GetUser(ctx context.Context, id string) (directory.User, error)
}

// ClubPort resolves clubs for ownership checks.
type ClubPort interface {
	GetClub(ctx context.Context, id string) (directory.Club, error)
}

// AssignmentGuard validates role changes before the caller mutates any
// membership state. It never mutates state itself.
type AssignmentGuard struct {
	users UserPort
	clubs ClubPort
}

// NewAssignmentGuard constructs an AssignmentGuard.
func NewAssignmentGuard(users UserPort, clubs ClubPort) *AssignmentGuard {
	return &AssignmentGuard{users: users, clubs: clubs}
}

// CanAssignRole decides whether granter may give target the requested role.
// Self-assignment is denied unconditionally, admins included. clubID is
// required for club-scoped roles and ignored for Admin.
func (g *AssignmentGuard) CanAssignRole(ctx context.Context, granterID, targetID string, role roles.Role, clubID string) (Decision, error) {
	if granterID == "" {
		return Deny(ReasonNotAuthenticated), nil
	}
	if granterID == targetID {
		return Deny(ReasonCannotSelfPromote), nil
	}

	granter, err := g.users.GetUser(ctx, granterID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonNotAuthenticated), nil
		}
		return Decision{}, storeErr("load granter", err)
	}
	if _, err := g.users.GetUser(ctx, targetID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonResourceNotFound), nil
		}
		return Decision{}, storeErr("load target", err)
	}

	granterIsAdmin := granter.SuperAdmin || granter.Role == roles.Admin

	switch role {
	case roles.Admin:
		if granterIsAdmin {
			return Allow(), nil
		}
		return Deny(ReasonInsufficientPermissions), nil

	case roles.ClubOwner:
		if granterIsAdmin {
			return Allow(), nil
		}
		// Ownership transfer: only the club's current owner may hand it over.
		return g.requireClubOwner(ctx, granter, clubID, ReasonCannotTransferOwnership)

	case roles.Trainer, roles.Assistant:
		if granterIsAdmin {
			return Allow(), nil
		}
		return g.requireClubOwner(ctx, granter, clubID, ReasonInsufficientPermissions)
	}

	return Deny(ReasonUnauthorized), nil
}

func (g *AssignmentGuard) requireClubOwner(ctx context.Context, granter directory.User, clubID string, denial Reason) (Decision, error) {
	if clubID == "" {
		return Deny(denial), nil
	}
	club, err := g.clubs.GetClub(ctx, clubID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonResourceNotFound), nil
		}
		return Decision{}, storeErr("load club", err)
	}
	if club.IsOwner(granter.ID) {
		return Allow(), nil
	}
	return Deny(denial), nil
}
