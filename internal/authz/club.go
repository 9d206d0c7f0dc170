package authz

import (
	"context"
	"errors"

	"github.com/clubforge/clubforge/internal/directory"
)

// decideClub validates club-scoped actions. Existence is checked before any
// role logic so missing clubs always surface as resource_not_found.
func (e *Engine) decideClub(ctx context.Context, p Principal, ref ResourceRef, action Action) (Decision, error) {
	club, err := e.dir.GetClub(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonResourceNotFound), nil
		}
		return Decision{}, storeErr("load club", err)
	}

	switch action {
	case ActionViewClub:
		if club.HasMember(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonNotClubMember), nil

	case ActionManageClub, ActionManageClubConfig:
		if !club.IsOwner(p.ID) {
			return Deny(ReasonNotClubOwner), nil
		}
		entitled, err := e.entitlements.HasActiveEntitlement(ctx, p.ID)
		if err != nil {
			return Decision{}, storeErr("check entitlement", err)
		}
		if !entitled {
			return Deny(ReasonSubscriptionExpired), nil
		}
		return Allow(), nil

	case ActionDeleteClub:
		if club.IsOwner(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonNotClubOwner), nil

	case ActionTransferOwnership:
		if club.IsOwner(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonCannotTransferOwnership), nil

	case ActionCreateTeam:
		if club.IsOwner(p.ID) || club.HasTrainer(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonInsufficientPermissions), nil

	case ActionAddClubMember, ActionRemoveClubMember:
		if club.IsOwner(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonNotClubOwner), nil
	}

	return Deny(ReasonUnauthorized), nil
}
