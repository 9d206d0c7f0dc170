package authz

import (
	"context"
	"errors"

	"github.com/clubforge/clubforge/internal/directory"
)

// decideTeam validates team-scoped actions. A team is always resolved through
// its parent club; both must exist before any role logic runs.
func (e *Engine) decideTeam(ctx context.Context, p Principal, ref ResourceRef, action Action) (Decision, error) {
	club, err := e.dir.GetClub(ctx, ref.ClubID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonResourceNotFound), nil
		}
		return Decision{}, storeErr("load club", err)
	}
	team, err := e.dir.GetTeam(ctx, ref.ClubID, ref.ID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonResourceNotFound), nil
		}
		return Decision{}, storeErr("load team", err)
	}

	switch action {
	case ActionViewTeam:
		// Club trainers see only teams they created or belong to. Everyone on
		// the team and the club owner may always view.
		if club.IsOwner(p.ID) || team.Includes(p.ID) || team.CreatorID == p.ID {
			return Allow(), nil
		}
		return Deny(ReasonNotTeamMember), nil

	case ActionManageTeam:
		if club.IsOwner(p.ID) || team.HasTrainer(p.ID) || team.HasAssistant(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonInsufficientPermissions), nil

	case ActionDeleteTeam:
		if club.IsOwner(p.ID) {
			return Allow(), nil
		}
		if team.CreatorID == p.ID && club.HasTrainer(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonInsufficientPermissions), nil

	case ActionAddTeamMember, ActionRemoveTeamMember:
		if club.IsOwner(p.ID) || team.HasTrainer(p.ID) || team.HasAssistant(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonInsufficientPermissions), nil
	}

	return Deny(ReasonUnauthorized), nil
}
