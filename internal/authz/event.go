package authz

import (
	"context"
	"errors"

	"github.com/clubforge/clubforge/internal/directory"
)

// decideEvent validates event access based on the event's visibility level.
func (e *Engine) decideEvent(ctx context.Context, p Principal, ref ResourceRef, action Action) (Decision, error) {
	event, err := e.dir.GetEvent(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonResourceNotFound), nil
		}
		return Decision{}, storeErr("load event", err)
	}

	switch action {
	case ActionViewEvent:
		return e.decideEventView(ctx, p, event)
	case ActionModifyEvent, ActionDeleteEvent:
		return e.decideEventMutation(ctx, p, event)
	}

	return Deny(ReasonUnauthorized), nil
}

func (e *Engine) decideEventView(ctx context.Context, p Principal, event directory.Event) (Decision, error) {
	switch event.Visibility {
	case directory.VisibilityPersonal:
		// Personal events are visible to the creator and anyone invited,
		// regardless of their answer status.
		if event.CreatorID == p.ID || event.HasResponse(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonUnauthorized), nil

	case directory.VisibilityTeam:
		team, err := e.dir.GetTeam(ctx, event.ClubID, event.TeamID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				return Deny(ReasonResourceNotFound), nil
			}
			return Decision{}, storeErr("load event team", err)
		}
		if event.CreatorID == p.ID || team.Includes(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonNotTeamMember), nil

	case directory.VisibilityClub:
		club, err := e.dir.GetClub(ctx, event.ClubID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				return Deny(ReasonResourceNotFound), nil
			}
			return Decision{}, storeErr("load event club", err)
		}
		if event.CreatorID == p.ID || club.HasMember(p.ID) {
			return Allow(), nil
		}
		return Deny(ReasonNotClubMember), nil
	}

	return Deny(ReasonUnauthorized), nil
}

func (e *Engine) decideEventMutation(ctx context.Context, p Principal, event directory.Event) (Decision, error) {
	if event.CreatorID == p.ID {
		return Allow(), nil
	}

	switch event.Visibility {
	case directory.VisibilityClub:
		club, err := e.dir.GetClub(ctx, event.ClubID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				return Deny(ReasonResourceNotFound), nil
			}
			return Decision{}, storeErr("load event club", err)
		}
		if club.IsOwner(p.ID) {
			return Allow(), nil
		}

	case directory.VisibilityTeam:
		team, err := e.dir.GetTeam(ctx, event.ClubID, event.TeamID)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				return Deny(ReasonResourceNotFound), nil
			}
			return Decision{}, storeErr("load event team", err)
		}
		if team.HasTrainer(p.ID) {
			return Allow(), nil
		}
	}

	return Deny(ReasonInsufficientPermissions), nil
}
