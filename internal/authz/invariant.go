package authz

import (
	"context"
	"errors"

	"github.com/clubforge/clubforge/internal/directory"
)

// TeamPort resolves teams for the invariant guard.
type TeamPort interface {
	GetTeam(ctx context.Context, clubID, teamID string) (directory.Team, error)
}

// InvariantGuard enforces structural invariants that must survive every
// mutation. Its verdicts are advisory: the write that follows must re-check
// the invariant atomically (the directory's conditional trainer removal does
// this), so two concurrent removals can never both pass on a two-trainer team.
type InvariantGuard struct {
	teams TeamPort
}

// NewInvariantGuard constructs an InvariantGuard.
func NewInvariantGuard(teams TeamPort) *InvariantGuard {
	return &InvariantGuard{teams: teams}
}

// CanRemoveTrainer denies removing the last trainer of a team.
func (g *InvariantGuard) CanRemoveTrainer(ctx context.Context, clubID, teamID, trainerID string) (Decision, error) {
	team, err := g.teams.GetTeam(ctx, clubID, teamID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return Deny(ReasonResourceNotFound), nil
		}
		return Decision{}, storeErr("load team", err)
	}
	if team.HasTrainer(trainerID) && len(team.TrainerIDs) <= 1 {
		return Deny(ReasonCannotRemoveLastTrainer), nil
	}
	return Allow(), nil
}
