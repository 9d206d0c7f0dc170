// Package membership orchestrates role changes inside clubs and teams:
// guard checks first, then the conditional directory write, then the
// fire-and-forget audit record.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clubforge/clubforge/internal/audit"
	"github.com/clubforge/clubforge/internal/authz"
	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/roles"
	"github.com/clubforge/clubforge/internal/shared"
)

// DirectoryPort covers the directory writes this service performs.
type DirectoryPort interface {
	GetUser(ctx context.Context, id string) (directory.User, error)
	GetClub(ctx context.Context, id string) (directory.Club, error)
	SetClubRole(ctx context.Context, clubID, userID string, role roles.Role) error
	SetOwner(ctx context.Context, clubID, oldOwnerID, newOwnerID string) error
	RemoveTeamTrainer(ctx context.Context, clubID, teamID, trainerID string) error
}

// AssignGuardPort checks who may grant which role.
type AssignGuardPort interface {
	CanAssignRole(ctx context.Context, granterID, targetID string, role roles.Role, clubID string) (authz.Decision, error)
}

// InvariantGuardPort checks structural invariants before removals.
type InvariantGuardPort interface {
	CanRemoveTrainer(ctx context.Context, clubID, teamID, trainerID string) (Decision, error)
}

// DeciderPort resolves general resource-level authorization.
type DeciderPort interface {
	Decide(ctx context.Context, p authz.Principal, ref authz.ResourceRef, action authz.Action) (authz.Decision, error)
}

// AuditPort records the trail entry for a completed change.
type AuditPort interface {
	Record(entry audit.Entry) uuid.UUID
}

// Decision aliases the authorization decision value.
type Decision = authz.Decision

// Service applies membership changes.
type Service struct {
	logger      *slog.Logger
	dir         DirectoryPort
	assignGuard AssignGuardPort
	teamGuard   InvariantGuardPort
	decider     DeciderPort
	recorder    AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, dir DirectoryPort, assignGuard AssignGuardPort, teamGuard InvariantGuardPort, decider DeciderPort, recorder AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{
		logger:      logger,
		dir:         dir,
		assignGuard: assignGuard,
		teamGuard:   teamGuard,
		decider:     decider,
		recorder:    recorder,
		idempotency: idem,
	}
}

// AssignRole grants a role to a user inside a club. The returned decision
// explains a denial; the error reports infrastructure failure only.
func (s *Service) AssignRole(ctx context.Context, granterID, targetID string, role roles.Role, clubID string) (Decision, error) {
	decision, err := s.assignGuard.CanAssignRole(ctx, granterID, targetID, role, clubID)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		s.recordDenied(granterID, targetID, authz.ClubRef(clubID), string(role), decision)
		return decision, nil
	}

	target, err := s.dir.GetUser(ctx, targetID)
	if err != nil {
		return Decision{}, fmt.Errorf("membership: load target: %w", err)
	}
	oldRole, _ := target.RoleInClub(clubID)

	if s.idempotency != nil {
		key := fmt.Sprintf("assign:%s:%s:%s", clubID, targetID, role)
		if err := s.idempotency.CheckAndInsert(ctx, key, "membership"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return authz.Allow(), nil
			}
			return Decision{}, err
		}
	}

	if err := s.dir.SetClubRole(ctx, clubID, targetID, role); err != nil {
		return Decision{}, fmt.Errorf("membership: set club role: %w", err)
	}

	s.recorder.Record(audit.Entry{
		Action:       audit.ActionRoleAssigned,
		ActorID:      granterID,
		TargetID:     targetID,
		ResourceType: string(authz.ResourceClub),
		ResourceID:   clubID,
		ClubID:       clubID,
		OldRole:      string(oldRole),
		NewRole:      string(role),
	})
	return decision, nil
}

// TransferOwnership moves a club to a new owner. The write is conditioned on
// the current owner so concurrent transfers cannot both win.
func (s *Service) TransferOwnership(ctx context.Context, actorID, clubID, newOwnerID string) (Decision, error) {
	decision, err := s.assignGuard.CanAssignRole(ctx, actorID, newOwnerID, roles.ClubOwner, clubID)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		s.recordDenied(actorID, newOwnerID, authz.ClubRef(clubID), string(roles.ClubOwner), decision)
		return decision, nil
	}

	club, err := s.dir.GetClub(ctx, clubID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return authz.Deny(authz.ReasonResourceNotFound), nil
		}
		return Decision{}, fmt.Errorf("membership: load club: %w", err)
	}
	oldOwnerID := club.OwnerID

	if err := s.dir.SetOwner(ctx, clubID, oldOwnerID, newOwnerID); err != nil {
		if errors.Is(err, directory.ErrOwnerMismatch) {
			return authz.Deny(authz.ReasonCannotTransferOwnership), nil
		}
		return Decision{}, fmt.Errorf("membership: transfer ownership: %w", err)
	}

	s.recorder.Record(audit.Entry{
		Action:       audit.ActionOwnershipTransferred,
		ActorID:      actorID,
		TargetID:     newOwnerID,
		ResourceType: string(authz.ResourceClub),
		ResourceID:   clubID,
		ClubID:       clubID,
		Meta: map[string]any{
			"oldOwner":      oldOwnerID,
			"newOwner":      newOwnerID,
			"transferredBy": actorID,
		},
	})
	return decision, nil
}

// RemoveTrainer removes a trainer from a team while keeping at least one
// trainer on it. The structural check is advisory; the directory write
// re-checks the invariant atomically.
func (s *Service) RemoveTrainer(ctx context.Context, actorID, clubID, teamID, trainerID string) (Decision, error) {
	actor, err := s.dir.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return authz.Deny(authz.ReasonNotAuthenticated), nil
		}
		return Decision{}, fmt.Errorf("membership: load actor: %w", err)
	}

	decision, err := s.decider.Decide(ctx, authz.PrincipalFromUser(actor), authz.TeamRef(clubID, teamID), authz.ActionRemoveTeamMember)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		s.recordDenied(actorID, trainerID, authz.TeamRef(clubID, teamID), "", decision)
		return decision, nil
	}

	decision, err = s.teamGuard.CanRemoveTrainer(ctx, clubID, teamID, trainerID)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Allowed {
		s.recordDenied(actorID, trainerID, authz.TeamRef(clubID, teamID), "", decision)
		return decision, nil
	}

	if err := s.dir.RemoveTeamTrainer(ctx, clubID, teamID, trainerID); err != nil {
		switch {
		case errors.Is(err, directory.ErrLastTrainer):
			// Lost the race between the advisory check and the write.
			return authz.Deny(authz.ReasonCannotRemoveLastTrainer), nil
		case errors.Is(err, directory.ErrNotFound):
			return authz.Deny(authz.ReasonResourceNotFound), nil
		default:
			return Decision{}, fmt.Errorf("membership: remove trainer: %w", err)
		}
	}

	s.recorder.Record(audit.Entry{
		Action:       audit.ActionTrainerRemoved,
		ActorID:      actorID,
		TargetID:     trainerID,
		ResourceType: string(authz.ResourceTeam),
		ResourceID:   teamID,
		ClubID:       clubID,
		OldRole:      string(roles.Trainer),
	})
	return decision, nil
}

func (s *Service) recordDenied(actorID, targetID string, resource authz.ResourceRef, role string, decision Decision) {
	entry := audit.Entry{
		Action:       audit.ActionAccessDenied,
		ActorID:      actorID,
		TargetID:     targetID,
		ResourceType: string(resource.Type),
		ResourceID:   resource.ID,
		ClubID:       resource.ClubID,
		Meta:         map[string]any{"reason": string(decision.Reason)},
	}
	if entry.ClubID == "" && resource.Type == authz.ResourceClub {
		entry.ClubID = resource.ID
	}
	if role != "" {
		entry.NewRole = role
	}
	s.recorder.Record(entry)
	s.logger.Info("membership change denied",
		slog.String("actor", actorID),
		slog.String("target", targetID),
		slog.String("reason", string(decision.Reason)))
}
