package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clubforge/clubforge/internal/directory"
)

// ErrDirectoryUnavailable marks infrastructure failures of the underlying
// store. Callers can distinguish "denied" from "undetermined" through it and
// choose to retry instead of treating the failure as forbidden.
var ErrDirectoryUnavailable = errors.New("authz: directory unavailable")

// DirectoryPort lists the directory reads the engine performs.
type DirectoryPort interface {
	GetClub(ctx context.Context, id string) (directory.Club, error)
	GetTeam(ctx context.Context, clubID, teamID string) (directory.Team, error)
	GetEvent(ctx context.Context, id string) (directory.Event, error)
	GetChat(ctx context.Context, id string) (directory.Chat, error)
}

// EntitlementPort answers subscription queries for club management actions.
type EntitlementPort interface {
	HasActiveEntitlement(ctx context.Context, userID string) (bool, error)
}

type validatorFunc func(ctx context.Context, p Principal, ref ResourceRef, action Action) (Decision, error)

// Engine is the privilege engine. It is stateless; every call performs fresh
// directory reads and returns a fresh decision.
type Engine struct {
	dir          DirectoryPort
	entitlements EntitlementPort
	logger       *slog.Logger
	validators   map[ResourceType]validatorFunc
}

// NewEngine constructs an Engine with one validator per resource type.
func NewEngine(dir DirectoryPort, entitlements EntitlementPort, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{dir: dir, entitlements: entitlements, logger: logger}
	e.validators = map[ResourceType]validatorFunc{
		ResourceClub:  e.decideClub,
		ResourceTeam:  e.decideTeam,
		ResourceEvent: e.decideEvent,
		ResourceChat:  e.decideChat,
	}
	return e
}

// Decide computes the verdict for principal performing action on the resource.
// Admins bypass every resource rule before any directory lookup, so admin
// actions never fail on resources that do not exist yet.
func (e *Engine) Decide(ctx context.Context, p Principal, ref ResourceRef, action Action) (Decision, error) {
	if p.ID == "" {
		return Deny(ReasonNotAuthenticated), nil
	}
	if p.IsAdmin() {
		return Allow(), nil
	}
	validate, ok := e.validators[ref.Type]
	if !ok {
		e.logger.Warn("decide on unknown resource type",
			slog.String("resource_type", string(ref.Type)),
			slog.String("action", string(action)))
		return Deny(ReasonUnauthorized), nil
	}
	return validate(ctx, p, ref, action)
}

// storeErr wraps an infrastructure failure so callers can errors.Is it
// against ErrDirectoryUnavailable.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, op, err)
}
