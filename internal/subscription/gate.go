// Package subscription decides whether a user currently holds a paid
// entitlement that unlocks club management features.
package subscription

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/clubforge/clubforge/internal/directory"
)

// DirectoryPort abstracts the directory reads the gate needs.
type DirectoryPort interface {
	GetUser(ctx context.Context, id string) (directory.User, error)
	GetClub(ctx context.Context, id string) (directory.Club, error)
}

// Gate answers entitlement queries. Results are never cached across requests
// because subscriptions can lapse at any moment; concurrent lookups for the
// same user are collapsed through singleflight instead.
type Gate struct {
	dir   DirectoryPort
	group singleflight.Group
}

// NewGate constructs a Gate.
func NewGate(dir DirectoryPort) *Gate {
	return &Gate{dir: dir}
}

// Entitled reports whether the status/plan pair unlocks club management.
func Entitled(status directory.SubscriptionStatus, plan directory.SubscriptionPlan) bool {
	statusOK := status == directory.SubscriptionActive || status == directory.SubscriptionTrial
	planOK := plan == directory.PlanClub || plan == directory.PlanFull
	return statusOK && planOK
}

// HasActiveEntitlement reports whether the user holds an active entitlement.
func (g *Gate) HasActiveEntitlement(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	v, err, _ := g.group.Do("user:"+userID, func() (any, error) {
		user, err := g.dir.GetUser(ctx, userID)
		if err != nil {
			return false, err
		}
		return Entitled(user.SubscriptionStatus, user.SubscriptionPlan), nil
	})
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("subscription: lookup user %s: %w", userID, err)
	}
	return v.(bool), nil
}

// HasActiveEntitlementForClub resolves the club's owner and delegates.
func (g *Gate) HasActiveEntitlementForClub(ctx context.Context, clubID string) (bool, error) {
	club, err := g.dir.GetClub(ctx, clubID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("subscription: lookup club %s: %w", clubID, err)
	}
	return g.HasActiveEntitlement(ctx, club.OwnerID)
}
