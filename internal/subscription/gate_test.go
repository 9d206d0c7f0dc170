package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/clubforge/clubforge/internal/directory"
)

type stubDirectory struct {
	users map[string]directory.User
	clubs map[string]directory.Club
	err   error
}

func (s *stubDirectory) GetUser(ctx context.Context, id string) (directory.User, error) {
	if s.err != nil {
		return directory.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return directory.User{}, directory.ErrNotFound
	}
	return u, nil
}

func (s *stubDirectory) GetClub(ctx context.Context, id string) (directory.Club, error) {
	if s.err != nil {
		return directory.Club{}, s.err
	}
	c, ok := s.clubs[id]
	if !ok {
		return directory.Club{}, directory.ErrNotFound
	}
	return c, nil
}

func TestEntitled(t *testing.T) {
	cases := []struct {
		status directory.SubscriptionStatus
		plan   directory.SubscriptionPlan
		want   bool
	}{
		{directory.SubscriptionActive, directory.PlanClub, true},
		{directory.SubscriptionActive, directory.PlanFull, true},
		{directory.SubscriptionTrial, directory.PlanClub, true},
		{directory.SubscriptionTrial, directory.PlanBasic, false},
		{directory.SubscriptionExpired, directory.PlanFull, false},
		{directory.SubscriptionCanceled, directory.PlanClub, false},
		{"", "", false},
	}
	for _, tc := range cases {
		if got := Entitled(tc.status, tc.plan); got != tc.want {
			t.Errorf("Entitled(%q, %q) = %v, want %v", tc.status, tc.plan, got, tc.want)
		}
	}
}

func TestHasActiveEntitlement(t *testing.T) {
	dir := &stubDirectory{users: map[string]directory.User{
		"u1": {ID: "u1", SubscriptionStatus: directory.SubscriptionTrial, SubscriptionPlan: directory.PlanClub},
		"u2": {ID: "u2", SubscriptionStatus: directory.SubscriptionExpired, SubscriptionPlan: directory.PlanFull},
	}}
	gate := NewGate(dir)

	ok, err := gate.HasActiveEntitlement(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("expected entitlement for u1, got ok=%v err=%v", ok, err)
	}
	ok, err = gate.HasActiveEntitlement(context.Background(), "u2")
	if err != nil || ok {
		t.Fatalf("expected no entitlement for u2, got ok=%v err=%v", ok, err)
	}
	// Unknown users are simply not entitled.
	ok, err = gate.HasActiveEntitlement(context.Background(), "ghost")
	if err != nil || ok {
		t.Fatalf("expected no entitlement for unknown user, got ok=%v err=%v", ok, err)
	}
}

func TestHasActiveEntitlementForClub(t *testing.T) {
	dir := &stubDirectory{
		users: map[string]directory.User{
			"owner": {ID: "owner", SubscriptionStatus: directory.SubscriptionActive, SubscriptionPlan: directory.PlanFull},
		},
		clubs: map[string]directory.Club{
			"c1": {ID: "c1", OwnerID: "owner"},
		},
	}
	gate := NewGate(dir)

	ok, err := gate.HasActiveEntitlementForClub(context.Background(), "c1")
	if err != nil || !ok {
		t.Fatalf("expected entitlement via club owner, got ok=%v err=%v", ok, err)
	}
	ok, err = gate.HasActiveEntitlementForClub(context.Background(), "missing")
	if err != nil || ok {
		t.Fatalf("expected no entitlement for missing club, got ok=%v err=%v", ok, err)
	}
}

func TestInfrastructureErrorsPropagate(t *testing.T) {
	dir := &stubDirectory{err: errors.New("connection refused")}
	gate := NewGate(dir)
	if _, err := gate.HasActiveEntitlement(context.Background(), "u1"); err == nil {
		t.Fatalf("expected infrastructure error to propagate")
	}
}
