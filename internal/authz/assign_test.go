package authz

import (
	"context"
	"testing"

	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/roles"
)

func assignFixture() *stubDirectory {
	return &stubDirectory{
		users: map[string]directory.User{
			"root":   {ID: "root", Role: roles.Admin},
			"owner":  {ID: "owner", Role: roles.ClubOwner, OwnedClubIDs: []string{"club-1"}},
			"t1":     {ID: "t1", Role: roles.Trainer},
			"member": {ID: "member", Role: roles.User},
		},
		clubs: map[string]directory.Club{
			"club-1": {ID: "club-1", OwnerID: "owner"},
		},
	}
}

func TestSelfAssignmentAlwaysDenied(t *testing.T) {
	dir := assignFixture()
	guard := NewAssignmentGuard(dir, dir)

	for _, id := range []string{"root", "owner", "t1", "member"} {
		for _, role := range roles.Assignable() {
			d, err := guard.CanAssignRole(context.Background(), id, id, role, "club-1")
			if err != nil {
				t.Fatalf("guard(%s, %s): %v", id, role, err)
			}
			if d.Allowed || d.Reason != ReasonCannotSelfPromote {
				t.Fatalf("expected cannot_self_promote for %s assigning %s to self, got %+v", id, role, d)
			}
		}
	}
}

func TestAdminRoleRequiresAdminGranter(t *testing.T) {
	dir := assignFixture()
	guard := NewAssignmentGuard(dir, dir)

	d, err := guard.CanAssignRole(context.Background(), "root", "member", roles.Admin, "")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("admin should grant admin, got %+v", d)
	}

	d, err = guard.CanAssignRole(context.Background(), "owner", "member", roles.Admin, "")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if d.Allowed || d.Reason != ReasonInsufficientPermissions {
		t.Fatalf("owner must not grant admin, got %+v", d)
	}
}

func TestClubOwnerTransfer(t *testing.T) {
	dir := assignFixture()
	guard := NewAssignmentGuard(dir, dir)

	// Current owner hands over ownership.
	d, err := guard.CanAssignRole(context.Background(), "owner", "t1", roles.ClubOwner, "club-1")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("owner should transfer ownership, got %+v", d)
	}

	// Admins may install a new owner anywhere.
	d, err = guard.CanAssignRole(context.Background(), "root", "t1", roles.ClubOwner, "club-1")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("admin should assign club owner, got %+v", d)
	}

	// A trainer may not.
	d, err = guard.CanAssignRole(context.Background(), "t1", "member", roles.ClubOwner, "club-1")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if d.Allowed || d.Reason != ReasonCannotTransferOwnership {
		t.Fatalf("trainer must not transfer ownership, got %+v", d)
	}
}

func TestTrainerAssignmentRequiresOwnerOrAdmin(t *testing.T) {
	dir := assignFixture()
	guard := NewAssignmentGuard(dir, dir)

	for _, role := range []roles.Role{roles.Trainer, roles.Assistant} {
		d, err := guard.CanAssignRole(context.Background(), "owner", "member", role, "club-1")
		if err != nil {
			t.Fatalf("guard: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("owner should assign %s, got %+v", role, d)
		}

		d, err = guard.CanAssignRole(context.Background(), "t1", "member", role, "club-1")
		if err != nil {
			t.Fatalf("guard: %v", err)
		}
		if d.Allowed {
			t.Fatalf("trainer must not assign %s, got %+v", role, d)
		}
	}
}

func TestUnassignableRolesDenied(t *testing.T) {
	dir := assignFixture()
	guard := NewAssignmentGuard(dir, dir)

	for _, role := range []roles.Role{roles.User, roles.Parent, roles.Role("mascot")} {
		d, err := guard.CanAssignRole(context.Background(), "root", "member", role, "club-1")
		if err != nil {
			t.Fatalf("guard: %v", err)
		}
		if d.Allowed || d.Reason != ReasonUnauthorized {
			t.Fatalf("expected unauthorized for role %s, got %+v", role, d)
		}
	}
}

func TestAssignTargetMustExist(t *testing.T) {
	dir := assignFixture()
	guard := NewAssignmentGuard(dir, dir)

	d, err := guard.CanAssignRole(context.Background(), "root", "ghost", roles.Trainer, "club-1")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if d.Allowed || d.Reason != ReasonResourceNotFound {
		t.Fatalf("expected resource_not_found for unknown target, got %+v", d)
	}
}

func TestAssignMissingClub(t *testing.T) {
	dir := assignFixture()
	guard := NewAssignmentGuard(dir, dir)

	d, err := guard.CanAssignRole(context.Background(), "owner", "member", roles.Trainer, "missing")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if d.Allowed || d.Reason != ReasonResourceNotFound {
		t.Fatalf("expected resource_not_found for unknown club, got %+v", d)
	}
}
