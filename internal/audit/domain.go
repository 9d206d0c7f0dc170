// Package audit keeps the append-only trail of privileged actions and role
// changes. Entries are recorded fire-and-forget: losing one degrades
// observability but never fails the operation being audited.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Audited actions.
const (
	ActionRoleAssigned         = "role.assigned"
	ActionOwnershipTransferred = "club.ownership_transferred"
	ActionTrainerRemoved       = "team.trainer_removed"
	ActionSubscriptionLapsed   = "subscription.lapsed"
	ActionAccessDenied         = "authz.denied"
)

// Entry is one audit record. Once written it is never mutated or deleted.
type Entry struct {
	ID           uuid.UUID
	Action       string
	ActorID      string
	TargetID     string
	ResourceType string
	ResourceID   string
	ClubID       string
	OldRole      string
	NewRole      string
	Meta         map[string]any
	At           time.Time
}

// Filters narrows timeline queries. Zero values mean "no filter".
type Filters struct {
	From         time.Time
	To           time.Time
	ActorID      string
	Action       string
	ResourceType string
	ClubID       string
	Page         int
	PageSize     int
}

// PagingInfo carries pagination metadata for timeline results.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result bundles timeline rows with paging information.
type Result struct {
	Entries []Entry
	Paging  PagingInfo
}
