// Package directory provides read and write access to the entities the
// authorization core reasons about: users, clubs, teams, events and chats.
package directory

import (
	"errors"
	"time"

	"github.com/clubforge/clubforge/internal/roles"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("directory: not found")
	// ErrDuplicate indicates a uniqueness violation on insert.
	ErrDuplicate = errors.New("directory: duplicate entry")
	// ErrLastTrainer indicates a removal would leave a team without trainers.
	ErrLastTrainer = errors.New("directory: cannot remove last trainer")
	// ErrOwnerMismatch indicates an ownership transfer raced with another one.
	ErrOwnerMismatch = errors.New("directory: owner changed concurrently")
)

// SubscriptionStatus is the lifecycle state of a paid subscription.
type SubscriptionStatus string

// Subscription statuses.
const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrial    SubscriptionStatus = "trial"
	SubscriptionExpired  SubscriptionStatus = "expired"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// SubscriptionPlan identifies the purchased tier.
type SubscriptionPlan string

// Subscription plans.
const (
	PlanBasic SubscriptionPlan = "basic"
	PlanClub  SubscriptionPlan = "club"
	PlanFull  SubscriptionPlan = "full"
)

// User is a registered account.
type User struct {
	ID                 string
	Email              string
	Name               string
	PasswordHash       string
	Role               roles.Role
	SuperAdmin         bool
	OwnedClubIDs       []string
	ClubRoles          map[string]roles.Role
	SubscriptionStatus SubscriptionStatus
	SubscriptionPlan   SubscriptionPlan
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OwnsClub reports whether the user owns the given club.
func (u User) OwnsClub(clubID string) bool {
	for _, id := range u.OwnedClubIDs {
		if id == clubID {
			return true
		}
	}
	return false
}

// RoleInClub returns the user's club-scoped role, if any.
func (u User) RoleInClub(clubID string) (roles.Role, bool) {
	r, ok := u.ClubRoles[clubID]
	return r, ok
}

// Club groups members, trainers and assistants under one owner. Teams belong
// exclusively to their club and are always resolved through it.
type Club struct {
	ID           string
	Name         string
	OwnerID      string
	MemberIDs    []string
	TrainerIDs   []string
	AssistantIDs []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOwner reports whether userID owns the club.
func (c Club) IsOwner(userID string) bool {
	return c.OwnerID != "" && c.OwnerID == userID
}

// HasTrainer reports whether userID is a club-level trainer.
func (c Club) HasTrainer(userID string) bool {
	return contains(c.TrainerIDs, userID)
}

// HasAssistant reports whether userID is a club-level assistant.
func (c Club) HasAssistant(userID string) bool {
	return contains(c.AssistantIDs, userID)
}

// HasMember reports whether userID belongs to the club in any capacity,
// including owner, trainer and assistant.
func (c Club) HasMember(userID string) bool {
	return c.IsOwner(userID) ||
		contains(c.MemberIDs, userID) ||
		contains(c.TrainerIDs, userID) ||
		contains(c.AssistantIDs, userID)
}

// Team is a training group inside a club.
type Team struct {
	ID           string
	ClubID       string
	Name         string
	CreatorID    string
	MemberIDs    []string
	TrainerIDs   []string
	AssistantIDs []string
	CreatedAt    time.Time
}

// HasTrainer reports whether userID trains the team.
func (t Team) HasTrainer(userID string) bool {
	return contains(t.TrainerIDs, userID)
}

// HasAssistant reports whether userID assists the team.
func (t Team) HasAssistant(userID string) bool {
	return contains(t.AssistantIDs, userID)
}

// Includes reports whether userID appears on the team in any capacity.
func (t Team) Includes(userID string) bool {
	return contains(t.MemberIDs, userID) ||
		contains(t.TrainerIDs, userID) ||
		contains(t.AssistantIDs, userID)
}

// Visibility controls who may see an event.
type Visibility string

// Event visibility levels.
const (
	VisibilityPersonal Visibility = "personal"
	VisibilityTeam     Visibility = "team"
	VisibilityClub     Visibility = "club"
)

// Response records a user's reply to an event invitation.
type Response struct {
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Event is a scheduled activity with visibility-scoped access.
type Event struct {
	ID         string
	ClubID     string
	TeamID     string
	CreatorID  string
	Title      string
	Visibility Visibility
	Responses  map[string]Response
	StartsAt   time.Time
	CreatedAt  time.Time
}

// HasResponse reports whether userID appears in the response list,
// regardless of answer status.
func (e Event) HasResponse(userID string) bool {
	_, ok := e.Responses[userID]
	return ok
}

// Chat is a message thread between a fixed set of participants.
type Chat struct {
	ID             string
	Name           string
	ParticipantIDs []string
	CreatedAt      time.Time
}

// HasParticipant reports whether userID takes part in the chat.
func (c Chat) HasParticipant(userID string) bool {
	return contains(c.ParticipantIDs, userID)
}

// ClubRef is a lightweight club projection used by background sweeps.
type ClubRef struct {
	ID      string
	Name    string
	OwnerID string
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
