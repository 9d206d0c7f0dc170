package authz

// Reason is a machine-readable denial code. Callers map reasons to user-facing
// text through Message and must not invent wording per call site.
type Reason string

// Denial reasons.
const (
	ReasonNone                    Reason = ""
	ReasonNotAuthenticated        Reason = "not_authenticated"
	ReasonResourceNotFound        Reason = "resource_not_found"
	ReasonUnauthorized            Reason = "unauthorized"
	ReasonInsufficientPermissions Reason = "insufficient_permissions"
	ReasonNotClubOwner            Reason = "not_club_owner"
	ReasonNotClubMember           Reason = "not_club_member"
	ReasonNotTeamMember           Reason = "not_team_member"
	ReasonNotChatParticipant      Reason = "not_chat_participant"
	ReasonSubscriptionExpired     Reason = "subscription_expired"
	ReasonCannotRemoveLastTrainer Reason = "cannot_remove_last_trainer"
	ReasonCannotSelfPromote       Reason = "cannot_self_promote"
	ReasonCannotTransferOwnership Reason = "cannot_transfer_ownership"
)

// messages is the single source of truth for user-facing denial text.
var messages = map[Reason]string{
	ReasonNotAuthenticated:        "You must be signed in to perform this action",
	ReasonResourceNotFound:        "The requested resource could not be found",
	ReasonUnauthorized:            "You are not authorized to perform this action",
	ReasonInsufficientPermissions: "You do not have sufficient permissions for this action",
	ReasonNotClubOwner:            "Only the club owner can delete this club",
	ReasonNotClubMember:           "You are not a member of this club",
	ReasonNotTeamMember:           "You are not a member of this team",
	ReasonNotChatParticipant:      "You are not a participant of this chat",
	ReasonSubscriptionExpired:     "An active subscription is required to manage this club",
	ReasonCannotRemoveLastTrainer: "A team must keep at least one trainer",
	ReasonCannotSelfPromote:       "You cannot change your own role",
	ReasonCannotTransferOwnership: "Only the current owner can transfer club ownership",
}

// Message returns the fixed user-facing text for a reason. Unknown reasons
// fall back to the generic unauthorized message.
func Message(r Reason) string {
	if msg, ok := messages[r]; ok {
		return msg
	}
	if r == ReasonNone {
		return ""
	}
	return messages[ReasonUnauthorized]
}
