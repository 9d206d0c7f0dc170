package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/roles"
)

type stubDirectory struct {
	clubs  map[string]directory.Club
	teams  map[string]directory.Team
	events map[string]directory.Event
	chats  map[string]directory.Chat
	users  map[string]directory.User
	err    error
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

func (s *stubDirectory) GetTeam(ctx context.Context, clubID, teamID string) (directory.Team, error) {
	if s.err != nil {
		return directory.Team{}, s.err
	}
	t, ok := s.teams[teamID]
	if !ok || t.ClubID != clubID {
		return directory.Team{}, directory.ErrNotFound
	}
	return t, nil
}

func (s *stubDirectory) GetEvent(ctx context.Context, id string) (directory.Event, error) {
	if s.err != nil {
		return directory.Event{}, s.err
	}
	e, ok := s.events[id]
	if !ok {
		return directory.Event{}, directory.ErrNotFound
	}
	return e, nil
}

func (s *stubDirectory) GetChat(ctx context.Context, id string) (directory.Chat, error) {
	if s.err != nil {
		return directory.Chat{}, s.err
	}
	c, ok := s.chats[id]
	if !ok {
		return directory.Chat{}, directory.ErrNotFound
	}
	return c, nil
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

type stubEntitlements struct {
	entitled map[string]bool
	err      error
}

func (s *stubEntitlements) HasActiveEntitlement(ctx context.Context, userID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.entitled[userID], nil
}

func newTestEngine(dir *stubDirectory, ent *stubEntitlements) *Engine {
	if ent == nil {
		ent = &stubEntitlements{}
	}
	return NewEngine(dir, ent, nil)
}

func fixtureDirectory() *stubDirectory {
	return &stubDirectory{
		clubs: map[string]directory.Club{
			"club-1": {
				ID:           "club-1",
				Name:         "Falcons",
				OwnerID:      "owner",
				MemberIDs:    []string{"member"},
				TrainerIDs:   []string{"t1", "t2"},
				AssistantIDs: []string{"helper"},
			},
		},
		teams: map[string]directory.Team{
			"team-alpha": {
				ID:         "team-alpha",
				ClubID:     "club-1",
				Name:       "Alpha",
				CreatorID:  "t1",
				MemberIDs:  []string{"player"},
				TrainerIDs: []string{"t1"},
			},
		},
		events: map[string]directory.Event{},
		chats:  map[string]directory.Chat{},
	}
}

func TestAdminBypassesEverything(t *testing.T) {
	dir := fixtureDirectory()
	engine := newTestEngine(dir, nil)
	admin := Principal{ID: "root", Role: roles.Admin}
	super := Principal{ID: "sys", Role: roles.User, SuperAdmin: true}

	refs := []ResourceRef{
		ClubRef("club-1"),
		ClubRef("no-such-club"),
		TeamRef("club-1", "team-alpha"),
		TeamRef("ghost", "ghost"),
		EventRef("nope"),
		ChatRef("nope"),
		{Type: ResourceType("planet"), ID: "mars"},
	}
	actions := []Action{ActionViewClub, ActionDeleteClub, ActionManageTeam, ActionSendMessage, Action("made_up")}

	for _, p := range []Principal{admin, super} {
		for _, ref := range refs {
			for _, action := range actions {
				d, err := engine.Decide(context.Background(), p, ref, action)
				if err != nil {
					t.Fatalf("decide(%s %s %s): %v", p.ID, ref.Type, action, err)
				}
				if !d.Allowed {
					t.Fatalf("expected admin bypass for %s on %s/%s, got %+v", p.ID, ref.Type, ref.ID, d)
				}
			}
		}
	}
}

func TestUnauthenticatedPrincipal(t *testing.T) {
	engine := newTestEngine(fixtureDirectory(), nil)
	d, err := engine.Decide(context.Background(), Principal{}, ClubRef("club-1"), ActionViewClub)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Allowed || d.Reason != ReasonNotAuthenticated {
		t.Fatalf("expected not_authenticated, got %+v", d)
	}
}

func TestResourceNotFoundPrecedesRoleLogic(t *testing.T) {
	engine := newTestEngine(fixtureDirectory(), nil)
	stranger := Principal{ID: "stranger", Role: roles.User}

	cases := []struct {
		ref    ResourceRef
		action Action
	}{
		{ClubRef("missing"), ActionDeleteClub},
		{TeamRef("club-1", "missing"), ActionManageTeam},
		{TeamRef("missing", "team-alpha"), ActionViewTeam},
		{EventRef("missing"), ActionViewEvent},
		{ChatRef("missing"), ActionSendMessage},
	}
	for _, tc := range cases {
		d, err := engine.Decide(context.Background(), stranger, tc.ref, tc.action)
		if err != nil {
			t.Fatalf("decide(%s): %v", tc.ref.Type, err)
		}
		if d.Allowed || d.Reason != ReasonResourceNotFound {
			t.Fatalf("expected resource_not_found for %s/%s, got %+v", tc.ref.Type, tc.ref.ID, d)
		}
	}
}

func TestUnknownResourceType(t *testing.T) {
	engine := newTestEngine(fixtureDirectory(), nil)
	d, err := engine.Decide(context.Background(), Principal{ID: "member", Role: roles.User},
		ResourceRef{Type: "spaceship", ID: "x"}, ActionViewClub)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Allowed || d.Reason != ReasonUnauthorized {
		t.Fatalf("expected unauthorized for unknown resource type, got %+v", d)
	}
}

func TestClubViewAndDelete(t *testing.T) {
	engine := newTestEngine(fixtureDirectory(), nil)
	member := Principal{ID: "member", Role: roles.User}

	d, err := engine.Decide(context.Background(), member, ClubRef("club-1"), ActionViewClub)
	if err != nil {
		t.Fatalf("decide view: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("member should view own club, got %+v", d)
	}

	d, err = engine.Decide(context.Background(), member, ClubRef("club-1"), ActionDeleteClub)
	if err != nil {
		t.Fatalf("decide delete: %v", err)
	}
	if d.Allowed || d.Reason != ReasonNotClubOwner {
		t.Fatalf("expected not_club_owner for member delete, got %+v", d)
	}

	d, err = engine.Decide(context.Background(), Principal{ID: "outsider", Role: roles.User}, ClubRef("club-1"), ActionViewClub)
	if err != nil {
		t.Fatalf("decide outsider view: %v", err)
	}
	if d.Allowed || d.Reason != ReasonNotClubMember {
		t.Fatalf("expected not_club_member, got %+v", d)
	}
}

func TestSubscriptionGating(t *testing.T) {
	dir := fixtureDirectory()
	owner := Principal{ID: "owner", Role: roles.ClubOwner, OwnedClubIDs: []string{"club-1"}}

	// Owner with lapsed subscription.
	engine := newTestEngine(dir, &stubEntitlements{entitled: map[string]bool{}})
	d, err := engine.Decide(context.Background(), owner, ClubRef("club-1"), ActionManageClub)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Allowed || d.Reason != ReasonSubscriptionExpired {
		t.Fatalf("expected subscription_expired, got %+v", d)
	}

	// Same owner entitled (e.g. trial on the club plan).
	engine = newTestEngine(dir, &stubEntitlements{entitled: map[string]bool{"owner": true}})
	d, err = engine.Decide(context.Background(), owner, ClubRef("club-1"), ActionManageClub)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected manage_club allowed with entitlement, got %+v", d)
	}

	// Deleting the club never requires a subscription.
	engine = newTestEngine(dir, &stubEntitlements{entitled: map[string]bool{}})
	d, err = engine.Decide(context.Background(), owner, ClubRef("club-1"), ActionDeleteClub)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected delete_club allowed without entitlement, got %+v", d)
	}
}

func TestCreateTeam(t *testing.T) {
	engine := newTestEngine(fixtureDirectory(), nil)
	cases := []struct {
		principal Principal
		want      bool
	}{
		{Principal{ID: "owner", Role: roles.ClubOwner}, true},
		{Principal{ID: "t1", Role: roles.Trainer}, true},
		{Principal{ID: "member", Role: roles.User}, false},
		{Principal{ID: "helper", Role: roles.Assistant}, false},
	}
	for _, tc := range cases {
		d, err := engine.Decide(context.Background(), tc.principal, ClubRef("club-1"), ActionCreateTeam)
		if err != nil {
			t.Fatalf("decide(%s): %v", tc.principal.ID, err)
		}
		if d.Allowed != tc.want {
			t.Fatalf("create_team by %s: got %+v, want allowed=%v", tc.principal.ID, d, tc.want)
		}
	}
}

func TestTeamViewRestrictedToCreatorAndMembers(t *testing.T) {
	engine := newTestEngine(fixtureDirectory(), nil)

	// t2 is a club trainer but neither created Alpha nor belongs to it.
	d, err := engine.Decide(context.Background(), Principal{ID: "t2", Role: roles.Trainer},
		TeamRef("club-1", "team-alpha"), ActionViewTeam)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Allowed || d.Reason != ReasonNotTeamMember {
		t.Fatalf("expected foreign club trainer denied, got %+v", d)
	}

	for _, id := range []string{"owner", "t1", "player"} {
		d, err := engine.Decide(context.Background(), Principal{ID: id, Role: roles.User},
			TeamRef("club-1", "team-alpha"), ActionViewTeam)
		if err != nil {
			t.Fatalf("decide(%s): %v", id, err)
		}
		if !d.Allowed {
			t.Fatalf("expected %s allowed to view team, got %+v", id, d)
		}
	}
}

func TestTeamDelete(t *testing.T) {
	engine := newTestEngine(fixtureDirectory(), nil)
	cases := []struct {
		id   string
		want bool
	}{
		{"owner", true},
		{"t1", true},  // creating trainer
		{"t2", false}, // club trainer, not the creator
		{"player", false},
	}
	for _, tc := range cases {
		d, err := engine.Decide(context.Background(), Principal{ID: tc.id, Role: roles.Trainer},
			TeamRef("club-1", "team-alpha"), ActionDeleteTeam)
		if err != nil {
			t.Fatalf("decide(%s): %v", tc.id, err)
		}
		if d.Allowed != tc.want {
			t.Fatalf("delete_team by %s: got %+v, want allowed=%v", tc.id, d, tc.want)
		}
	}
}

func TestPersonalEventVisibility(t *testing.T) {
	dir := fixtureDirectory()
	dir.events["ev-1"] = directory.Event{
		ID:         "ev-1",
		CreatorID:  "alice",
		Visibility: directory.VisibilityPersonal,
	}
	engine := newTestEngine(dir, nil)
	bob := Principal{ID: "bob", Role: roles.User}

	d, err := engine.Decide(context.Background(), bob, EventRef("ev-1"), ActionViewEvent)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Allowed {
		t.Fatalf("expected bob denied before being invited, got %+v", d)
	}

	// Once bob appears in the response list, any status grants visibility.
	ev := dir.events["ev-1"]
	ev.Responses = map[string]directory.Response{"bob": {Status: "declined"}}
	dir.events["ev-1"] = ev

	d, err = engine.Decide(context.Background(), bob, EventRef("ev-1"), ActionViewEvent)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected bob allowed after invitation, got %+v", d)
	}
}

func TestEventMutation(t *testing.T) {
	dir := fixtureDirectory()
	dir.events["club-ev"] = directory.Event{
		ID: "club-ev", ClubID: "club-1", CreatorID: "member", Visibility: directory.VisibilityClub,
	}
	dir.events["team-ev"] = directory.Event{
		ID: "team-ev", ClubID: "club-1", TeamID: "team-alpha", CreatorID: "player", Visibility: directory.VisibilityTeam,
	}
	engine := newTestEngine(dir, nil)

	cases := []struct {
		name    string
		userID  string
		eventID string
		want    bool
	}{
		{"creator always may modify", "member", "club-ev", true},
		{"club owner may modify club event", "owner", "club-ev", true},
		{"random member may not", "helper", "club-ev", false},
		{"team trainer may modify team event", "t1", "team-ev", true},
		{"foreign trainer may not", "t2", "team-ev", false},
	}
	for _, tc := range cases {
		d, err := engine.Decide(context.Background(), Principal{ID: tc.userID, Role: roles.User},
			EventRef(tc.eventID), ActionModifyEvent)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if d.Allowed != tc.want {
			t.Fatalf("%s: got %+v, want allowed=%v", tc.name, d, tc.want)
		}
	}
}

func TestChatParticipants(t *testing.T) {
	dir := fixtureDirectory()
	dir.chats["chat-1"] = directory.Chat{ID: "chat-1", ParticipantIDs: []string{"alice", "bob"}}
	engine := newTestEngine(dir, nil)

	d, err := engine.Decide(context.Background(), Principal{ID: "alice", Role: roles.User}, ChatRef("chat-1"), ActionSendMessage)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("participant should send messages, got %+v", d)
	}

	d, err = engine.Decide(context.Background(), Principal{ID: "eve", Role: roles.User}, ChatRef("chat-1"), ActionViewChat)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Allowed || d.Reason != ReasonNotChatParticipant {
		t.Fatalf("expected not_chat_participant, got %+v", d)
	}
}

func TestDirectoryFailureIsNotADenial(t *testing.T) {
	dir := fixtureDirectory()
	dir.err = errors.New("connection reset")
	engine := newTestEngine(dir, nil)

	_, err := engine.Decide(context.Background(), Principal{ID: "member", Role: roles.User}, ClubRef("club-1"), ActionViewClub)
	if err == nil {
		t.Fatalf("expected infrastructure error")
	}
	if !errors.Is(err, ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
}

func TestUnknownClubActionDenied(t *testing.T) {
	engine := newTestEngine(fixtureDirectory(), nil)
	d, err := engine.Decide(context.Background(), Principal{ID: "owner", Role: roles.ClubOwner},
		ClubRef("club-1"), Action("paint_the_clubhouse"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Allowed || d.Reason != ReasonUnauthorized {
		t.Fatalf("expected unauthorized for unknown action, got %+v", d)
	}
}
