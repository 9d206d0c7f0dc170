package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clubforge/clubforge/internal/platform/db"
	"github.com/clubforge/clubforge/internal/roles"
)

// Store provides PostgreSQL backed access to directory entities.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, super_admin, owned_club_ids, club_roles,
	subscription_status, subscription_plan, is_active, created_at, updated_at`

// GetUser fetches a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email, used by the login flow.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetClub fetches a club by ID.
func (s *Store) GetClub(ctx context.Context, id string) (Club, error) {
	var c Club
	err := s.pool.QueryRow(ctx, `SELECT id, name, owner_id, member_ids, trainer_ids, assistant_ids, created_at, updated_at
		FROM clubs WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.OwnerID, &c.MemberIDs, &c.TrainerIDs, &c.AssistantIDs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Club{}, mapError(err)
	}
	return c, nil
}

// GetTeam fetches a team through its parent club. Teams are never addressed
// without their club.
func (s *Store) GetTeam(ctx context.Context, clubID, teamID string) (Team, error) {
	var t Team
	err := s.pool.QueryRow(ctx, `SELECT id, club_id, name, creator_id, member_ids, trainer_ids, assistant_ids, created_at
		FROM teams WHERE id = $1 AND club_id = $2`, teamID, clubID).
		Scan(&t.ID, &t.ClubID, &t.Name, &t.CreatorID, &t.MemberIDs, &t.TrainerIDs, &t.AssistantIDs, &t.CreatedAt)
	if err != nil {
		return Team{}, mapError(err)
	}
	return t, nil
}

// GetEvent fetches an event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (Event, error) {
	var (
		e       Event
		rawResp []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT id, club_id, team_id, creator_id, title, visibility, responses, starts_at, created_at
		FROM events WHERE id = $1`, id).
		Scan(&e.ID, &e.ClubID, &e.TeamID, &e.CreatorID, &e.Title, &e.Visibility, &rawResp, &e.StartsAt, &e.CreatedAt)
	if err != nil {
		return Event{}, mapError(err)
	}
	if len(rawResp) > 0 {
		if err := json.Unmarshal(rawResp, &e.Responses); err != nil {
			return Event{}, fmt.Errorf("directory: decode responses: %w", err)
		}
	}
	return e, nil
}

// GetChat fetches a chat by ID.
func (s *Store) GetChat(ctx context.Context, id string) (Chat, error) {
	var c Chat
	err := s.pool.QueryRow(ctx, `SELECT id, name, participant_ids, created_at FROM chats WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.ParticipantIDs, &c.CreatedAt)
	if err != nil {
		return Chat{}, mapError(err)
	}
	return c, nil
}

// ListClubs returns a lightweight projection of every club, ordered by name.
func (s *Store) ListClubs(ctx context.Context) ([]ClubRef, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, owner_id FROM clubs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("directory: list clubs: %w", err)
	}
	defer rows.Close()

	var refs []ClubRef
	for rows.Next() {
		var ref ClubRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.OwnerID); err != nil {
			return nil, fmt.Errorf("directory: scan club: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// SetClubRole updates the user's club-scoped role and moves them into the
// matching club membership array. Executed in one transaction so the club
// arrays and the user's role map never diverge.
func (s *Store) SetClubRole(ctx context.Context, clubID, userID string, role roles.Role) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users
			SET club_roles = jsonb_set(COALESCE(club_roles, '{}'::jsonb), ARRAY[$1], to_jsonb($2::text)),
			    updated_at = NOW()
			WHERE id = $3`, clubID, string(role), userID)
		if err != nil {
			return fmt.Errorf("directory: set club role: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		tag, err = tx.Exec(ctx, `UPDATE clubs SET
			member_ids    = CASE WHEN $3 = 'user' OR $3 = 'parent' THEN array_append(array_remove(member_ids, $2), $2) ELSE array_remove(member_ids, $2) END,
			trainer_ids   = CASE WHEN $3 = 'trainer'   THEN array_append(array_remove(trainer_ids, $2), $2)   ELSE array_remove(trainer_ids, $2) END,
			assistant_ids = CASE WHEN $3 = 'assistant' THEN array_append(array_remove(assistant_ids, $2), $2) ELSE array_remove(assistant_ids, $2) END,
			updated_at    = NOW()
			WHERE id = $1`, clubID, userID, string(role))
		if err != nil {
			return fmt.Errorf("directory: update club membership: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetOwner transfers club ownership atomically. The update is conditioned on
// the currently observed owner so two concurrent transfers cannot both apply.
func (s *Store) SetOwner(ctx context.Context, clubID, oldOwnerID, newOwnerID string) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE clubs SET owner_id = $1, updated_at = NOW()
			WHERE id = $2 AND owner_id = $3`, newOwnerID, clubID, oldOwnerID)
		if err != nil {
			return fmt.Errorf("directory: set owner: %w", err)
		}
		if tag.RowsAffected() == 0 {
			exists, err := clubExists(ctx, tx, clubID)
			if err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrOwnerMismatch
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET owned_club_ids = array_remove(owned_club_ids, $1), updated_at = NOW()
			WHERE id = $2`, clubID, oldOwnerID); err != nil {
			return fmt.Errorf("directory: clear old owner: %w", err)
		}
		tag, err = tx.Exec(ctx, `UPDATE users
			SET owned_club_ids = array_append(array_remove(owned_club_ids, $1), $1),
			    role = CASE WHEN role = 'admin' THEN role ELSE 'club_owner' END,
			    updated_at = NOW()
			WHERE id = $2`, clubID, newOwnerID)
		if err != nil {
			return fmt.Errorf("directory: set new owner: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RemoveTeamTrainer removes a trainer from a team with a single conditional
// update. The cardinality guard in the WHERE clause keeps the minimum-trainer
// invariant safe under concurrent removals: the last trainer can never be
// removed, no matter how the advisory check interleaved.
func (s *Store) RemoveTeamTrainer(ctx context.Context, clubID, teamID, trainerID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE teams
		SET trainer_ids = array_remove(trainer_ids, $3)
		WHERE id = $2 AND club_id = $1 AND $3 = ANY(trainer_ids) AND cardinality(trainer_ids) > 1`,
		clubID, teamID, trainerID)
	if err != nil {
		return fmt.Errorf("directory: remove team trainer: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	team, err := s.GetTeam(ctx, clubID, teamID)
	if err != nil {
		return err
	}
	if !team.HasTrainer(trainerID) {
		return ErrNotFound
	}
	return ErrLastTrainer
}

func clubExists(ctx context.Context, tx pgx.Tx, clubID string) (bool, error) {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM clubs WHERE id = $1`, clubID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("directory: club exists: %w", err)
	}
	return true, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u        User
		rawRoles []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.SuperAdmin, &u.OwnedClubIDs, &rawRoles,
		&u.SubscriptionStatus, &u.SubscriptionPlan, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, mapError(err)
	}
	if len(rawRoles) > 0 {
		raw := map[string]string{}
		if err := json.Unmarshal(rawRoles, &raw); err != nil {
			return User{}, fmt.Errorf("directory: decode club roles: %w", err)
		}
		u.ClubRoles = make(map[string]roles.Role, len(raw))
		for club, role := range raw {
			u.ClubRoles[club] = roles.Role(role)
		}
	}
	return u, nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
