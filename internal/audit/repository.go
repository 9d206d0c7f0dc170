package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the audit trail.
// The table is append-only; no update or delete statements exist here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one entry.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	var meta []byte
	if len(entry.Meta) > 0 {
		var err error
		meta, err = json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("audit: encode meta: %w", err)
		}
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO audit_logs
		(id, action, actor_id, target_id, resource_type, resource_id, club_id, old_role, new_role, meta, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.Action, entry.ActorID, nullable(entry.TargetID), nullable(entry.ResourceType),
		nullable(entry.ResourceID), nullable(entry.ClubID), nullable(entry.OldRole), nullable(entry.NewRole),
		meta, entry.At)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

const timelineQuery = `SELECT id, action, actor_id, COALESCE(target_id, ''), COALESCE(resource_type, ''),
	COALESCE(resource_id, ''), COALESCE(club_id, ''), COALESCE(old_role, ''), COALESCE(new_role, ''), meta, at
	FROM audit_logs
	WHERE ($1::timestamptz IS NULL OR at >= $1)
	  AND ($2::timestamptz IS NULL OR at <= $2)
	  AND ($3::text IS NULL OR actor_id = $3)
	  AND ($4::text IS NULL OR action = $4)
	  AND ($5::text IS NULL OR resource_type = $5)
	  AND ($6::text IS NULL OR club_id = $6)
	ORDER BY at DESC`

// Window returns one page of entries ordered by timestamp descending.
func (r *Repository) Window(ctx context.Context, filters Filters, limit, offset int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, timelineQuery+` LIMIT $7 OFFSET $8`,
		nullTime(filters.From), nullTime(filters.To), nullable(filters.ActorID), nullable(filters.Action),
		nullable(filters.ResourceType), nullable(filters.ClubID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit: timeline window: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// All returns every matching entry, newest first. Used by the CSV export.
func (r *Repository) All(ctx context.Context, filters Filters) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, timelineQuery,
		nullTime(filters.From), nullTime(filters.To), nullable(filters.ActorID), nullable(filters.Action),
		nullable(filters.ResourceType), nullable(filters.ClubID))
	if err != nil {
		return nil, fmt.Errorf("audit: timeline all: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			meta []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &e.TargetID, &e.ResourceType,
			&e.ResourceID, &e.ClubID, &e.OldRole, &e.NewRole, &meta, &e.At); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, fmt.Errorf("audit: decode meta: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
