// README: Quote store backed by PostgreSQL.
package quote

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, q *Quote) error {
	req, err := json.Marshal(q.Request)
	if err != nil {
		return err
	}
	breakdown, err := json.Marshal(q.Breakdown)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO quotes (id, guild_id, requested_by, request, breakdown, total_fare, created_at)
        VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)`,
		q.ID.String(),
		q.GuildID,
		q.RequestedBy,
		req,
		breakdown,
		q.Breakdown.TotalFare.String(),
		q.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, guildID string, id uuid.UUID) (*Quote, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id::text, guild_id, requested_by, request, breakdown, created_at
        FROM quotes
        WHERE guild_id = $1 AND id = $2`, guildID, id.String(),
	)
	q, err := scanQuote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

func (s *Store) ListByGuild(ctx context.Context, guildID string, limit int) ([]Quote, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id::text, guild_id, requested_by, request, breakdown, created_at
        FROM quotes
        WHERE guild_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var (
		q              Quote
		id             string
		req, breakdown []byte
	)
	if err := row.Scan(&id, &q.GuildID, &q.RequestedBy, &req, &breakdown, &q.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	q.ID = parsed
	if err := json.Unmarshal(req, &q.Request); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(breakdown, &q.Breakdown); err != nil {
		return nil, err
	}
	return &q, nil
}
