package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/music-odyssey/internal/schedule"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS worksheet_rows (
	worksheet TEXT    NOT NULL,
	position  INTEGER NOT NULL,
	data      JSONB   NOT NULL,
	PRIMARY KEY (worksheet, position)
)`

// PostgresStore keeps one row per schedule row in worksheet_rows.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("create worksheet_rows: %w", err)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context, worksheet string) ([]schedule.Record, error) {
	const q = `SELECT data FROM worksheet_rows WHERE worksheet = $1 ORDER BY position`
	rows, err := s.pool.Query(ctx, q, worksheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		r, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", len(out), err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Update deletes the worksheet and copies the new rows in one transaction.
func (s *PostgresStore) Update(ctx context.Context, worksheet string, rows []schedule.Record) error {
	src := make([][]any, 0, len(rows))
	for i, r := range rows {
		b, err := encodeRecord(r)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		src = append(src, []any{worksheet, i, json.RawMessage(b)})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM worksheet_rows WHERE worksheet = $1`, worksheet); err != nil {
		return err
	}
	if len(src) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"worksheet_rows"},
			[]string{"worksheet", "position", "data"},
			pgx.CopyFromRows(src),
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
