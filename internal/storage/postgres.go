package storage

import (
	"context"
	"fmt"
	"statusboard/internal/domain"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS refresh_cycles (
	cycle_id    TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	outcome     TEXT NOT NULL,
	row_count   INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS refresh_cycles_started_at_idx ON refresh_cycles (started_at DESC);
`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps the history of refresh cycles.
type PostgresStore struct {
	db   querier
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: pool, pool: pool}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the history table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create refresh_cycles: %w", err)
	}
	return nil
}

// RecordCycle appends one cycle to the history.
func (s *PostgresStore) RecordCycle(ctx context.Context, c domain.Cycle) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO refresh_cycles (cycle_id, started_at, duration_ms, outcome, row_count, error)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (cycle_id) DO NOTHING`,
		c.ID, c.StartedAt, c.DurationMS, c.Outcome, c.RowCount, c.Error,
	)
	return err
}

// RecentCycles returns the latest cycles, newest first.
func (s *PostgresStore) RecentCycles(ctx context.Context, limit int) ([]domain.Cycle, error) {
	rows, err := s.db.Query(ctx,
		`SELECT cycle_id, started_at, duration_ms, outcome, row_count, error
		 FROM refresh_cycles
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cycles := []domain.Cycle{}
	for rows.Next() {
		var c domain.Cycle
		var startedAt time.Time
		if err := rows.Scan(&c.ID, &startedAt, &c.DurationMS, &c.Outcome, &c.RowCount, &c.Error); err != nil {
			return nil, err
		}
		c.StartedAt = startedAt.UTC()
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}
