package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Next(ctx context.Context, series string, start int64) (int64, error) {
	return NextWith(ctx, s.db, series, start)
}

// NextWith allocates inside the caller's transaction. The counter row stays
// locked until that transaction ends, so a rollback gives the number back.
func NextWith(ctx context.Context, ex database.Execer, series string, start int64) (int64, error) {
	query := `
		INSERT INTO sequence_counters (series, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (series) DO UPDATE
		SET value = sequence_counters.value + 1, updated_at = NOW()
		RETURNING value
	`

	var n int64
	if err := ex.QueryRowContext(ctx, query, series, start).Scan(&n); err != nil {
		return 0, database.Wrap("allocating sequence number", err)
	}

	return n, nil
}

func (s *Store) Current(ctx context.Context, series string) (int64, bool, error) {
	var n int64

	err := s.db.QueryRowContext(ctx, "SELECT value FROM sequence_counters WHERE series = $1", series).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}

		return 0, false, database.Wrap("reading sequence counter", err)
	}

	return n, true, nil
}

// Seed sets a counter so the next allocation returns value+1. Used when a
// series is carried over from another book.
func (s *Store) Seed(ctx context.Context, series string, value int64) error {
	query := `
		INSERT INTO sequence_counters (series, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (series) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, series, value); err != nil {
		return database.Wrap("seeding sequence counter", err)
	}

	return nil
}
