package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/reconciliation"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetRecord(ctx context.Context, accountNumber string, period reconciliation.Period) (*reconciliation.Record, error) {
	rec := &reconciliation.Record{MiscAmount: decimal.Zero}

	var statement decimal.NullDecimal

	err := s.db.QueryRowContext(ctx, `
		SELECT statement_amount, misc_amount
		FROM reconciliation_states
		WHERE account_number = $1 AND period_key = $2`,
		accountNumber, period.Key(),
	).Scan(&statement, &rec.MiscAmount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, database.Wrap("getting reconciliation state", err)
	}

	if statement.Valid {
		rec.StatementAmount = new(statement.Decimal)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_id
		FROM reconciliation_cleared
		WHERE account_number = $1 AND period_key = $2
		ORDER BY cleared_at`,
		accountNumber, period.Key(),
	)
	if err != nil {
		return nil, database.Wrap("listing cleared entries", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning cleared entry: %w", err)
		}

		rec.Cleared = append(rec.Cleared, id)
	}

	if err := rows.Err(); err != nil {
		return nil, database.Wrap("listing cleared entries", err)
	}

	return rec, nil
}

func ensureState(ctx context.Context, ex database.Execer, accountNumber string, period reconciliation.Period) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO reconciliation_states (account_number, period_key, period_from, period_to)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_number, period_key) DO NOTHING`,
		accountNumber, period.Key(), period.From, period.To,
	)
	if err != nil {
		return database.Wrap("creating reconciliation state", err)
	}

	return nil
}

func (s *Store) SetStatementAmount(ctx context.Context, accountNumber string, period reconciliation.Period, amount *decimal.Decimal) error {
	var value decimal.NullDecimal
	if amount != nil {
		value = decimal.NewNullDecimal(*amount)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_states (account_number, period_key, period_from, period_to, statement_amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_number, period_key)
		DO UPDATE SET statement_amount = EXCLUDED.statement_amount, updated_at = NOW()`,
		accountNumber, period.Key(), period.From, period.To, value,
	)
	if err != nil {
		return database.Wrap("setting statement amount", err)
	}

	return nil
}

func (s *Store) SetMiscAmount(ctx context.Context, accountNumber string, period reconciliation.Period, amount decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_states (account_number, period_key, period_from, period_to, misc_amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_number, period_key)
		DO UPDATE SET misc_amount = EXCLUDED.misc_amount, updated_at = NOW()`,
		accountNumber, period.Key(), period.From, period.To, amount,
	)
	if err != nil {
		return database.Wrap("setting misc amount", err)
	}

	return nil
}

// SetCleared only inserts ids of entries that belong to the account and
// period, so the cleared set can never reference a foreign entry.
func (s *Store) SetCleared(ctx context.Context, accountNumber string, period reconciliation.Period, ids []uuid.UUID, cleared bool) error {
	return database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := ensureState(ctx, tx, accountNumber, period); err != nil {
			return err
		}

		for _, id := range ids {
			if !cleared {
				if _, err := tx.ExecContext(ctx, `
					DELETE FROM reconciliation_cleared
					WHERE account_number = $1 AND period_key = $2 AND entry_id = $3`,
					accountNumber, period.Key(), id,
				); err != nil {
					return database.Wrap("unclearing entry", err)
				}

				continue
			}

			result, err := tx.ExecContext(ctx, `
				INSERT INTO reconciliation_cleared (account_number, period_key, entry_id)
				SELECT $1, $2, id
				FROM ledger_entries
				WHERE id = $3 AND account_number = $1 AND occurred_on >= $4 AND occurred_on <= $5
				ON CONFLICT DO NOTHING`,
				accountNumber, period.Key(), id, period.From, period.To,
			)
			if err != nil {
				return database.Wrap("clearing entry", err)
			}

			if n, err := result.RowsAffected(); err == nil && n == 0 {
				if err := s.checkAlreadyCleared(ctx, tx, accountNumber, period, id); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// checkAlreadyCleared separates the idempotent repeat from an id the
// period does not contain.
func (s *Store) checkAlreadyCleared(ctx context.Context, tx *sql.Tx, accountNumber string, period reconciliation.Period, id uuid.UUID) error {
	var exists bool

	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reconciliation_cleared
			WHERE account_number = $1 AND period_key = $2 AND entry_id = $3
		)`,
		accountNumber, period.Key(), id,
	).Scan(&exists)
	if err != nil {
		return database.Wrap("checking cleared entry", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", reconciliation.ErrUnknownEntry, id)
	}

	return nil
}
