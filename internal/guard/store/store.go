package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/guard"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// slotLockKey identifies the advisory lock serialising every count and
// consume for one (deal, payment type) pair.
func slotLockKey(dealID int64, paymentType string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(dealID, 10)))
	h.Write([]byte{0})
	h.Write([]byte(paymentType))

	return int64(h.Sum64())
}

func lock(ctx context.Context, ex database.Execer, dealID int64, paymentType string) error {
	if _, err := ex.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", slotLockKey(dealID, paymentType)); err != nil {
		return database.Wrap("acquiring payment slot lock", err)
	}

	return nil
}

func (s *Store) Reserve(ctx context.Context, dealID int64, paymentType string, limit int, ttl time.Duration) (*guard.Reservation, []guard.Existing, error) {
	var (
		res      *guard.Reservation
		existing []guard.Existing
	)

	err := database.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := lock(ctx, tx, dealID, paymentType); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM payment_reservations
			WHERE deal_id = $1 AND payment_type = $2 AND expires_at <= NOW()`,
			dealID, paymentType,
		); err != nil {
			return database.Wrap("purging expired reservations", err)
		}

		var (
			held int
			err  error
		)

		existing, held, err = occupied(ctx, tx, dealID, paymentType)
		if err != nil {
			return err
		}

		if held >= limit {
			return nil
		}

		r := &guard.Reservation{ID: uuid.New(), DealID: dealID, PaymentType: paymentType}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO payment_reservations (id, deal_id, payment_type, expires_at)
			VALUES ($1, $2, $3, NOW() + $4 * INTERVAL '1 millisecond')
			RETURNING expires_at`,
			r.ID, dealID, paymentType, ttl.Milliseconds(),
		).Scan(&r.ExpiresAt)
		if err != nil {
			return database.Wrap("inserting reservation", err)
		}

		res = r

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if res != nil {
		return res, nil, nil
	}

	return nil, existing, nil
}

// occupied returns the payments holding slots and the total number of held
// slots, counting live reservations.
func occupied(ctx context.Context, ex database.Execer, dealID int64, paymentType string) ([]guard.Existing, int, error) {
	query := `
		SELECT series, number, cheque_date, status
		FROM payments
		WHERE deal_id = $1 AND payment_type = $2
		UNION ALL
		SELECT '', 0, NULL, 'reserved'
		FROM payment_reservations
		WHERE deal_id = $1 AND payment_type = $2 AND expires_at > NOW()
		ORDER BY 2`

	rows, err := ex.QueryContext(ctx, query, dealID, paymentType)
	if err != nil {
		return nil, 0, database.Wrap("counting payment slots", err)
	}
	defer rows.Close()

	var (
		existing []guard.Existing
		held     int
	)

	for rows.Next() {
		var (
			e          guard.Existing
			chequeDate sql.NullTime
		)

		if err := rows.Scan(&e.Series, &e.Number, &chequeDate, &e.Status); err != nil {
			return nil, 0, fmt.Errorf("scanning payment slot: %w", err)
		}

		held++

		if !chequeDate.Valid {
			continue
		}

		e.ChequeDate = chequeDate.Time
		existing = append(existing, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, database.Wrap("counting payment slots", err)
	}

	return existing, held, nil
}

func (s *Store) Release(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM payment_reservations WHERE id = $1", id); err != nil {
		return database.Wrap("releasing reservation", err)
	}

	return nil
}

// ConsumeWith turns a reservation into a held payment slot inside the
// caller's transaction. The caller inserts the payment row before commit.
func ConsumeWith(ctx context.Context, ex database.Execer, res *guard.Reservation) error {
	if err := lock(ctx, ex, res.DealID, res.PaymentType); err != nil {
		return err
	}

	result, err := ex.ExecContext(ctx,
		"DELETE FROM payment_reservations WHERE id = $1 AND expires_at > NOW()", res.ID)
	if err != nil {
		return database.Wrap("consuming reservation", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return database.Wrap("consuming reservation", err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", guard.ErrReservationExpired, res.ID)
	}

	return nil
}
