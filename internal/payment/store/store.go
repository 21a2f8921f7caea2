package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/guard"
	guardstore "github.com/MrJamesThe3rd/brokerledger/internal/guard/store"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	ledgerstore "github.com/MrJamesThe3rd/brokerledger/internal/ledger/store"
	"github.com/MrJamesThe3rd/brokerledger/internal/payment"
	seqstore "github.com/MrJamesThe3rd/brokerledger/internal/sequence/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectPaymentColumns = `
	series, number, deal_id, payment_type, amount, recipient, cheque_date,
	status, group_id, reference, created_at, completed_at
`

func scanPayment(s scanner) (*payment.Payment, error) {
	var p payment.Payment

	var (
		dealID      sql.NullInt64
		status      string
		completedAt sql.NullTime
	)

	if err := s.Scan(
		&p.Series, &p.Number, &dealID, &p.PaymentType, &p.Amount, &p.Recipient, &p.ChequeDate,
		&status, &p.GroupID, &p.Reference, &p.CreatedAt, &completedAt,
	); err != nil {
		return nil, err
	}

	p.Status = payment.Status(status)

	if dealID.Valid {
		p.DealID = new(dealID.Int64)
	}

	if completedAt.Valid {
		p.CompletedAt = new(completedAt.Time)
	}

	return &p, nil
}

func (s *Store) Begin(ctx context.Context) (payment.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, database.Wrap("beginning transaction", err)
	}

	return &paymentTx{tx: tx}, nil
}

// paymentTx runs numbering, ledger append, reservation consume and the
// payment insert on one *sql.Tx.
type paymentTx struct {
	tx *sql.Tx
}

func (t *paymentTx) NextNumber(ctx context.Context, series string, start int64) (int64, error) {
	return seqstore.NextWith(ctx, t.tx, series, start)
}

func (t *paymentTx) Append(ctx context.Context, entries []*ledger.Entry) error {
	return ledgerstore.AppendWith(ctx, t.tx, entries)
}

func (t *paymentTx) ConsumeReservation(ctx context.Context, res *guard.Reservation) error {
	return guardstore.ConsumeWith(ctx, t.tx, res)
}

func (t *paymentTx) InsertPayment(ctx context.Context, p *payment.Payment) error {
	var completedAt sql.NullTime

	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO payments
			(series, number, deal_id, payment_type, amount, recipient, cheque_date, status, group_id, reference, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CASE WHEN $8::text = 'completed' THEN NOW() END)
		RETURNING created_at, completed_at`,
		p.Series, p.Number, p.DealID, p.PaymentType, p.Amount, p.Recipient, p.ChequeDate,
		string(p.Status), p.GroupID, p.Reference,
	).Scan(&p.CreatedAt, &completedAt)
	if err != nil {
		return database.Wrap("inserting payment", err)
	}

	if completedAt.Valid {
		p.CompletedAt = new(completedAt.Time)
	}

	return nil
}

func (t *paymentTx) Commit() error {
	return database.Wrap("committing transaction", t.tx.Commit())
}

func (t *paymentTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}

func (s *Store) Get(ctx context.Context, series string, number int64) (*payment.Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectPaymentColumns+`
		FROM payments
		WHERE series = $1 AND number = $2`,
		series, number,
	)

	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%d", payment.ErrNotFound, series, number)
	}

	if err != nil {
		return nil, database.Wrap("getting payment", err)
	}

	return p, nil
}

func (s *Store) ListByDeal(ctx context.Context, dealID int64) ([]*payment.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectPaymentColumns+`
		FROM payments
		WHERE deal_id = $1
		ORDER BY cheque_date, series, number`,
		dealID,
	)
	if err != nil {
		return nil, database.Wrap("listing payments", err)
	}
	defer rows.Close()

	var payments []*payment.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, database.Wrap("listing payments", err)
	}

	return payments, nil
}

func (s *Store) Complete(ctx context.Context, series string, number int64) (*payment.Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE payments
		SET status = 'completed', completed_at = NOW()
		WHERE series = $1 AND number = $2 AND status = 'pending'
		RETURNING `+selectPaymentColumns,
		series, number,
	)

	p, err := scanPayment(row)
	if err == nil {
		return p, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, database.Wrap("completing payment", err)
	}

	if _, err := s.Get(ctx, series, number); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("%w: %s/%d", payment.ErrAlreadyCompleted, series, number)
}
