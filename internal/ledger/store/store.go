package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
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

const selectEntryColumns = `
	seq, id, group_id, account_number, debit, credit, description, occurred_on,
	reference, deal_id, created_at
`

func scanEntry(s scanner) (*ledger.Entry, error) {
	var e ledger.Entry

	var reference sql.NullString

	var dealID sql.NullInt64

	if err := s.Scan(
		&e.Seq, &e.ID, &e.GroupID, &e.AccountNumber, &e.Debit, &e.Credit, &e.Description, &e.OccurredOn,
		&reference, &dealID, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	if reference.Valid {
		e.Reference = new(reference.String)
	}

	if dealID.Valid {
		e.DealID = new(dealID.Int64)
	}

	return &e, nil
}

// Append writes the batch in one statement, so either every entry is visible
// or none is.
func (s *Store) Append(ctx context.Context, entries []*ledger.Entry) error {
	return AppendWith(ctx, s.db, entries)
}

// AppendWith is Append against a caller-owned transaction.
func AppendWith(ctx context.Context, ex database.Execer, entries []*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(entries)*9)
	)

	sb.WriteString(`INSERT INTO ledger_entries
		(id, group_id, account_number, debit, credit, description, occurred_on, reference, deal_id)
		VALUES `)

	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}

		n := i * 9
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)

		args = append(args,
			e.ID, e.GroupID, e.AccountNumber, e.Debit, e.Credit, e.Description, e.OccurredOn,
			e.Reference, e.DealID,
		)
	}

	sb.WriteString(" RETURNING id, seq, created_at")

	rows, err := ex.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return database.Wrap("appending ledger entries", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*ledger.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	for rows.Next() {
		var (
			id        uuid.UUID
			seq       int64
			createdAt time.Time
		)

		if err := rows.Scan(&id, &seq, &createdAt); err != nil {
			return fmt.Errorf("scanning appended entry: %w", err)
		}

		if e, ok := byID[id]; ok {
			e.Seq = seq
			e.CreatedAt = createdAt
		}
	}

	if err := rows.Err(); err != nil {
		return database.Wrap("appending ledger entries", err)
	}

	return nil
}

func (s *Store) Query(ctx context.Context, accountNumber string, from, to time.Time) ([]*ledger.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM ledger_entries
		WHERE account_number = $1 AND occurred_on >= $2 AND occurred_on <= $3
		ORDER BY occurred_on ASC, seq ASC`

	return s.list(ctx, "querying ledger", query, accountNumber, from, to)
}

func (s *Store) QueryAll(ctx context.Context, from, to time.Time) ([]*ledger.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM ledger_entries
		WHERE occurred_on >= $1 AND occurred_on <= $2
		ORDER BY occurred_on ASC, seq ASC`

	return s.list(ctx, "querying ledger", query, from, to)
}

func (s *Store) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*ledger.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM ledger_entries
		WHERE group_id = $1
		ORDER BY seq ASC`

	return s.list(ctx, "listing posting group", query, groupID)
}

func (s *Store) list(ctx context.Context, op, query string, args ...any) ([]*ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.Wrap(op, err)
	}
	defer rows.Close()

	var entries []*ledger.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, database.Wrap(op, err)
	}

	return entries, nil
}
