package reconciliation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
)

var (
	ErrUnknownEntry  = errors.New("entry not in reconciliation period")
	ErrInvalidPeriod = errors.New("invalid reconciliation period")
	ErrInvalidAmount = errors.New("invalid amount")
)

const periodSep = ".."

// Period is an inclusive date range.
type Period struct {
	From time.Time
	To   time.Time
}

func NewPeriod(from, to time.Time) (Period, error) {
	if from.IsZero() || to.IsZero() {
		return Period{}, fmt.Errorf("%w: from and to are required", ErrInvalidPeriod)
	}

	p := Period{From: dateOnly(from), To: dateOnly(to)}
	if p.To.Before(p.From) {
		return Period{}, fmt.Errorf("%w: %s ends before it starts", ErrInvalidPeriod, p.Key())
	}

	return p, nil
}

// ParsePeriodKey reads a key of the form "2025-09-01..2025-09-30".
func ParsePeriodKey(key string) (Period, error) {
	fromStr, toStr, ok := strings.Cut(key, periodSep)
	if !ok {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, key)
	}

	from, err := time.Parse(time.DateOnly, fromStr)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q: %w", ErrInvalidPeriod, key, err)
	}

	to, err := time.Parse(time.DateOnly, toStr)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q: %w", ErrInvalidPeriod, key, err)
	}

	return NewPeriod(from, to)
}

func (p Period) Key() string {
	return p.From.Format(time.DateOnly) + periodSep + p.To.Format(time.DateOnly)
}

func (p Period) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(p.From) && !d.After(p.To)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Formula is the bank reconciliation for one account and period.
//
//	Bank       = Book + Open - Misc
//	Difference = Bank - Statement
//
// Book is the net (debit - credit) of every entry in range. Open is the
// credit - debit of entries not yet cleared: outstanding cheques add back,
// deposits in transit subtract.
type Formula struct {
	Book       decimal.Decimal  `json:"book"`
	Open       decimal.Decimal  `json:"open"`
	Misc       decimal.Decimal  `json:"misc"`
	Bank       decimal.Decimal  `json:"bank"`
	Statement  *decimal.Decimal `json:"statement"`
	Difference *decimal.Decimal `json:"difference"`
}

// Reconciled reports whether a statement amount is set and matches.
func (f Formula) Reconciled() bool {
	return f.Difference != nil && f.Difference.IsZero()
}

// Record is the persisted part of a reconciliation.
type Record struct {
	StatementAmount *decimal.Decimal
	MiscAmount      decimal.Decimal
	Cleared         []uuid.UUID
}

type State struct {
	AccountNumber   string           `json:"account"`
	PeriodKey       string           `json:"periodKey"`
	StatementAmount *decimal.Decimal `json:"statementAmount"`
	MiscAmount      decimal.Decimal  `json:"miscAmount"`
	ClearedEntryIDs []uuid.UUID      `json:"clearedEntryIds"`
	OpenEntryIDs    []uuid.UUID      `json:"openEntryIds"`
	Formula         Formula          `json:"formula"`
}

// Compute evaluates the formula. Cleared ids outside entries are ignored.
func Compute(entries []*ledger.Entry, cleared map[uuid.UUID]bool, misc decimal.Decimal, statement *decimal.Decimal) Formula {
	f := Formula{Book: decimal.Zero, Open: decimal.Zero, Misc: misc}

	for _, e := range entries {
		f.Book = f.Book.Add(e.Amount())

		if !cleared[e.ID] {
			f.Open = f.Open.Sub(e.Amount())
		}
	}

	f.Bank = f.Book.Add(f.Open).Sub(f.Misc)

	if statement != nil {
		stmt := *statement
		diff := f.Bank.Sub(stmt)
		f.Statement = &stmt
		f.Difference = &diff
	}

	return f
}
