package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPosting  = errors.New("invalid posting")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidAccount  = errors.New("invalid account")
	ErrUnbalancedBatch = errors.New("unbalanced batch")
	ErrNotFound        = errors.New("posting group not found")
)

// Beginning is the earliest date any query needs to reach back to.
var Beginning = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Leg is one side of a posting before it is written.
type Leg struct {
	AccountNumber string          `json:"account"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// Entry is a written ledger line. Entries are never updated or deleted.
type Entry struct {
	ID            uuid.UUID
	Seq           int64
	GroupID       uuid.UUID
	AccountNumber string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Description   string
	OccurredOn    time.Time
	Reference     *string
	DealID        *int64
	CreatedAt     time.Time
}

// Amount is the signed value of the entry, debit minus credit.
func (e *Entry) Amount() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}
