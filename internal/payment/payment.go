package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
)

var (
	ErrNotFound         = errors.New("payment not found")
	ErrAlreadyCompleted = errors.New("payment already completed")
	ErrInvalidPayment   = errors.New("invalid payment")
	ErrAmountMismatch   = errors.New("legs do not match payment amount")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

type Payment struct {
	Series      string
	Number      int64
	DealID      *int64
	PaymentType string
	Amount      decimal.Decimal
	Recipient   string
	ChequeDate  time.Time
	Status      Status
	GroupID     uuid.UUID
	Reference   string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

type TemplateLeg struct {
	Account string
	Side    Side
}

// Template is the fixed leg layout and per-deal limit of a payment type.
type Template struct {
	Name  string
	Limit int
	Legs  []TemplateLeg
}

// Expand places amount on every leg of the template.
func (t Template) Expand(amount decimal.Decimal) []ledger.Leg {
	legs := make([]ledger.Leg, len(t.Legs))
	for i, tl := range t.Legs {
		leg := ledger.Leg{AccountNumber: tl.Account, Debit: decimal.Zero, Credit: decimal.Zero}
		if tl.Side == SideDebit {
			leg.Debit = amount
		} else {
			leg.Credit = amount
		}

		legs[i] = leg
	}

	return legs
}

// debitLegs is how many times the payment amount is debited.
func (t Template) debitLegs() int {
	n := 0
	for _, tl := range t.Legs {
		if tl.Side == SideDebit {
			n++
		}
	}

	return n
}
