// Package statement reads bank statement exports into signed lines that
// reconciliation can match against ledger entries.
package statement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownFormat = errors.New("unknown statement format")
	ErrMalformed     = errors.New("malformed statement")
)

// Line is one bank statement movement. Amount is signed from the account
// holder's side: deposits are positive, withdrawals and cheques negative.
type Line struct {
	Row         int             `json:"row"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}
