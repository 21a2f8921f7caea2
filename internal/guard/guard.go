package guard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDuplicatePayment   = errors.New("duplicate payment")
	ErrUnknownPaymentType = errors.New("unknown payment type")
	ErrReservationExpired = errors.New("payment reservation expired")
)

// Reservation holds one of the K slots for a (deal, payment type) pair until
// it is consumed by a payment insert, released, or expires.
type Reservation struct {
	ID          uuid.UUID
	DealID      int64
	PaymentType string
	ExpiresAt   time.Time
}

// Existing describes a payment that already occupies a slot.
type Existing struct {
	Series     string    `json:"series"`
	Number     int64     `json:"sequenceNumber"`
	ChequeDate time.Time `json:"chequeDate"`
	Status     string    `json:"status"`
}

type DuplicatePaymentError struct {
	DealID      int64
	PaymentType string
	Limit       int
	Existing    []Existing
}

func (e *DuplicatePaymentError) Error() string {
	refs := make([]string, len(e.Existing))
	for i, p := range e.Existing {
		refs[i] = fmt.Sprintf("%s/%d on %s", p.Series, p.Number, p.ChequeDate.Format(time.DateOnly))
	}

	msg := fmt.Sprintf("%s: deal %d already has %d of %d %s payments", ErrDuplicatePayment, e.DealID, len(e.Existing), e.Limit, e.PaymentType)
	if len(refs) > 0 {
		msg += " (" + strings.Join(refs, ", ") + ")"
	}

	return msg
}

func (e *DuplicatePaymentError) Is(target error) bool {
	return target == ErrDuplicatePayment
}
