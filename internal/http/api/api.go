// Package api holds the request decoding and error mapping shared by the
// HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/account"
	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/guard"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	"github.com/MrJamesThe3rd/brokerledger/internal/payment"
	"github.com/MrJamesThe3rd/brokerledger/internal/reconciliation"
	"github.com/MrJamesThe3rd/brokerledger/internal/sequence"
	"github.com/MrJamesThe3rd/brokerledger/internal/statement"
)

type errorResponse struct {
	Error    string           `json:"error"`
	Existing []guard.Existing `json:"existing,omitempty"`
}

var validationErrors = []error{
	ledger.ErrInvalidPosting,
	ledger.ErrInvalidAmount,
	ledger.ErrInvalidAccount,
	ledger.ErrUnbalancedBatch,
	payment.ErrInvalidPayment,
	payment.ErrAmountMismatch,
	guard.ErrUnknownPaymentType,
	sequence.ErrUnknownSeries,
	reconciliation.ErrUnknownEntry,
	reconciliation.ErrInvalidPeriod,
	reconciliation.ErrInvalidAmount,
	statement.ErrUnknownFormat,
	statement.ErrMalformed,
}

var notFoundErrors = []error{
	payment.ErrNotFound,
	ledger.ErrNotFound,
	account.ErrNotFound,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}

	return false
}

// Status maps a service error to its HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, guard.ErrDuplicatePayment),
		errors.Is(err, guard.ErrReservationExpired),
		errors.Is(err, payment.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, sequence.ErrUnavailable), database.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case isAny(err, validationErrors):
		return http.StatusUnprocessableEntity
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON error body. Internal errors are logged and
// their message is not exposed.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := Status(err)
	resp := errorResponse{Error: err.Error()}

	var dup *guard.DuplicatePaymentError
	if errors.As(err, &dup) {
		resp.Existing = dup.Existing
	}

	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed", zap.Error(err))
		resp.Error = "internal error"
	case http.StatusServiceUnavailable:
		logger.Warn("storage unavailable", zap.Error(err))
		resp.Error = "service unavailable, no changes were made"
	}

	JSON(w, logger, status, resp)
}

func BadRequest(w http.ResponseWriter, logger *zap.Logger, msg string) {
	JSON(w, logger, http.StatusBadRequest, errorResponse{Error: msg})
}

func JSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// Decode reads a JSON body, rejecting unknown fields, then checks the
// `validate` struct tags of dst.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := check(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	return nil
}

// Date is a calendar date encoded as "2006-01-02".
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}

	d.Time = t

	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

// QueryDate parses the query parameter key as a date. A missing parameter
// yields fallback.
func QueryDate(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", key, s)
	}

	return t, nil
}
