package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/guard"
	"github.com/MrJamesThe3rd/brokerledger/internal/http/api"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	"github.com/MrJamesThe3rd/brokerledger/internal/payment"
	"github.com/MrJamesThe3rd/brokerledger/internal/sequence"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Duplicate", err: &guard.DuplicatePaymentError{DealID: 1, PaymentType: "trust_refund"}, want: http.StatusConflict},
		{name: "AlreadyCompleted", err: payment.ErrAlreadyCompleted, want: http.StatusConflict},
		{name: "SequenceUnavailable", err: fmt.Errorf("%w: general", sequence.ErrUnavailable), want: http.StatusServiceUnavailable},
		{name: "StorageUnavailable", err: database.Wrap("inserting", errors.New("connection reset")), want: http.StatusServiceUnavailable},
		{name: "Unbalanced", err: fmt.Errorf("%w: debits 1.00, credits 2.00", ledger.ErrUnbalancedBatch), want: http.StatusUnprocessableEntity},
		{name: "NotFound", err: payment.ErrNotFound, want: http.StatusNotFound},
		{name: "Unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, api.Status(tt.err))
		})
	}
}

type request struct {
	Series string   `json:"series" validate:"required"`
	Date   api.Date `json:"date"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "Valid", body: `{"series": "general", "date": "2025-09-08"}`},
		{name: "MissingRequired", body: `{"date": "2025-09-08"}`, wantErr: "series is required"},
		{name: "UnknownField", body: `{"series": "general", "extra": 1}`, wantErr: "unknown field"},
		{name: "BadDate", body: `{"series": "general", "date": "08/09/2025"}`, wantErr: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var req request
			err := api.Decode(r, &req)

			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "general", req.Series)
			assert.Equal(t, time.Date(2025, time.September, 8, 0, 0, 0, 0, time.UTC), req.Date.Time)
		})
	}
}

func TestQueryDate(t *testing.T) {
	fallback := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	r := httptest.NewRequest(http.MethodGet, "/?asOf=2025-09-30", nil)
	got, err := api.QueryDate(r, "asOf", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC), got)

	got, err = api.QueryDate(r, "from", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	r = httptest.NewRequest(http.MethodGet, "/?asOf=yesterday", nil)
	_, err = api.QueryDate(r, "asOf", fallback)
	assert.Error(t, err)
}
