package database_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/brokerledger/internal/database"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
	}{
		{name: "DeadlineExceeded", err: context.DeadlineExceeded, wantUnavailable: true},
		{name: "BadConn", err: fmt.Errorf("query: %w", driver.ErrBadConn), wantUnavailable: true},
		{name: "ConnectionFailure", err: &pgconn.PgError{Code: "08006"}, wantUnavailable: true},
		{name: "AdminShutdown", err: &pgconn.PgError{Code: "57P01"}, wantUnavailable: true},
		{name: "StatementTimeout", err: &pgconn.PgError{Code: "57014"}, wantUnavailable: true},
		{name: "UniqueViolation", err: &pgconn.PgError{Code: "23505"}, wantUnavailable: false},
		{name: "Plain", err: errors.New("boom"), wantUnavailable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := database.Wrap("doing something", tt.err)

			assert.ErrorIs(t, got, tt.err)
			assert.Equal(t, tt.wantUnavailable, errors.Is(got, database.ErrStorageUnavailable))
			assert.Contains(t, got.Error(), "doing something")
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, database.Wrap("noop", nil))
}

func TestWrap_AlreadyMarked(t *testing.T) {
	inner := database.Wrap("inner", context.DeadlineExceeded)
	outer := database.Wrap("outer", inner)

	assert.ErrorIs(t, outer, database.ErrStorageUnavailable)
	assert.Equal(t, "outer: inner: storage unavailable: context deadline exceeded", outer.Error())
}
