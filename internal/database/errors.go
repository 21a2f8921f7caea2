package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStorageUnavailable marks failures where the database could not be
// reached or did not answer in time. Nothing was committed; callers may retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Wrap annotates err with the operation that failed. Connection loss,
// timeouts and server shutdowns are additionally marked with
// ErrStorageUnavailable.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	if IsUnavailable(err) && !errors.Is(err, ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08: connection exception, 57P: operator intervention, 57014: statement timeout.
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "57P") ||
			pgErr.Code == "57014"
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
