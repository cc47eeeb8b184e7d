package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// storageAttempts bounds automatic retries of transient storage
// failures.  Logical/domain errors are never retried; retry lives at
// the storage boundary only.
const storageAttempts = 3

// MySQL error numbers treated as transient.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// transient reports whether an error is worth one more attempt:
// dropped connections and lock conflicts, nothing else.
func transient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlLockWaitTimeout || me.Number == mysqlDeadlock
	}
	return false
}

// withRetry runs fn up to storageAttempts times with a short linear
// backoff, retrying only transient driver errors.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !transient(err) || attempt == storageAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}
}
