// Package postgres implements the trust engine's ledgers and review store
// on PostgreSQL. Counter updates, threshold detection, and status
// transitions run inside row-locked transactions so concurrent mutations on
// the same review serialize at the database.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/veriwork/trustengine/pkg/errors"
)

// Serialization/deadlock failures are retried by the service layer with
// fresh state, so they surface as ErrConcurrencyConflict rather than raw
// driver errors.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func mapConcurrencyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected {
			return apperrors.ErrConcurrencyConflict
		}
	}
	return err
}
