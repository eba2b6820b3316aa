package db

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/hackgods/clinic-scheduling/pkg/errors"
)

// SQLSTATE codes the stores care about.
const (
	codeForeignKey         = "23503"
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
	codeSerialization      = "40001"
	codeDeadlock           = "40P01"
	codeAdminShutdown      = "57P01"
	codeCannotConnectNow   = "57P03"
)

// IsConflict reports whether err is a unique or exclusion constraint violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeUniqueViolation || pgErr.Code == codeExclusionViolation
}

// ForeignKeyViolation returns the name of the foreign key constraint err
// violated, if any.
func ForeignKeyViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeForeignKey {
		return "", false
	}
	return pgErr.ConstraintName, true
}

// IsTransient reports whether err comes from the transport or from a condition
// the caller can retry, as opposed to a bad query or a constraint.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return true
		case pgErr.Code == codeSerialization, pgErr.Code == codeDeadlock,
			pgErr.Code == codeAdminShutdown, pgErr.Code == codeCannotConnectNow:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify annotates a store error with the operation that failed. Transient
// failures become STORE_UNAVAILABLE so callers can retry them.
func Classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return apperrors.Wrap(err, apperrors.ErrStoreUnavailable, op)
	}
	return apperrors.Wrap(err, apperrors.ErrInternal, op)
}
