package errors

import (
	"context"
	stderrs "errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the divisions schema can raise
const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
	sqlstateNotNullViolation    = "23502"
	sqlstateCheckViolation      = "23514"
	sqlstateStringTooLong       = "22001"
	sqlstateBadTextValue        = "22P02"
	sqlstateNumericOutOfRange   = "22003"
	sqlstateReadOnlyTx          = "25006"
	sqlstateAdminShutdown       = "57P01"
	sqlstateCannotConnectNow    = "57P03"
	sqlstateTooManyConnections  = "53300"
)

var codeBySQLState = map[string]ErrorCode{
	sqlstateUniqueViolation:     ErrorCodeDuplicateKey,
	sqlstateForeignKeyViolation: ErrorCodeInvalidArgument,
	sqlstateStringTooLong:       ErrorCodeInvalidArgument,
	sqlstateBadTextValue:        ErrorCodeInvalidArgument,
	sqlstateNumericOutOfRange:   ErrorCodeInvalidArgument,
	sqlstateNotNullViolation:    ErrorCodeValidation,
	sqlstateCheckViolation:      ErrorCodeValidation,
	sqlstateReadOnlyTx:          ErrorCodeUnavailable,
	sqlstateAdminShutdown:       ErrorCodeUnavailable,
	sqlstateCannotConnectNow:    ErrorCodeUnavailable,
	sqlstateTooManyConnections:  ErrorCodeUnavailable,
}

// ExtractPgError finds a server error in err's chain
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	ok := stderrs.As(err, &pgErr)
	return pgErr, ok
}

// IsSQLState reports whether the server answered with code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports a unique violation, e.g. a second mapping for one division
func IsDuplicateKey(err error) bool { return IsSQLState(err, sqlstateUniqueViolation) }

// IsForeignKeyViolation reports a marker written for a division with no mapping
func IsForeignKeyViolation(err error) bool { return IsSQLState(err, sqlstateForeignKeyViolation) }

// IsConnectivity reports failures where the server never ran the statement
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	var ce *pgconn.ConnectError
	var ne net.Error
	if stderrs.As(err, &ce) || stderrs.As(err, &ne) {
		return true
	}
	if pgErr, ok := ExtractPgError(err); ok {
		switch pgErr.Code {
		case sqlstateCannotConnectNow, sqlstateAdminShutdown, sqlstateTooManyConnections:
			return true
		}
	}
	return pgconn.SafeToRetry(err)
}

// DBErrorCode classifies a server error; ok is false when err carries none
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if c, ok := codeBySQLState[pgErr.Code]; ok {
		return c, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pgx error with msg and a code. Errors the server never
// answered are Timeout or Unavailable; anything else unclassified is DB.
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		switch {
		case stderrs.Is(err, context.DeadlineExceeded):
			code = ErrorCodeTimeout
		case IsConnectivity(err):
			code = ErrorCodeUnavailable
		default:
			code = ErrorCodeDB
		}
	}
	return Wrap(err, code, msg)
}
