package api

import (
	"errors"
	"net/http"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
//
// Plan and summary-mode problems come from the caller's candidate, so they
// map to 400. Schema mismatches and rejected SQL mean the server produced
// something it refuses to run, which is a 500 regardless of the input.
func httpStatusFromDomainError(err error) int {
	var planInvalid *domain.PlanInvalidError
	var unsupportedMode *domain.UnsupportedSummaryModeError
	var notFound *domain.NotFoundError
	var timeout *domain.TimeoutError
	var schemaMismatch *domain.SchemaMismatchError
	var sqlRejected *domain.SQLRejectedError

	switch {
	case errors.As(err, &planInvalid):
		return http.StatusBadRequest
	case errors.As(err, &unsupportedMode):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &schemaMismatch):
		return http.StatusInternalServerError
	case errors.As(err, &sqlRejected):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorCodeFromDomainError returns a stable machine-readable code for the
// error body so clients do not have to parse messages.
func errorCodeFromDomainError(err error) string {
	var planInvalid *domain.PlanInvalidError
	var unsupportedMode *domain.UnsupportedSummaryModeError
	var notFound *domain.NotFoundError
	var timeout *domain.TimeoutError
	var schemaMismatch *domain.SchemaMismatchError
	var sqlRejected *domain.SQLRejectedError

	switch {
	case errors.As(err, &planInvalid):
		return "plan_invalid"
	case errors.As(err, &unsupportedMode):
		return "unsupported_summary_mode"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &schemaMismatch):
		return "schema_mismatch"
	case errors.As(err, &sqlRejected):
		return "sql_rejected"
	default:
		return "execution_error"
	}
}
