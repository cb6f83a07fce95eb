// Package domain defines core types, interfaces, and errors for the
// energy analysis pipeline.
package domain

import "fmt"

// PlanInvalidError indicates a candidate plan violated a structural or
// domain rule. It carries the first violated rule only.
type PlanInvalidError struct {
	Rule    string // short rule identifier, e.g. "unknown_metric_id"
	Message string
}

func (e *PlanInvalidError) Error() string {
	return fmt.Sprintf("plan invalid (%s): %s", e.Rule, e.Message)
}

// SchemaMismatchError indicates the registry resolved a metric to a column
// that is absent from the live table schema.
type SchemaMismatchError struct {
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: column %q not present in table schema", e.Column)
}

// UnsupportedSummaryModeError indicates a summary view requested a mode the
// generator does not implement.
type UnsupportedSummaryModeError struct {
	Mode string
}

func (e *UnsupportedSummaryModeError) Error() string {
	return fmt.Sprintf("unsupported summary mode: %q", e.Mode)
}

// SQLRejectedError indicates the safety gate rejected a query in a bundle.
type SQLRejectedError struct {
	Query string // the offending query string
	Rule  string // which safety rule was violated
}

func (e *SQLRejectedError) Error() string {
	return fmt.Sprintf("sql rejected (%s): %s", e.Rule, e.Query)
}

// ExecutionError indicates the analytic engine failed to execute a
// safety-validated query. Terminal for the run.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }

// TimeoutError indicates a caller-supplied budget expired during a blocking
// operation (query execution or the external planner call).
type TimeoutError struct {
	Stage string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout during %s", e.Stage)
}

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ErrPlanInvalid creates a PlanInvalidError for the given rule.
func ErrPlanInvalid(rule, format string, args ...interface{}) *PlanInvalidError {
	return &PlanInvalidError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// ErrExecution creates an ExecutionError with a formatted message.
func ErrExecution(format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}
