// Package engine executes safety-validated SQL bundles against DuckDB and
// exposes the live schema of the analysis table.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

// Compile-time checks.
var (
	_ domain.QueryExecutor   = (*DuckDBExecutor)(nil)
	_ domain.SchemaInspector = (*DuckDBExecutor)(nil)
)

// DuckDBExecutor runs read queries against a DuckDB connection. The
// connection may be shared across runs for read access; this executor never
// writes.
type DuckDBExecutor struct {
	db      *sql.DB
	table   string
	timeout time.Duration
}

// NewDuckDBExecutor creates an executor over the given connection.
// timeout bounds each bundle execution; zero means no executor-imposed
// bound (the caller's context still applies).
func NewDuckDBExecutor(db *sql.DB, timeout time.Duration) *DuckDBExecutor {
	return &DuckDBExecutor{db: db, table: domain.TableEnergyRaw, timeout: timeout}
}

// ExecuteBundle runs the bundle's queries in order, each as an isolated
// read. Failures are terminal: the SQL was validated before arrival and is
// never mutated or retried here, since changing it post-validation would
// void the safety guarantee.
func (e *DuckDBExecutor) ExecuteBundle(ctx context.Context, bundle *domain.SQLBundle) (timeseries, summary *domain.ResultSet, err error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	timeseries, err = e.runQuery(ctx, bundle.TimeseriesSQL)
	if err != nil {
		return nil, nil, err
	}

	if bundle.SummarySQL != "" {
		summary, err = e.runQuery(ctx, bundle.SummarySQL)
		if err != nil {
			return nil, nil, err
		}
	}

	return timeseries, summary, nil
}

func (e *DuckDBExecutor) runQuery(ctx context.Context, query string) (*domain.ResultSet, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifyErr(ctx, err)
	}
	defer rows.Close() //nolint:errcheck

	rs, err := scanRows(rows)
	if err != nil {
		return nil, classifyErr(ctx, err)
	}
	return rs, nil
}

// InspectSchema returns the column name to type mapping of the analysis
// table from information_schema.
func (e *DuckDBExecutor) InspectSchema(ctx context.Context) (map[string]string, error) {
	rows, err := e.db.QueryContext(ctx,
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ?", e.table)
	if err != nil {
		return nil, classifyErr(ctx, err)
	}
	defer rows.Close() //nolint:errcheck

	schema := make(map[string]string)
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, domain.ErrExecution("scan schema row: %v", err)
		}
		schema[name] = typ
	}
	if err := rows.Err(); err != nil {
		return nil, classifyErr(ctx, err)
	}
	return schema, nil
}

// classifyErr separates deadline expiry from engine-level failures.
func classifyErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.TimeoutError{Stage: "query_execution"}
	}
	return domain.ErrExecution("execute query: %v", err)
}

// scanRows drains *sql.Rows into column names plus rows keyed by column.
// Byte slices become strings so results serialize cleanly to JSON.
func scanRows(rows *sql.Rows) (*domain.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.Row
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(domain.Row, len(cols))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[cols[i]] = string(b)
			} else {
				row[cols[i]] = v
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.ResultSet{Columns: cols, Rows: out}, nil
}
