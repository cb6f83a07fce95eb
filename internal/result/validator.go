// Package result classifies executed query output as usable or
// insufficient for a trend narrative.
//
// Insufficient data is an expected, recoverable condition — a complete
// RunResult with a degraded narrative path, never a pipeline error.
package result

import (
	"fmt"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

// requiredColumns are the columns every time-series result must carry.
var requiredColumns = []string{"year", "iso_code", "country", "value"}

const minRows = 2

// Validate checks the shape and coverage of the executed bundle output and
// returns the run's RunResult. summary may be nil when the plan had no
// summary view.
func Validate(timeseries, summary *domain.ResultSet, countries []string) *domain.RunResult {
	res := &domain.RunResult{
		Timeseries: *timeseries,
		Summary:    summary,
		Status:     domain.StatusOK,
	}

	if missing := missingColumns(timeseries.Columns); len(missing) > 0 {
		return insufficient(res, fmt.Sprintf("missing required columns: %v", missing))
	}

	if len(timeseries.Rows) < minRows {
		return insufficient(res, fmt.Sprintf("only %d rows returned, need at least %d", len(timeseries.Rows), minRows))
	}

	if !hasMultiYearSeries(timeseries.Rows, countries) {
		return insufficient(res, "no requested country has data for more than one year")
	}

	return res
}

func insufficient(res *domain.RunResult, reason string) *domain.RunResult {
	res.Status = domain.StatusInsufficientData
	res.Reason = reason
	return res
}

func missingColumns(cols []string) []string {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	var missing []string
	for _, c := range requiredColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// hasMultiYearSeries reports whether at least one requested country has
// rows spanning more than one distinct year. A single-point series cannot
// support a trend narrative.
func hasMultiYearSeries(rows []domain.Row, countries []string) bool {
	requested := make(map[string]bool, len(countries))
	for _, c := range countries {
		requested[c] = true
	}

	years := make(map[string]map[int64]bool)
	for _, row := range rows {
		iso, ok := row["iso_code"].(string)
		if !ok || !requested[iso] {
			continue
		}
		year, ok := asInt64(row["year"])
		if !ok {
			continue
		}
		if years[iso] == nil {
			years[iso] = make(map[int64]bool)
		}
		years[iso][year] = true
		if len(years[iso]) > 1 {
			return true
		}
	}
	return false
}

// asInt64 normalizes the numeric types the DuckDB driver may hand back.
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
