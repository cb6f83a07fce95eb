package domain

import "time"

// SQLBundle holds the fully rendered queries for one plan. The bundle is an
// atomic unit: it is executed in full or not at all, and it never reaches
// the executor without passing the safety gate first.
type SQLBundle struct {
	TimeseriesSQL string `json:"timeseries_sql"`
	SummarySQL    string `json:"summary_sql,omitempty"`
}

// Queries returns the bundle's query strings in execution order.
func (b *SQLBundle) Queries() []string {
	qs := []string{b.TimeseriesSQL}
	if b.SummarySQL != "" {
		qs = append(qs, b.SummarySQL)
	}
	return qs
}

// Run status values. StatusFailed marks a pipeline error (invalid plan,
// rejected SQL, execution failure); insufficient_data is a complete,
// non-error outcome.
const (
	StatusOK               = "ok"
	StatusInsufficientData = "insufficient_data"
	StatusFailed           = "failed"
)

// Row is one result row keyed by column name. Time-series rows carry at
// least year, iso_code, country, and value.
type Row map[string]interface{}

// ResultSet holds the raw output of one executed query.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// RunResult is the validated outcome of a run: the time-series rows, the
// optional summary rows, and a status classifying the result as usable or
// insufficient for a trend narrative.
type RunResult struct {
	Timeseries ResultSet `json:"timeseries"`
	// Summary is nil when the plan had no summary view.
	Summary *ResultSet `json:"summary,omitempty"`
	Status  string     `json:"status"`
	// Reason explains an insufficient_data status; empty when Status is ok.
	Reason string `json:"reason,omitempty"`
}

// SourceMetadata records the provenance of the loaded dataset so each run
// artifact can name exactly which bytes it was computed from.
type SourceMetadata struct {
	DatasetID  string    `json:"dataset_id"`
	URL        string    `json:"url"`
	AccessedAt time.Time `json:"accessed_at_utc"`
	LocalPath  string    `json:"local_path"`
	SHA256     string    `json:"sha256"`
}

// RunRecord is the per-run artifact handed to the persistence boundary:
// everything needed to reproduce or audit one question end to end.
type RunRecord struct {
	ID         string          `json:"id"`
	Question   string          `json:"question"`
	Plan       *Plan           `json:"plan,omitempty"`
	Bundle     *SQLBundle      `json:"sql_bundle,omitempty"`
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	RowCount   int             `json:"row_count"`
	Result     *RunResult      `json:"result,omitempty"`
	Source     *SourceMetadata `json:"source_metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	DurationMS int64           `json:"duration_ms"`
}
