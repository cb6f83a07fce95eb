package domain

import (
	"context"
	"encoding/json"
)

// Planner is the language-model boundary. It turns a free-text question
// into one raw, untrusted plan candidate. Implementations must not be
// trusted to produce well-formed candidates; everything they return goes
// through the plan validator.
// Implemented by planner.Heuristic (offline) and external LLM adapters.
type Planner interface {
	Propose(ctx context.Context, question string) (json.RawMessage, error)
}

// SchemaInspector reports the live column layout of the analysis table.
// Implemented by engine.DuckDBExecutor.
type SchemaInspector interface {
	InspectSchema(ctx context.Context) (map[string]string, error)
}

// QueryExecutor runs a safety-validated bundle against the read-only
// analytic engine. Implemented by engine.DuckDBExecutor.
type QueryExecutor interface {
	ExecuteBundle(ctx context.Context, bundle *SQLBundle) (timeseries, summary *ResultSet, err error)
}

// RunArtifactRepository persists run records for later inspection.
// Implemented by artifact.Store.
type RunArtifactRepository interface {
	Save(ctx context.Context, rec *RunRecord) error
	Get(ctx context.Context, id string) (*RunRecord, error)
	List(ctx context.Context, limit int) ([]*RunRecord, error)
}

// SourceProvider reports provenance of the currently loaded dataset.
// Implemented by dataset.Service.
type SourceProvider interface {
	Source() *SourceMetadata
}
