// Package metrics provides the curated metric registry: a frozen,
// process-lifetime lookup table mapping metric identifiers to columns of
// the energy_raw table, plus the metadata narratives and UI need.
//
// This is intentionally not a general OWID catalog. The registry is built
// once at startup from an embedded catalog and never mutated; components
// that need it receive it by reference.
package metrics

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	DatasetID string                     `yaml:"dataset_id"`
	Metrics   []domain.MetricDefinition  `yaml:"metrics"`
}

// Registry is a read-only metric catalog for one dataset.
type Registry struct {
	datasetID string
	byID      map[string]domain.MetricDefinition
}

// NewRegistry builds the default registry from the embedded catalog.
func NewRegistry() (*Registry, error) {
	return parseCatalog(catalogYAML)
}

func parseCatalog(raw []byte) (*Registry, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("parse metric catalog: %w", err)
	}
	if cf.DatasetID == "" {
		return nil, fmt.Errorf("metric catalog: dataset_id is required")
	}
	if len(cf.Metrics) == 0 {
		return nil, fmt.Errorf("metric catalog: no metrics defined")
	}

	byID := make(map[string]domain.MetricDefinition, len(cf.Metrics))
	for _, m := range cf.Metrics {
		if m.MetricID == "" || m.Column == "" {
			return nil, fmt.Errorf("metric catalog: metric_id and column are required (got %+v)", m)
		}
		if _, dup := byID[m.MetricID]; dup {
			return nil, fmt.Errorf("metric catalog: duplicate metric_id %q", m.MetricID)
		}
		byID[m.MetricID] = m
	}

	return &Registry{datasetID: cf.DatasetID, byID: byID}, nil
}

// DatasetID returns the dataset this registry describes.
func (r *Registry) DatasetID() string { return r.datasetID }

// Lookup resolves a metric_id. The boolean follows map-lookup convention;
// a miss is a plan-validation failure, never an executor-level error.
func (r *Registry) Lookup(metricID string) (domain.MetricDefinition, bool) {
	m, ok := r.byID[metricID]
	return m, ok
}

// MetricIDs returns all known metric identifiers, sorted.
func (r *Registry) MetricIDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Definitions returns all metric definitions sorted by metric_id.
func (r *Registry) Definitions() []domain.MetricDefinition {
	defs := make([]domain.MetricDefinition, 0, len(r.byID))
	for _, id := range r.MetricIDs() {
		defs = append(defs, r.byID[id])
	}
	return defs
}
