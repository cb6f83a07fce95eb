package domain

// MetricDefinition describes one curated metric exposed to the planner.
//
// MetricID is the stable identifier the planner selects; Column is the
// backing column in energy_raw. Keeping the two separate lets the registry
// remap a metric if upstream column names drift without changing any plan.
type MetricDefinition struct {
	MetricID       string `yaml:"metric_id" json:"metric_id"`
	Column         string `yaml:"column" json:"column"`
	Unit           string `yaml:"unit" json:"unit"`
	Description    string `yaml:"description" json:"description"`
	Category       string `yaml:"category" json:"category"`
	PreferredChart string `yaml:"preferred_chart" json:"preferred_chart"`
}
