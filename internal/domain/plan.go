package domain

// Plan versions and the single dataset supported by this pipeline.
const (
	PlanVersion1      = "1"
	DatasetOWIDEnergy = "owid_energy"

	// TableEnergyRaw is the single analysis table this pipeline queries.
	TableEnergyRaw = "energy_raw"
)

// View identifiers and chart types.
const (
	ViewTimeseries = "timeseries"
	ViewSummary    = "summary"

	ChartLine = "line"
	ChartBar  = "bar"
)

// Summary modes. LatestYear reports the most recent in-range value per
// country; Growth reports the delta between the first and last available
// in-range values per country.
const (
	ModeLatestYear = "latest_year"
	ModeGrowth     = "growth"
)

// View describes one requested presentation of the result.
// Mode is set only when ViewID == ViewSummary.
type View struct {
	ViewID string `json:"view_id"`
	Type   string `json:"type"`
	Mode   string `json:"mode,omitempty"`
}

// Plan is a validated, immutable description of one analysis: which metric,
// which countries, which year window, and which views to render. A Plan is
// only ever produced by the plan validator; nothing repairs or mutates a
// candidate to make it pass.
type Plan struct {
	PlanVersion string   `json:"plan_version"`
	DatasetID   string   `json:"dataset_id"`
	Question    string   `json:"question"`
	MetricID    string   `json:"metric_id"`
	Countries   []string `json:"countries"`
	YearStart   int      `json:"year_start"`
	YearEnd     int      `json:"year_end"`
	Views       []View   `json:"views"`
}

// SummaryView returns the summary view and true when the plan requests one.
func (p *Plan) SummaryView() (View, bool) {
	for _, v := range p.Views {
		if v.ViewID == ViewSummary {
			return v, true
		}
	}
	return View{}, false
}
