// Package plan validates untrusted plan candidates.
//
// A candidate originates from a language model and must be treated as
// adversarial: fields may be missing, mistyped, out of range, or reference
// unknown metrics. Validation runs a fixed ordered rule list and fails fast
// on the first violation; it never repairs a candidate to make it pass.
package plan

import (
	"encoding/json"
	"time"

	"github.com/spinnn/energy-data-journalist/internal/domain"
	"github.com/spinnn/energy-data-journalist/internal/metrics"
)

const (
	maxCountries   = 3
	maxViews       = 2
	minQuestionLen = 5
	maxQuestionLen = 500
)

// candidate mirrors the raw JSON shape with pointer fields so that absent
// and mistyped fields are distinguishable from zero values.
type candidate struct {
	PlanVersion *string        `json:"plan_version"`
	DatasetID   *string        `json:"dataset_id"`
	Question    *string        `json:"question"`
	MetricID    *string        `json:"metric_id"`
	Countries   *[]string      `json:"countries"`
	YearStart   *int           `json:"year_start"`
	YearEnd     *int           `json:"year_end"`
	Views       *[]domain.View `json:"views"`
	// Notes is accepted for traceability but carried nowhere.
	Notes *string `json:"notes"`
}

// Validator checks plan candidates against the metric registry and the
// structural rules of plan version 1.
type Validator struct {
	registry *metrics.Registry
	now      func() time.Time
}

// NewValidator creates a Validator bound to the given registry.
func NewValidator(reg *metrics.Registry) *Validator {
	return &Validator{registry: reg, now: time.Now}
}

// ValidateCandidate decodes and validates a raw candidate, returning an
// immutable Plan or a PlanInvalidError naming the first violated rule.
func (v *Validator) ValidateCandidate(raw json.RawMessage) (*domain.Plan, error) {
	var c candidate
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, domain.ErrPlanInvalid("malformed_candidate", "cannot decode candidate: %v", err)
	}

	// Required fields. plan_version and views carry defaults in the plan
	// contract and may be omitted; everything else must be present.
	switch {
	case c.DatasetID == nil:
		return nil, domain.ErrPlanInvalid("missing_field", "dataset_id is required")
	case c.Question == nil:
		return nil, domain.ErrPlanInvalid("missing_field", "question is required")
	case c.MetricID == nil:
		return nil, domain.ErrPlanInvalid("missing_field", "metric_id is required")
	case c.Countries == nil:
		return nil, domain.ErrPlanInvalid("missing_field", "countries is required")
	case c.YearStart == nil:
		return nil, domain.ErrPlanInvalid("missing_field", "year_start is required")
	case c.YearEnd == nil:
		return nil, domain.ErrPlanInvalid("missing_field", "year_end is required")
	}

	p := &domain.Plan{
		PlanVersion: domain.PlanVersion1,
		DatasetID:   *c.DatasetID,
		Question:    *c.Question,
		MetricID:    *c.MetricID,
		Countries:   append([]string(nil), (*c.Countries)...),
		YearStart:   *c.YearStart,
		YearEnd:     *c.YearEnd,
		Views:       []domain.View{{ViewID: domain.ViewTimeseries, Type: domain.ChartLine}},
	}
	if c.PlanVersion != nil {
		p.PlanVersion = *c.PlanVersion
	}
	if c.Views != nil {
		p.Views = append([]domain.View(nil), (*c.Views)...)
	}

	return v.ValidatePlan(p)
}

// ValidatePlan runs the ordered rule checks against a structured plan.
// Validating an already-valid Plan returns the same Plan unchanged, which
// keeps re-validation idempotent.
func (v *Validator) ValidatePlan(p *domain.Plan) (*domain.Plan, error) {
	if p.PlanVersion != domain.PlanVersion1 {
		return nil, domain.ErrPlanInvalid("unsupported_plan_version", "plan_version must be %q, got %q", domain.PlanVersion1, p.PlanVersion)
	}

	if p.DatasetID != v.registry.DatasetID() {
		return nil, domain.ErrPlanInvalid("unknown_dataset_id", "dataset_id must be %q, got %q", v.registry.DatasetID(), p.DatasetID)
	}

	if n := len(p.Question); n < minQuestionLen || n > maxQuestionLen {
		return nil, domain.ErrPlanInvalid("question_length", "question must be %d..%d characters, got %d", minQuestionLen, maxQuestionLen, n)
	}

	if _, ok := v.registry.Lookup(p.MetricID); !ok {
		return nil, domain.ErrPlanInvalid("unknown_metric_id", "unknown metric_id %q; supported: %v", p.MetricID, v.registry.MetricIDs())
	}

	if err := v.checkCountries(p.Countries); err != nil {
		return nil, err
	}

	if p.YearStart > p.YearEnd {
		return nil, domain.ErrPlanInvalid("year_order", "year_start (%d) must be <= year_end (%d)", p.YearStart, p.YearEnd)
	}
	if currentYear := v.now().Year(); p.YearEnd > currentYear {
		return nil, domain.ErrPlanInvalid("year_in_future", "year_end (%d) is beyond the current year (%d)", p.YearEnd, currentYear)
	}

	if err := checkViews(p.Views); err != nil {
		return nil, err
	}

	return p, nil
}

func (v *Validator) checkCountries(countries []string) error {
	if len(countries) == 0 {
		return domain.ErrPlanInvalid("countries_empty", "countries must contain at least one ISO-3 code")
	}
	if len(countries) > maxCountries {
		return domain.ErrPlanInvalid("too_many_countries", "at most %d countries are supported, got %d", maxCountries, len(countries))
	}
	seen := make(map[string]bool, len(countries))
	for _, c := range countries {
		if !isISO3(c) {
			return domain.ErrPlanInvalid("invalid_country_code", "invalid country code %q: expected exactly 3 uppercase letters like AUS or DEU", c)
		}
		if seen[c] {
			return domain.ErrPlanInvalid("duplicate_country", "duplicate country code %q", c)
		}
		seen[c] = true
	}
	return nil
}

// isISO3 reports whether s is exactly three uppercase ASCII letters.
func isISO3(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func checkViews(views []domain.View) error {
	if len(views) == 0 {
		return domain.ErrPlanInvalid("views_empty", "views must contain at least the timeseries line view")
	}
	if len(views) > maxViews {
		return domain.ErrPlanInvalid("too_many_views", "at most %d views are supported, got %d", maxViews, len(views))
	}

	first := views[0]
	if first.ViewID != domain.ViewTimeseries || first.Type != domain.ChartLine {
		return domain.ErrPlanInvalid("invalid_first_view", "views[0] must be the timeseries line view, got %s/%s", first.ViewID, first.Type)
	}

	if len(views) == 2 {
		second := views[1]
		if second.ViewID != domain.ViewSummary || second.Type != domain.ChartBar {
			return domain.ErrPlanInvalid("invalid_second_view", "views[1] must be the summary bar view, got %s/%s", second.ViewID, second.Type)
		}
	}
	return nil
}
