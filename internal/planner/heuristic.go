// Package planner holds implementations of the language-model boundary.
//
// Heuristic is a deterministic, offline stand-in: it maps keywords in the
// question to a plan candidate the same way an LLM adapter would, which
// keeps the CLI, server, and tests working without network access. Its
// output goes through the plan validator like any other candidate — the
// pipeline extends it no trust.
package planner

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

// Compile-time check.
var _ domain.Planner = (*Heuristic)(nil)

// countryNames maps lowercase country names and ISO-3 codes to ISO-3.
var countryNames = map[string]string{
	"australia":      "AUS",
	"germany":        "DEU",
	"france":         "FRA",
	"japan":          "JPN",
	"china":          "CHN",
	"india":          "IND",
	"brazil":         "BRA",
	"norway":         "NOR",
	"sweden":         "SWE",
	"spain":          "ESP",
	"italy":          "ITA",
	"poland":         "POL",
	"united states":  "USA",
	"usa":            "USA",
	"america":        "USA",
	"united kingdom": "GBR",
	"uk":             "GBR",
	"britain":        "GBR",
}

// metricKeywords maps question keywords to metric identifiers, checked in
// order so more specific phrases win.
var metricKeywords = []struct {
	keyword  string
	metricID string
}{
	{"solar", "solar_share_elec"},
	{"wind", "wind_share_elec"},
	{"hydro", "hydro_share_elec"},
	{"nuclear", "nuclear_share_energy"},
	{"coal", "coal_share_energy"},
	{"oil", "oil_share_energy"},
	{"gas", "gas_share_energy"},
	{"fossil", "fossil_share_energy"},
	{"renewable", "renewables_share_energy"},
	{"per capita", "energy_per_capita"},
	{"per person", "energy_per_capita"},
	{"consumption", "primary_energy_consumption"},
}

const defaultMetricID = "primary_energy_consumption"

var yearRe = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

// Heuristic derives plan candidates from question keywords.
type Heuristic struct {
	now func() time.Time
}

// NewHeuristic creates the offline planner.
func NewHeuristic() *Heuristic {
	return &Heuristic{now: time.Now}
}

// Propose builds one candidate for the question. It never fails: questions
// it cannot interpret produce a candidate that plan validation will judge.
func (h *Heuristic) Propose(_ context.Context, question string) (json.RawMessage, error) {
	q := strings.ToLower(question)

	yearStart, yearEnd := h.yearWindow(q)

	candidate := map[string]interface{}{
		"plan_version": domain.PlanVersion1,
		"dataset_id":   domain.DatasetOWIDEnergy,
		"question":     question,
		"metric_id":    metricFor(q),
		"countries":    countriesFor(q),
		"year_start":   yearStart,
		"year_end":     yearEnd,
		"views":        viewsFor(q),
	}
	return json.Marshal(candidate)
}

func metricFor(q string) string {
	for _, mk := range metricKeywords {
		if strings.Contains(q, mk.keyword) {
			return mk.metricID
		}
	}
	return defaultMetricID
}

func countriesFor(q string) []string {
	seen := make(map[string]bool)
	type match struct {
		pos  int
		code string
	}
	var matches []match
	for name, code := range countryNames {
		if idx := strings.Index(q, name); idx >= 0 && !seen[code] {
			seen[code] = true
			matches = append(matches, match{pos: idx, code: code})
		}
	}
	// question order, capped at the plan limit
	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	codes := make([]string, 0, 3)
	for _, m := range matches {
		codes = append(codes, m.code)
		if len(codes) == 3 {
			break
		}
	}
	if len(codes) == 0 {
		codes = append(codes, "USA")
	}
	return codes
}

func (h *Heuristic) yearWindow(q string) (int, int) {
	// OWID publishes annually with a lag, so default the window to end at
	// the last full year.
	currentYear := h.now().Year()
	yearStart, yearEnd := 2000, currentYear-1

	var years []int
	for _, m := range yearRe.FindAllString(q, -1) {
		if y, err := strconv.Atoi(m); err == nil {
			years = append(years, y)
		}
	}
	switch {
	case len(years) == 1:
		if strings.Contains(q, "since") || strings.Contains(q, "from") {
			yearStart = years[0]
		} else {
			yearStart, yearEnd = years[0], years[0]
		}
	case len(years) >= 2:
		sort.Ints(years)
		yearStart, yearEnd = years[0], years[len(years)-1]
	}

	if yearEnd > currentYear {
		yearEnd = currentYear
	}
	return yearStart, yearEnd
}

func viewsFor(q string) []domain.View {
	views := []domain.View{{ViewID: domain.ViewTimeseries, Type: domain.ChartLine}}

	switch {
	case strings.Contains(q, "grow") || strings.Contains(q, "change") ||
		strings.Contains(q, "increase") || strings.Contains(q, "decrease"):
		views = append(views, domain.View{ViewID: domain.ViewSummary, Type: domain.ChartBar, Mode: domain.ModeGrowth})
	case strings.Contains(q, "latest") || strings.Contains(q, "current") || strings.Contains(q, "right now"):
		views = append(views, domain.View{ViewID: domain.ViewSummary, Type: domain.ChartBar, Mode: domain.ModeLatestYear})
	}
	return views
}
