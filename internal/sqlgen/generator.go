// Package sqlgen deterministically compiles a validated Plan into the SQL
// bundle for one run.
//
// Only four positions in the templates are substituted: the metric column
// (resolved through the registry and confirmed against the live schema),
// the country list (rendered from already-validated ISO-3 codes), and the
// two year bounds. No free-form text from the plan reaches the SQL.
package sqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spinnn/energy-data-journalist/internal/domain"
	"github.com/spinnn/energy-data-journalist/internal/metrics"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Generator renders SQL bundles for validated plans.
type Generator struct {
	registry *metrics.Registry
	table    string
}

// NewGenerator creates a Generator bound to the given registry, targeting
// the energy_raw table.
func NewGenerator(reg *metrics.Registry) *Generator {
	return &Generator{registry: reg, table: domain.TableEnergyRaw}
}

// Generate compiles the plan into a SQLBundle using the live table schema.
// A registry column absent from the schema is a SchemaMismatchError: the
// registry can drift from the actual dataset, and that is a generator-level
// fault distinct from plan invalidity.
func (g *Generator) Generate(p *domain.Plan, schema map[string]string) (*domain.SQLBundle, error) {
	m, ok := g.registry.Lookup(p.MetricID)
	if !ok {
		// The plan validator guarantees membership; reaching this means the
		// plan bypassed validation.
		return nil, fmt.Errorf("metric %q not present in registry; plan was not validated", p.MetricID)
	}
	if !identRe.MatchString(m.Column) {
		return nil, fmt.Errorf("registry column %q is not a bare identifier", m.Column)
	}
	if _, ok := schema[m.Column]; !ok {
		return nil, &domain.SchemaMismatchError{Column: m.Column}
	}

	bundle := &domain.SQLBundle{
		TimeseriesSQL: g.timeseriesSQL(p, m.Column),
	}

	if sv, ok := p.SummaryView(); ok {
		summary, err := g.summarySQL(p, m.Column, sv.Mode)
		if err != nil {
			return nil, err
		}
		bundle.SummarySQL = summary
	}

	return bundle, nil
}

// timeseriesSQL renders the required first query. The ORDER BY is part of
// the output contract: downstream chart and delta computations assume rows
// sorted by (year, iso_code).
func (g *Generator) timeseriesSQL(p *domain.Plan, column string) string {
	return fmt.Sprintf(
		"SELECT year, iso_code, country, %s AS value FROM %s WHERE iso_code IN (%s) AND year BETWEEN %d AND %d AND %s IS NOT NULL ORDER BY year, iso_code",
		column, g.table, countryList(p.Countries), p.YearStart, p.YearEnd, column,
	)
}

// summarySQL renders the optional second query in exactly one mode.
func (g *Generator) summarySQL(p *domain.Plan, column, mode string) (string, error) {
	where := fmt.Sprintf(
		"iso_code IN (%s) AND year BETWEEN %d AND %d AND %s IS NOT NULL",
		countryList(p.Countries), p.YearStart, p.YearEnd, column,
	)

	switch mode {
	case domain.ModeLatestYear:
		return fmt.Sprintf(
			"SELECT iso_code, arg_max(country, year) AS country, max(year) AS year, arg_max(%s, year) AS value FROM %s WHERE %s GROUP BY iso_code ORDER BY iso_code",
			column, g.table, where,
		), nil
	case domain.ModeGrowth:
		// When a country has no row at an endpoint year, the delta spans the
		// first and last available years inside the range. Both endpoint
		// years are reported so narratives can qualify the claim.
		return fmt.Sprintf(
			"SELECT iso_code, arg_max(country, year) AS country, min(year) AS first_year, max(year) AS last_year, arg_min(%s, year) AS first_value, arg_max(%s, year) AS last_value, arg_max(%s, year) - arg_min(%s, year) AS value FROM %s WHERE %s GROUP BY iso_code ORDER BY iso_code",
			column, column, column, column, g.table, where,
		), nil
	default:
		return "", &domain.UnsupportedSummaryModeError{Mode: mode}
	}
}

// countryList renders validated ISO-3 codes as a literal IN list. The codes
// are guaranteed by the plan validator to be exactly three uppercase ASCII
// letters, so quoting cannot be escaped.
func countryList(codes []string) string {
	quoted := make([]string, len(codes))
	for i, c := range codes {
		quoted[i] = "'" + c + "'"
	}
	return strings.Join(quoted, ", ")
}
