package result

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

var tsColumns = []string{"year", "iso_code", "country", "value"}

func tsRow(year int64, iso, country string, value float64) domain.Row {
	return domain.Row{"year": year, "iso_code": iso, "country": country, "value": value}
}

func TestValidateOK(t *testing.T) {
	ts := &domain.ResultSet{
		Columns: tsColumns,
		Rows: []domain.Row{
			tsRow(2005, "AUS", "Australia", 5.1),
			tsRow(2010, "AUS", "Australia", 6.9),
			tsRow(2005, "DEU", "Germany", 6.3),
		},
	}

	res := Validate(ts, nil, []string{"AUS", "DEU"})
	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Empty(t, res.Reason)
	assert.Len(t, res.Timeseries.Rows, 3)
}

func TestValidateCarriesSummary(t *testing.T) {
	ts := &domain.ResultSet{
		Columns: tsColumns,
		Rows: []domain.Row{
			tsRow(2005, "AUS", "Australia", 5.1),
			tsRow(2010, "AUS", "Australia", 6.9),
		},
	}
	summary := &domain.ResultSet{
		Columns: []string{"iso_code", "country", "year", "value"},
		Rows:    []domain.Row{tsRow(2010, "AUS", "Australia", 6.9)},
	}

	res := Validate(ts, summary, []string{"AUS"})
	assert.Equal(t, domain.StatusOK, res.Status)
	require.NotNil(t, res.Summary)
	assert.Len(t, res.Summary.Rows, 1)
}

func TestValidateNoSummaryOmittedFromJSON(t *testing.T) {
	ts := &domain.ResultSet{
		Columns: tsColumns,
		Rows: []domain.Row{
			tsRow(2005, "AUS", "Australia", 5.1),
			tsRow(2010, "AUS", "Australia", 6.9),
		},
	}

	res := Validate(ts, nil, []string{"AUS"})
	assert.Nil(t, res.Summary)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"summary"`)
}

func TestValidateEmptyRows(t *testing.T) {
	ts := &domain.ResultSet{Columns: tsColumns}

	res := Validate(ts, nil, []string{"AUS"})
	assert.Equal(t, domain.StatusInsufficientData, res.Status)
	assert.Contains(t, res.Reason, "0 rows")
}

func TestValidateSinglePointSeries(t *testing.T) {
	// two rows but every country has only one distinct year
	ts := &domain.ResultSet{
		Columns: tsColumns,
		Rows: []domain.Row{
			tsRow(2020, "AUS", "Australia", 9.0),
			tsRow(2020, "DEU", "Germany", 17.0),
		},
	}

	res := Validate(ts, nil, []string{"AUS", "DEU"})
	assert.Equal(t, domain.StatusInsufficientData, res.Status)
	assert.Contains(t, res.Reason, "more than one year")
}

func TestValidateMissingColumns(t *testing.T) {
	ts := &domain.ResultSet{
		Columns: []string{"year", "country", "value"},
		Rows: []domain.Row{
			{"year": int64(2005), "country": "Australia", "value": 5.1},
			{"year": int64(2010), "country": "Australia", "value": 6.9},
		},
	}

	res := Validate(ts, nil, []string{"AUS"})
	assert.Equal(t, domain.StatusInsufficientData, res.Status)
	assert.Contains(t, res.Reason, "iso_code")
}

func TestValidateIgnoresUnrequestedCountries(t *testing.T) {
	// multi-year coverage exists only for a country the plan did not request
	ts := &domain.ResultSet{
		Columns: tsColumns,
		Rows: []domain.Row{
			tsRow(2005, "FRA", "France", 10.0),
			tsRow(2010, "FRA", "France", 12.0),
			tsRow(2020, "AUS", "Australia", 9.0),
		},
	}

	res := Validate(ts, nil, []string{"AUS"})
	assert.Equal(t, domain.StatusInsufficientData, res.Status)
}
