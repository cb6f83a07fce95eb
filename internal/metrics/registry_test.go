package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, domain.DatasetOWIDEnergy, reg.DatasetID())

	m, ok := reg.Lookup("renewables_share_energy")
	require.True(t, ok)
	assert.Equal(t, "renewables_share_energy", m.Column)
	assert.Equal(t, "percent of primary energy", m.Unit)
	assert.Equal(t, domain.ChartLine, m.PreferredChart)

	_, ok = reg.Lookup("unknown_metric")
	assert.False(t, ok)
}

func TestMetricIDsSorted(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	ids := reg.MetricIDs()
	require.NotEmpty(t, ids)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
	assert.Contains(t, ids, "energy_per_capita")
	assert.Len(t, reg.Definitions(), len(ids))
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing dataset", "metrics:\n  - metric_id: a\n    column: a\n"},
		{"no metrics", "dataset_id: owid_energy\nmetrics: []\n"},
		{"missing column", "dataset_id: owid_energy\nmetrics:\n  - metric_id: a\n"},
		{"duplicate id", "dataset_id: owid_energy\nmetrics:\n  - {metric_id: a, column: a}\n  - {metric_id: a, column: b}\n"},
		{"not yaml", "{{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseCatalog([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}
