package artifact

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) //nolint:errcheck
	return store
}

func sampleRecord() *domain.RunRecord {
	return &domain.RunRecord{
		ID:       uuid.NewString(),
		Question: "How has the renewables share evolved in Australia?",
		Plan: &domain.Plan{
			PlanVersion: domain.PlanVersion1,
			DatasetID:   domain.DatasetOWIDEnergy,
			Question:    "How has the renewables share evolved in Australia?",
			MetricID:    "renewables_share_energy",
			Countries:   []string{"AUS"},
			YearStart:   2005,
			YearEnd:     2023,
			Views:       []domain.View{{ViewID: domain.ViewTimeseries, Type: domain.ChartLine}},
		},
		Bundle: &domain.SQLBundle{
			TimeseriesSQL: "SELECT year, iso_code, country, renewables_share_energy AS value FROM energy_raw ORDER BY year, iso_code",
		},
		Status:   domain.StatusOK,
		RowCount: 19,
		Source: &domain.SourceMetadata{
			DatasetID:  domain.DatasetOWIDEnergy,
			URL:        "https://example.org/owid-energy-data.csv",
			AccessedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			LocalPath:  "/data/owid/owid-energy-data.csv",
			SHA256:     "deadbeef",
		},
		CreatedAt:  time.Now().UTC(),
		DurationMS: 42,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Question, got.Question)
	assert.Equal(t, domain.StatusOK, got.Status)
	assert.Equal(t, 19, got.RowCount)
	require.NotNil(t, got.Plan)
	assert.Equal(t, rec.Plan.MetricID, got.Plan.MetricID)
	assert.Equal(t, rec.Plan.Countries, got.Plan.Countries)
	require.NotNil(t, got.Bundle)
	assert.Equal(t, rec.Bundle.TimeseriesSQL, got.Bundle.TimeseriesSQL)
	require.NotNil(t, got.Source)
	assert.Equal(t, "deadbeef", got.Source.SHA256)
}

func TestSaveFailedRunWithoutPlan(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := &domain.RunRecord{
		ID:        uuid.NewString(),
		Question:  "garbage question",
		Status:    domain.StatusFailed,
		Error:     `plan invalid (unknown_metric_id): unknown metric_id "unknown_metric"`,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Plan)
	assert.Nil(t, got.Bundle)
	assert.Nil(t, got.Source)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Contains(t, got.Error, "unknown_metric_id")
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "no-such-run")
	var notFound *domain.NotFoundError
	require.True(t, errors.As(err, &notFound), "expected NotFoundError, got %v", err)
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	var ids []string
	for i := 0; i < 3; i++ {
		rec := sampleRecord()
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		ids = append(ids, rec.ID)
		require.NoError(t, store.Save(ctx, rec))
	}

	recs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, ids[2], recs[0].ID)
	assert.Equal(t, ids[1], recs[1].ID)
}
