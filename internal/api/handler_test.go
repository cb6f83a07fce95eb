package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinnn/energy-data-journalist/internal/domain"
	"github.com/spinnn/energy-data-journalist/internal/metrics"
)

type fakeRunService struct {
	rec           *domain.RunRecord
	err           error
	lastQuestion  string
	lastCandidate json.RawMessage
	candidateUsed bool
}

func (f *fakeRunService) Run(_ context.Context, question string) (*domain.RunRecord, error) {
	f.lastQuestion = question
	return f.rec, f.err
}

func (f *fakeRunService) RunCandidate(_ context.Context, question string, raw json.RawMessage) (*domain.RunRecord, error) {
	f.lastQuestion = question
	f.lastCandidate = raw
	f.candidateUsed = true
	return f.rec, f.err
}

type fakeRunReader struct {
	recs      []*domain.RunRecord
	getErr    error
	lastLimit int
}

func (f *fakeRunReader) Get(_ context.Context, id string) (*domain.RunRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, rec := range f.recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound("run %q not found", id)
}

func (f *fakeRunReader) List(_ context.Context, limit int) ([]*domain.RunRecord, error) {
	f.lastLimit = limit
	return f.recs, nil
}

type fakeDataset struct {
	source     *domain.SourceMetadata
	minYear    int
	maxYear    int
	refreshErr error
	refreshed  bool
}

func (f *fakeDataset) Source() *domain.SourceMetadata { return f.source }

func (f *fakeDataset) YearBounds(context.Context) (int, int, error) {
	return f.minYear, f.maxYear, nil
}

func (f *fakeDataset) Refresh(context.Context) error {
	f.refreshed = true
	return f.refreshErr
}

func testRecord(id string) *domain.RunRecord {
	return &domain.RunRecord{
		ID:        id,
		Question:  "How has solar grown in Germany?",
		Status:    domain.StatusOK,
		RowCount:  4,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Result: &domain.RunResult{
			Status: domain.StatusOK,
			Timeseries: domain.ResultSet{
				Columns: []string{"year", "iso_code", "country", "value"},
				Rows: []domain.Row{
					{"year": int64(2010), "iso_code": "DEU", "country": "Germany", "value": 1.2},
				},
			},
		},
	}
}

func newTestHandler(t *testing.T, runs RunService, reader RunReader, ds DatasetService) *Handler {
	t.Helper()
	reg, err := metrics.NewRegistry()
	require.NoError(t, err)
	return NewHandler(runs, reader, ds, reg, slog.New(slog.NewTextHandler(&strings.Builder{}, nil)))
}

func doJSON(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func testRouter(h *Handler) http.Handler {
	return NewRouter(h, RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
	})
}

func TestCreateRun(t *testing.T) {
	svc := &fakeRunService{rec: testRecord("run-1")}
	h := newTestHandler(t, svc, &fakeRunReader{}, &fakeDataset{})
	router := testRouter(h)

	rr := doJSON(t, router, http.MethodPost, "/v1/runs", `{"question":"How has solar grown in Germany?"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var rec domain.RunRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, domain.StatusOK, rec.Status)
	assert.False(t, svc.candidateUsed)
	assert.Equal(t, "How has solar grown in Germany?", svc.lastQuestion)
}

func TestCreateRunWithCandidate(t *testing.T) {
	svc := &fakeRunService{rec: testRecord("run-2")}
	h := newTestHandler(t, svc, &fakeRunReader{}, &fakeDataset{})
	router := testRouter(h)

	body := `{"question":"q for candidate","candidate":{"metric_id":"solar_share_elec"}}`
	rr := doJSON(t, router, http.MethodPost, "/v1/runs", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, svc.candidateUsed)
	assert.JSONEq(t, `{"metric_id":"solar_share_elec"}`, string(svc.lastCandidate))
}

func TestCreateRunBadRequests(t *testing.T) {
	h := newTestHandler(t, &fakeRunService{}, &fakeRunReader{}, &fakeDataset{})
	router := testRouter(h)

	t.Run("invalid json", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/v1/runs", `{"question":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing question", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/v1/runs", `{"question":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCreateRunDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "plan invalid",
			err:        domain.ErrPlanInvalid("unknown_metric_id", "metric %q is not in the catalog", "bogus"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "plan_invalid",
		},
		{
			name:       "timeout",
			err:        &domain.TimeoutError{Stage: "query_execution"},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "timeout",
		},
		{
			name:       "sql rejected",
			err:        &domain.SQLRejectedError{Query: "DROP TABLE x", Rule: "blacklisted_keyword"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "sql_rejected",
		},
		{
			name:       "execution",
			err:        domain.ErrExecution("engine unavailable"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "execution_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			failed := testRecord("run-err")
			failed.Status = domain.StatusFailed
			svc := &fakeRunService{rec: failed, err: tc.err}
			h := newTestHandler(t, svc, &fakeRunReader{}, &fakeDataset{})
			router := testRouter(h)

			rr := doJSON(t, router, http.MethodPost, "/v1/runs", `{"question":"valid question here"}`)
			require.Equal(t, tc.wantStatus, rr.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantCode, resp.Code)
			assert.Equal(t, "run-err", resp.RunID)
		})
	}
}

func TestGetRun(t *testing.T) {
	reader := &fakeRunReader{recs: []*domain.RunRecord{testRecord("run-9")}}
	h := newTestHandler(t, &fakeRunService{}, reader, &fakeDataset{})
	router := testRouter(h)

	t.Run("found", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/v1/runs/run-9", "")
		require.Equal(t, http.StatusOK, rr.Code)
		var rec domain.RunRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
		assert.Equal(t, "run-9", rec.ID)
		require.NotNil(t, rec.Result)
		assert.Len(t, rec.Result.Timeseries.Rows, 1)
	})

	t.Run("missing", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/v1/runs/nope", "")
		require.Equal(t, http.StatusNotFound, rr.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "not_found", resp.Code)
	})
}

func TestListRuns(t *testing.T) {
	reader := &fakeRunReader{recs: []*domain.RunRecord{testRecord("run-b"), testRecord("run-a")}}
	h := newTestHandler(t, &fakeRunService{}, reader, &fakeDataset{})
	router := testRouter(h)

	rr := doJSON(t, router, http.MethodGet, "/v1/runs?limit=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, reader.lastLimit)

	var resp runListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 2)
	assert.Equal(t, "run-b", resp.Runs[0].ID)
	assert.Equal(t, "ok", resp.Runs[0].Status)
	// The list view stays small.
	assert.NotContains(t, rr.Body.String(), "timeseries")
}

func TestListRunsBadLimit(t *testing.T) {
	h := newTestHandler(t, &fakeRunService{}, &fakeRunReader{}, &fakeDataset{})
	router := testRouter(h)

	for _, limit := range []string{"0", "-5", "abc"} {
		rr := doJSON(t, router, http.MethodGet, "/v1/runs?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, "limit=%s", limit)
	}
}

func TestListMetrics(t *testing.T) {
	h := newTestHandler(t, &fakeRunService{}, &fakeRunReader{}, &fakeDataset{})
	router := testRouter(h)

	rr := doJSON(t, router, http.MethodGet, "/v1/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		DatasetID string                    `json:"dataset_id"`
		Metrics   []domain.MetricDefinition `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, domain.DatasetOWIDEnergy, resp.DatasetID)
	assert.NotEmpty(t, resp.Metrics)
}

func TestGetDataset(t *testing.T) {
	t.Run("not loaded", func(t *testing.T) {
		h := newTestHandler(t, &fakeRunService{}, &fakeRunReader{}, &fakeDataset{})
		rr := doJSON(t, testRouter(h), http.MethodGet, "/v1/dataset", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("loaded", func(t *testing.T) {
		ds := &fakeDataset{
			source: &domain.SourceMetadata{
				DatasetID: domain.DatasetOWIDEnergy,
				URL:       "https://example.com/owid-energy-data.csv",
				SHA256:    "abc123",
			},
			minYear: 1900,
			maxYear: 2024,
		}
		h := newTestHandler(t, &fakeRunService{}, &fakeRunReader{}, ds)
		rr := doJSON(t, testRouter(h), http.MethodGet, "/v1/dataset", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp datasetResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 1900, resp.YearStart)
		assert.Equal(t, 2024, resp.YearEnd)
		require.NotNil(t, resp.Source)
		assert.Equal(t, domain.DatasetOWIDEnergy, resp.Source.DatasetID)
	})
}

func TestRefreshDataset(t *testing.T) {
	ds := &fakeDataset{
		source:  &domain.SourceMetadata{DatasetID: domain.DatasetOWIDEnergy},
		minYear: 1900,
		maxYear: 2024,
	}
	h := newTestHandler(t, &fakeRunService{}, &fakeRunReader{}, ds)
	rr := doJSON(t, testRouter(h), http.MethodPost, "/v1/dataset/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, ds.refreshed)
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, &fakeRunService{}, &fakeRunReader{}, &fakeDataset{})
	rr := doJSON(t, testRouter(h), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
