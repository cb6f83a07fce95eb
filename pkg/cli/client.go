package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
	RunID      string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

// Client is a thin HTTP client for the journalist API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(host string) *Client {
	return &Client{
		baseURL: host,
		// Runs execute real queries; leave room for a cold dataset load.
		httpc: &http.Client{Timeout: 5 * time.Minute},
	}
}

// RunSummary mirrors the list view returned by GET /v1/runs.
type RunSummary struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Question  string `json:"question"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	RowCount  int    `json:"row_count"`
}

type runListResponse struct {
	Runs []RunSummary `json:"runs"`
}

// MetricsResponse mirrors GET /v1/metrics.
type MetricsResponse struct {
	DatasetID string                    `json:"dataset_id"`
	Metrics   []domain.MetricDefinition `json:"metrics"`
}

// DatasetResponse mirrors GET /v1/dataset.
type DatasetResponse struct {
	Source    *domain.SourceMetadata `json:"source"`
	YearStart int                    `json:"year_start"`
	YearEnd   int                    `json:"year_end"`
}

func (c *Client) CreateRun(ctx context.Context, question string, candidate json.RawMessage) (*domain.RunRecord, error) {
	body := map[string]any{"question": question}
	if len(candidate) > 0 {
		body["candidate"] = candidate
	}
	var rec domain.RunRecord
	if err := c.do(ctx, http.MethodPost, "/v1/runs", body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	path := "/v1/runs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp runListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

func (c *Client) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	var rec domain.RunRecord
	if err := c.do(ctx, http.MethodGet, "/v1/runs/"+id, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Metrics(ctx context.Context) (*MetricsResponse, error) {
	var resp MetricsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/metrics", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Dataset(ctx context.Context) (*DatasetResponse, error) {
	var resp DatasetResponse
	if err := c.do(ctx, http.MethodGet, "/v1/dataset", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RefreshDataset(ctx context.Context) (*DatasetResponse, error) {
	var resp DatasetResponse
	if err := c.do(ctx, http.MethodPost, "/v1/dataset/refresh", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var parsed struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			RunID   string `json:"run_id"`
		}
		if json.Unmarshal(data, &parsed) == nil && parsed.Message != "" {
			apiErr.Code = parsed.Code
			apiErr.Message = parsed.Message
			apiErr.RunID = parsed.RunID
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
