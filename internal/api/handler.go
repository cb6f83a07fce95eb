// Package api exposes the question pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spinnn/energy-data-journalist/internal/domain"
	"github.com/spinnn/energy-data-journalist/internal/metrics"
	"github.com/spinnn/energy-data-journalist/internal/middleware"
)

const defaultListLimit = 50

// RunService executes the full question pipeline.
type RunService interface {
	Run(ctx context.Context, question string) (*domain.RunRecord, error)
	RunCandidate(ctx context.Context, question string, raw json.RawMessage) (*domain.RunRecord, error)
}

// RunReader reads persisted run records.
type RunReader interface {
	Get(ctx context.Context, id string) (*domain.RunRecord, error)
	List(ctx context.Context, limit int) ([]*domain.RunRecord, error)
}

// DatasetService reports on and refreshes the loaded dataset.
type DatasetService interface {
	Source() *domain.SourceMetadata
	YearBounds(ctx context.Context) (minYear, maxYear int, err error)
	Refresh(ctx context.Context) error
}

// Handler carries the services behind the HTTP surface.
type Handler struct {
	runs     RunService
	reader   RunReader
	dataset  DatasetService
	registry *metrics.Registry
	logger   *slog.Logger
}

func NewHandler(runs RunService, reader RunReader, dataset DatasetService, registry *metrics.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runs: runs, reader: reader, dataset: dataset, registry: registry, logger: logger}
}

type createRunRequest struct {
	Question  string          `json:"question"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

type runListResponse struct {
	Runs []runSummary `json:"runs"`
}

// runSummary is the list view of a run: the record without result rows.
type runSummary struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Question  string `json:"question"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	RowCount  int    `json:"row_count"`
}

type datasetResponse struct {
	Source    *domain.SourceMetadata `json:"source"`
	YearStart int                    `json:"year_start"`
	YearEnd   int                    `json:"year_end"`
}

// CreateRun runs the pipeline for a question. When the body carries a
// candidate it is validated and executed as submitted; otherwise the
// planner proposes one.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body", "")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.writeError(w, r, http.StatusBadRequest, "bad_request", "question is required", "")
		return
	}

	var (
		rec *domain.RunRecord
		err error
	)
	if len(req.Candidate) > 0 {
		rec, err = h.runs.RunCandidate(r.Context(), req.Question, req.Candidate)
	} else {
		rec, err = h.runs.Run(r.Context(), req.Question)
	}
	if err != nil {
		runID := ""
		if rec != nil {
			runID = rec.ID
		}
		h.writeError(w, r, httpStatusFromDomainError(err), errorCodeFromDomainError(err), err.Error(), runID)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

// ListRuns returns recent runs newest first. Result rows are omitted from
// the list view; GET /v1/runs/{id} has the full record.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer", "")
			return
		}
		limit = n
	}

	recs, err := h.reader.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, httpStatusFromDomainError(err), errorCodeFromDomainError(err), err.Error(), "")
		return
	}

	out := runListResponse{Runs: make([]runSummary, 0, len(recs))}
	for _, rec := range recs {
		out.Runs = append(out.Runs, runSummary{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Question:  rec.Question,
			Status:    rec.Status,
			Error:     rec.Error,
			RowCount:  rec.RowCount,
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// GetRun returns a single run record with its full result.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.reader.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, httpStatusFromDomainError(err), errorCodeFromDomainError(err), err.Error(), "")
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// ListMetrics returns the metric catalog.
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"dataset_id": h.registry.DatasetID(),
		"metrics":    h.registry.Definitions(),
	})
}

// GetDataset reports provenance and year coverage of the loaded dataset.
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	src := h.dataset.Source()
	if src == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "dataset_not_loaded", "dataset has not been loaded yet", "")
		return
	}
	minYear, maxYear, err := h.dataset.YearBounds(r.Context())
	if err != nil {
		h.writeError(w, r, httpStatusFromDomainError(err), errorCodeFromDomainError(err), err.Error(), "")
		return
	}
	h.writeJSON(w, http.StatusOK, datasetResponse{Source: src, YearStart: minYear, YearEnd: maxYear})
}

// RefreshDataset re-downloads the source CSV and reloads the table.
func (h *Handler) RefreshDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.dataset.Refresh(r.Context()); err != nil {
		h.writeError(w, r, httpStatusFromDomainError(err), errorCodeFromDomainError(err), err.Error(), "")
		return
	}
	h.GetDataset(w, r)
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message, runID string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", message)
	}
	h.writeJSON(w, status, errorResponse{Code: code, Message: message, RunID: runID})
}
