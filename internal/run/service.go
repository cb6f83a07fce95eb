// Package run orchestrates one question end to end: plan candidate →
// validated plan → SQL bundle → safety gate → execution → result
// classification → persisted artifact.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spinnn/energy-data-journalist/internal/domain"
	"github.com/spinnn/energy-data-journalist/internal/plan"
	"github.com/spinnn/energy-data-journalist/internal/result"
	"github.com/spinnn/energy-data-journalist/internal/sqlgen"
	"github.com/spinnn/energy-data-journalist/internal/sqlguard"
)

// Service executes runs. Each run is a single linear pipeline; stages are
// strictly ordered and nothing is retried inside this core — bounded retry
// policies (e.g. re-asking the planner) belong to callers.
type Service struct {
	planner        domain.Planner
	validator      *plan.Validator
	generator      *sqlgen.Generator
	inspector      domain.SchemaInspector
	executor       domain.QueryExecutor
	artifacts      domain.RunArtifactRepository
	source         domain.SourceProvider
	logger         *slog.Logger
	plannerTimeout time.Duration
}

// NewService wires a run service from its collaborators.
func NewService(
	p domain.Planner,
	v *plan.Validator,
	g *sqlgen.Generator,
	inspector domain.SchemaInspector,
	executor domain.QueryExecutor,
	artifacts domain.RunArtifactRepository,
	source domain.SourceProvider,
	logger *slog.Logger,
	plannerTimeout time.Duration,
) *Service {
	return &Service{
		planner:        p,
		validator:      v,
		generator:      g,
		inspector:      inspector,
		executor:       executor,
		artifacts:      artifacts,
		source:         source,
		logger:         logger,
		plannerTimeout: plannerTimeout,
	}
}

// Run asks the planner for a candidate and executes the pipeline on it.
func (s *Service) Run(ctx context.Context, question string) (*domain.RunRecord, error) {
	raw, err := s.propose(ctx, question)
	if err != nil {
		rec := s.newRecord(question)
		return s.finish(ctx, rec, time.Now(), err)
	}
	return s.RunCandidate(ctx, question, raw)
}

// RunCandidate executes the pipeline on an externally supplied candidate,
// e.g. one produced by a remote language model or replayed from a previous
// artifact. The candidate is untrusted either way.
func (s *Service) RunCandidate(ctx context.Context, question string, raw json.RawMessage) (*domain.RunRecord, error) {
	started := time.Now()
	rec := s.newRecord(question)

	// 1. Validate the candidate into an immutable plan.
	p, err := s.validator.ValidateCandidate(raw)
	if err != nil {
		return s.finish(ctx, rec, started, err)
	}
	rec.Plan = p

	// 2. Inspect the live schema for column drift.
	schema, err := s.inspector.InspectSchema(ctx)
	if err != nil {
		return s.finish(ctx, rec, started, err)
	}

	// 3. Generate the SQL bundle.
	bundle, err := s.generator.Generate(p, schema)
	if err != nil {
		return s.finish(ctx, rec, started, err)
	}
	rec.Bundle = bundle

	// 4. Safety gate. Independent of the generator: it runs on every
	// bundle, including ones we just built ourselves.
	if err := sqlguard.ValidateBundle(bundle); err != nil {
		return s.finish(ctx, rec, started, err)
	}

	// 5. Execute.
	timeseries, summary, err := s.executor.ExecuteBundle(ctx, bundle)
	if err != nil {
		return s.finish(ctx, rec, started, err)
	}

	// 6. Classify the result. insufficient_data is a complete outcome,
	// not an error.
	res := result.Validate(timeseries, summary, p.Countries)
	rec.Result = res
	rec.Status = res.Status
	rec.RowCount = len(res.Timeseries.Rows)

	return s.finish(ctx, rec, started, nil)
}

func (s *Service) propose(ctx context.Context, question string) (json.RawMessage, error) {
	if s.plannerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.plannerTimeout)
		defer cancel()
	}
	raw, err := s.planner.Propose(ctx, question)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &domain.TimeoutError{Stage: "planner"}
		}
		return nil, domain.ErrExecution("planner: %v", err)
	}
	return raw, nil
}

func (s *Service) newRecord(question string) *domain.RunRecord {
	rec := &domain.RunRecord{
		ID:        uuid.NewString(),
		Question:  question,
		CreatedAt: time.Now().UTC(),
	}
	if s.source != nil {
		rec.Source = s.source.Source()
	}
	return rec
}

// finish stamps the record, persists it, and returns it together with the
// pipeline error (nil for ok and insufficient_data outcomes). Persistence
// is best-effort: an artifact write failure is logged, never escalated into
// a run failure.
func (s *Service) finish(ctx context.Context, rec *domain.RunRecord, started time.Time, runErr error) (*domain.RunRecord, error) {
	rec.DurationMS = time.Since(started).Milliseconds()
	if runErr != nil {
		rec.Status = domain.StatusFailed
		rec.Error = runErr.Error()
	}

	if s.artifacts != nil {
		if err := s.artifacts.Save(ctx, rec); err != nil {
			s.logger.Error("persist run artifact", "run_id", rec.ID, "error", err)
		}
	}

	if runErr != nil {
		s.logger.Warn("run failed",
			"run_id", rec.ID,
			"status", rec.Status,
			"error", runErr)
		return rec, runErr
	}

	s.logger.Info("run complete",
		"run_id", rec.ID,
		"status", rec.Status,
		"rows", rec.RowCount,
		"duration_ms", rec.DurationMS)
	return rec, nil
}
