// Package app wires the application from config and external handles.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spinnn/energy-data-journalist/internal/api"
	"github.com/spinnn/energy-data-journalist/internal/artifact"
	"github.com/spinnn/energy-data-journalist/internal/config"
	"github.com/spinnn/energy-data-journalist/internal/dataset"
	"github.com/spinnn/energy-data-journalist/internal/domain"
	"github.com/spinnn/energy-data-journalist/internal/engine"
	"github.com/spinnn/energy-data-journalist/internal/metrics"
	"github.com/spinnn/energy-data-journalist/internal/plan"
	"github.com/spinnn/energy-data-journalist/internal/planner"
	"github.com/spinnn/energy-data-journalist/internal/run"
	"github.com/spinnn/energy-data-journalist/internal/sqlgen"
)

// Deps holds the external dependencies main() must provide: the DuckDB
// handle, config, and the logger. Everything else is built here.
type Deps struct {
	Cfg    *config.Config
	DuckDB *sql.DB
	Logger *slog.Logger

	// Planner overrides the default heuristic planner when non-nil.
	Planner domain.Planner
}

// App is the fully wired application.
type App struct {
	Registry  *metrics.Registry
	Dataset   *dataset.Service
	Artifacts *artifact.Store
	Runs      *run.Service
	Scheduler *dataset.RefreshScheduler
	Router    http.Handler
}

// New builds the application graph. The dataset itself is not loaded here;
// callers decide when to call Dataset.EnsureLoaded.
func New(_ context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry, err := metrics.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("load metric catalog: %w", err)
	}

	if dir := filepath.Dir(cfg.ArtifactDBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create artifact dir: %w", err)
		}
	}
	artifacts, err := artifact.Open(cfg.ArtifactDBPath)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	ds := dataset.NewService(deps.DuckDB, cfg.OWIDCSVURL, cfg.DataDir, logger.With("component", "dataset"))

	p := deps.Planner
	if p == nil {
		p = planner.NewHeuristic()
	}

	executor := engine.NewDuckDBExecutor(deps.DuckDB, cfg.QueryTimeout)
	runs := run.NewService(
		p,
		plan.NewValidator(registry),
		sqlgen.NewGenerator(registry),
		executor,
		executor,
		artifacts,
		ds,
		logger.With("component", "run"),
		cfg.PlannerTimeout,
	)

	var scheduler *dataset.RefreshScheduler
	if cfg.RefreshCron != "" {
		// Refresh downloads a ~90MB CSV; give it far more room than a query.
		scheduler = dataset.NewRefreshScheduler(ds, logger.With("component", "refresh"), 10*time.Minute)
	}

	handler := api.NewHandler(runs, artifacts, ds, registry, logger.With("component", "api"))
	router := api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	return &App{
		Registry:  registry,
		Dataset:   ds,
		Artifacts: artifacts,
		Runs:      runs,
		Scheduler: scheduler,
		Router:    router,
	}, nil
}

// Close releases resources owned by the app.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	return a.Artifacts.Close()
}
