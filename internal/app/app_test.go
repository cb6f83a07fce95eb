package app_test

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinnn/energy-data-journalist/internal/app"
	"github.com/spinnn/energy-data-journalist/internal/config"
)

func TestNewWiresApplication(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir()
	cfg := &config.Config{
		ListenAddr:         ":0",
		DataDir:            filepath.Join(dir, "owid"),
		ArtifactDBPath:     filepath.Join(dir, "runs.sqlite"),
		QueryTimeout:       time.Second,
		PlannerTimeout:     time.Second,
		RateLimitRPS:       10,
		RateLimitBurst:     20,
		CORSAllowedOrigins: []string{"*"},
	}

	a, err := app.New(context.Background(), app.Deps{
		Cfg:    cfg,
		DuckDB: db,
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.Registry)
	assert.NotNil(t, a.Dataset)
	assert.NotNil(t, a.Artifacts)
	assert.NotNil(t, a.Runs)
	assert.NotNil(t, a.Router)
	assert.Nil(t, a.Scheduler, "scheduler only built when a cron spec is set")
}

func TestNewWithRefreshCron(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:            filepath.Join(dir, "owid"),
		ArtifactDBPath:     filepath.Join(dir, "runs.sqlite"),
		QueryTimeout:       time.Second,
		PlannerTimeout:     time.Second,
		RefreshCron:        "0 3 * * *",
		RateLimitRPS:       10,
		RateLimitBurst:     20,
		CORSAllowedOrigins: []string{"*"},
	}

	a, err := app.New(context.Background(), app.Deps{Cfg: cfg, DuckDB: db, Logger: slog.Default()})
	require.NoError(t, err)
	assert.NotNil(t, a.Scheduler)
	require.NoError(t, a.Close())
}
