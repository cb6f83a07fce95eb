// Package artifact persists per-run records in a SQLite database so every
// question leaves a reproducible audit trail: the plan, the exact SQL, the
// outcome, and the dataset provenance it was computed from.
package artifact

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Compile-time check.
var _ domain.RunArtifactRepository = (*Store)(nil)

// Store is a SQLite-backed run artifact repository.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the artifact database at path, runs migrations,
// and returns a ready Store.
func Open(path string) (*Store, error) {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")

	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open artifact db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping artifact db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Save inserts one run record.
func (s *Store) Save(ctx context.Context, rec *domain.RunRecord) error {
	planJSON, err := marshalNullable(rec.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	sourceJSON, err := marshalNullable(rec.Source)
	if err != nil {
		return fmt.Errorf("marshal source metadata: %w", err)
	}

	var tsSQL, sumSQL, reason string
	if rec.Bundle != nil {
		tsSQL = rec.Bundle.TimeseriesSQL
		sumSQL = rec.Bundle.SummarySQL
	}
	if rec.Result != nil {
		reason = rec.Result.Reason
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, question, status, error, plan_json,
		                  timeseries_sql, summary_sql, row_count, result_reason,
		                  source_json, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC(), rec.Question, rec.Status, rec.Error, planJSON,
		tsSQL, sumSQL, rec.RowCount, reason, sourceJSON, rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the run record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, question, status, error, plan_json,
		       timeseries_sql, summary_sql, row_count, result_reason,
		       source_json, duration_ms
		FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// List returns the most recent run records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, question, status, error, plan_json,
		       timeseries_sql, summary_sql, row_count, result_reason,
		       source_json, duration_ms
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var recs []*domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.RunRecord, error) {
	var (
		rec        domain.RunRecord
		planJSON   sql.NullString
		sourceJSON sql.NullString
		tsSQL      string
		sumSQL     string
		reason     string
	)
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.Question, &rec.Status, &rec.Error,
		&planJSON, &tsSQL, &sumSQL, &rec.RowCount, &reason, &sourceJSON, &rec.DurationMS)
	if err != nil {
		return nil, err
	}

	if planJSON.Valid && planJSON.String != "" {
		rec.Plan = &domain.Plan{}
		if err := json.Unmarshal([]byte(planJSON.String), rec.Plan); err != nil {
			return nil, fmt.Errorf("unmarshal plan: %w", err)
		}
	}
	if sourceJSON.Valid && sourceJSON.String != "" {
		rec.Source = &domain.SourceMetadata{}
		if err := json.Unmarshal([]byte(sourceJSON.String), rec.Source); err != nil {
			return nil, fmt.Errorf("unmarshal source metadata: %w", err)
		}
	}
	if tsSQL != "" {
		rec.Bundle = &domain.SQLBundle{TimeseriesSQL: tsSQL, SummarySQL: sumSQL}
	}
	if reason != "" {
		rec.Result = &domain.RunResult{Status: rec.Status, Reason: reason}
	}
	return &rec, nil
}

// marshalNullable marshals v to JSON, mapping a nil pointer to SQL NULL.
func marshalNullable(v interface{}) (sql.NullString, error) {
	switch x := v.(type) {
	case *domain.Plan:
		if x == nil {
			return sql.NullString{}, nil
		}
	case *domain.SourceMetadata:
		if x == nil {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
