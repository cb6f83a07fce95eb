// Package dataset manages the OWID energy dataset: download with an
// on-disk cache, SHA-256 provenance fingerprinting, and loading into the
// energy_raw DuckDB table the pipeline queries.
package dataset

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

// DefaultURL is the canonical OWID energy CSV location. Override via
// configuration if OWID moves the file.
const DefaultURL = "https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-data.csv"

const cacheFileName = "owid-energy-data.csv"

// requiredColumns must exist in the loaded table for the pipeline to work.
var requiredColumns = []string{"year", "country", "iso_code"}

// Compile-time check.
var _ domain.SourceProvider = (*Service)(nil)

// Service downloads, caches, and loads the dataset. Reloads are serialized:
// concurrent refreshes would race on the cached file and the table swap.
type Service struct {
	db       *sql.DB
	client   *http.Client
	url      string
	cacheDir string
	logger   *slog.Logger

	mu     sync.Mutex
	source *domain.SourceMetadata
}

// NewService creates a dataset service writing its cache under cacheDir and
// loading into the given DuckDB connection.
func NewService(db *sql.DB, url, cacheDir string, logger *slog.Logger) *Service {
	if url == "" {
		url = DefaultURL
	}
	return &Service{
		db:       db,
		client:   &http.Client{Timeout: 120 * time.Second},
		url:      url,
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// EnsureLoaded makes the energy_raw table available: reuse the cached CSV
// when present (unless force), otherwise download, then (re)load the table
// and validate required columns.
func (s *Service) EnsureLoaded(ctx context.Context, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	csvPath, err := s.fetchCSV(ctx, force)
	if err != nil {
		return err
	}

	sha, err := sha256File(csvPath)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", csvPath, err)
	}

	if err := s.loadTable(ctx, csvPath, force); err != nil {
		return err
	}
	if err := s.validateRequiredColumns(ctx); err != nil {
		return err
	}

	s.source = &domain.SourceMetadata{
		DatasetID:  domain.DatasetOWIDEnergy,
		URL:        s.url,
		AccessedAt: time.Now().UTC(),
		LocalPath:  csvPath,
		SHA256:     sha,
	}
	s.logger.Info("dataset loaded",
		"table", domain.TableEnergyRaw,
		"path", csvPath,
		"sha256", sha[:12])
	return nil
}

// Refresh forces a fresh download and table reload.
func (s *Service) Refresh(ctx context.Context) error {
	return s.EnsureLoaded(ctx, true)
}

// Source returns provenance of the currently loaded dataset, or nil before
// the first successful load.
func (s *Service) Source() *domain.SourceMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return nil
	}
	cp := *s.source
	return &cp
}

// YearBounds returns the min and max year present in the loaded table.
func (s *Service) YearBounds(ctx context.Context) (minYear, maxYear int, err error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT min(year), max(year) FROM %s", domain.TableEnergyRaw))
	var lo, hi sql.NullInt64
	if err := row.Scan(&lo, &hi); err != nil {
		return 0, 0, fmt.Errorf("query year bounds: %w", err)
	}
	return int(lo.Int64), int(hi.Int64), nil
}

func (s *Service) fetchCSV(ctx context.Context, force bool) (string, error) {
	csvPath := filepath.Join(s.cacheDir, cacheFileName)
	if !force {
		if _, err := os.Stat(csvPath); err == nil {
			return csvPath, nil
		}
	}

	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	s.logger.Info("downloading dataset", "url", s.url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download dataset: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download dataset: unexpected status %s", resp.Status)
	}

	// Write to a temp file first so a partial download never replaces a
	// good cached copy.
	tmp, err := os.CreateTemp(s.cacheDir, cacheFileName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), csvPath); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", fmt.Errorf("move dataset into cache: %w", err)
	}
	return csvPath, nil
}

// loadTable creates energy_raw from the CSV. With force it replaces any
// existing table; otherwise an existing table is left untouched.
func (s *Service) loadTable(ctx context.Context, csvPath string, force bool) error {
	if !force {
		var count int
		err := s.db.QueryRowContext(ctx,
			"SELECT count(*) FROM information_schema.tables WHERE table_name = ?",
			domain.TableEnergyRaw).Scan(&count)
		if err != nil {
			return fmt.Errorf("check table existence: %w", err)
		}
		if count > 0 {
			return nil
		}
	}

	// sample_size=-1 scans the whole file for type inference; slower but
	// avoids mistyped columns from a sparse sample.
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(?, sample_size=-1)",
		domain.TableEnergyRaw), csvPath)
	if err != nil {
		return fmt.Errorf("load %s from csv: %w", domain.TableEnergyRaw, err)
	}
	return nil
}

func (s *Service) validateRequiredColumns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_name = ?",
		domain.TableEnergyRaw)
	if err != nil {
		return fmt.Errorf("inspect columns: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan column name: %w", err)
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, c := range requiredColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing required columns %v", domain.TableEnergyRaw, missing)
	}
	return nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is service-controlled
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
