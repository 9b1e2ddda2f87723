// Package benchstore persists benchmark run metrics to PostgreSQL so
// performance curves can be compared across sessions. Only metrics are
// stored, never summary text.
package benchstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/raaihank/hybrid-summarizer/internal/bench"
	"github.com/raaihank/hybrid-summarizer/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS benchmark_runs (
	id              BIGSERIAL PRIMARY KEY,
	mode            TEXT NOT NULL,
	success         BOOLEAN NOT NULL,
	input_words     INTEGER NOT NULL,
	output_words    INTEGER NOT NULL,
	total_ms        DOUBLE PRECISION NOT NULL,
	first_token_ms  DOUBLE PRECISION NOT NULL,
	tokens_per_sec  DOUBLE PRECISION NOT NULL,
	memory_delta    BIGINT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Run is one persisted benchmark row
type Run struct {
	ID           int64     `db:"id" json:"id"`
	Mode         string    `db:"mode" json:"mode"`
	Success      bool      `db:"success" json:"success"`
	InputWords   int       `db:"input_words" json:"input_words"`
	OutputWords  int       `db:"output_words" json:"output_words"`
	TotalMs      float64   `db:"total_ms" json:"total_ms"`
	FirstTokenMs float64   `db:"first_token_ms" json:"first_token_ms"`
	TokensPerSec float64   `db:"tokens_per_sec" json:"tokens_per_sec"`
	MemoryDelta  int64     `db:"memory_delta" json:"memory_delta"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Store handles benchmark run persistence
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New creates a new benchmark store instance
func New(cfg *config.BenchStoreConfig, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &Store{
		db:     db,
		logger: logger,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	logger.Info("Benchmark store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns))

	return store, nil
}

// initialize checks the connection and ensures the runs table exists
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create benchmark_runs table: %w", err)
	}

	return nil
}

// Record inserts one benchmark run
func (s *Store) Record(ctx context.Context, mode string, success bool, snapshot bench.Snapshot) (*Run, error) {
	query := `
		INSERT INTO benchmark_runs
			(mode, success, input_words, output_words, total_ms, first_token_ms, tokens_per_sec, memory_delta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	run := &Run{
		Mode:         mode,
		Success:      success,
		InputWords:   snapshot.InputWordCount,
		OutputWords:  snapshot.OutputWordCount,
		TotalMs:      snapshot.TotalTimeMs,
		FirstTokenMs: snapshot.FirstTokenLatencyMs,
		TokensPerSec: snapshot.TokensPerSecond,
		MemoryDelta:  snapshot.MemoryDeltaBytes,
	}

	err := s.db.QueryRowContext(ctx, query,
		run.Mode,
		run.Success,
		run.InputWords,
		run.OutputWords,
		run.TotalMs,
		run.FirstTokenMs,
		run.TokensPerSec,
		run.MemoryDelta,
	).Scan(&run.ID, &run.CreatedAt)

	if err != nil {
		s.logger.Error("Failed to record benchmark run",
			zap.Error(err),
			zap.String("mode", mode))
		return nil, fmt.Errorf("failed to record benchmark run: %w", err)
	}

	s.logger.Debug("Benchmark run recorded",
		zap.Int64("id", run.ID),
		zap.String("mode", run.Mode))

	return run, nil
}

// Recent returns the most recent runs, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	var runs []Run
	query := `SELECT * FROM benchmark_runs ORDER BY created_at DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list benchmark runs: %w", err)
	}

	return runs, nil
}

// ModeAverages returns per-mode averages for successful runs
func (s *Store) ModeAverages(ctx context.Context) (map[string]Run, error) {
	query := `
		SELECT mode,
		       AVG(total_ms) AS total_ms,
		       AVG(first_token_ms) AS first_token_ms,
		       AVG(tokens_per_sec) AS tokens_per_sec
		FROM benchmark_runs
		WHERE success
		GROUP BY mode`

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate benchmark runs: %w", err)
	}
	defer rows.Close()

	averages := make(map[string]Run)
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.Mode, &run.TotalMs, &run.FirstTokenMs, &run.TokensPerSec); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		averages[run.Mode] = run
	}

	return averages, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// maskDatabaseURL masks credentials in a database URL for logging
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") && strings.Contains(url, "://") {
		parts := strings.SplitN(url, "://", 2)
		if creds := strings.SplitN(parts[1], "@", 2); len(creds) == 2 {
			if userPass := strings.SplitN(creds[0], ":", 2); len(userPass) == 2 {
				return parts[0] + "://" + userPass[0] + ":***@" + creds[1]
			}
		}
	}
	return url
}
