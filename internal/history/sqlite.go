package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/datawizard/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source_path TEXT NOT NULL,
		source_fingerprint TEXT,
		input_kind TEXT NOT NULL,
		output_format TEXT NOT NULL,
		mode TEXT NOT NULL,
		prompt TEXT NOT NULL,
		status TEXT NOT NULL,
		reasons TEXT,
		processing_time_ms INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(source_fingerprint);

	CREATE TABLE IF NOT EXISTS output_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_output_files_run_id ON output_files(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateRun inserts a run. An empty ID is filled with a new UUID and CreatedAt is set.
func (s *SQLiteStore) CreateRun(ctx context.Context, rec *models.HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = models.StatusOK
	}
	reasons, err := json.Marshal(rec.Reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}
	rec.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_path, source_fingerprint, input_kind, output_format, mode, prompt,
		                   status, reasons, processing_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourcePath, rec.SourceFingerprint, string(rec.InputKind), string(rec.Format), string(rec.Mode),
		rec.Prompt, string(rec.Status), string(reasons), rec.ProcessingTimeMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// UpdateStatus sets the final status, reasons, and processing time of a run.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status models.Status, reasons []string, processingTimeMs int64) error {
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, reasons = ?, processing_time_ms = ? WHERE id = ?`,
		string(status), string(reasonsJSON), processingTimeMs, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// AddArtifact records an output file produced by a run.
func (s *SQLiteStore) AddArtifact(ctx context.Context, runID string, a models.Artifact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO output_files (run_id, kind, path, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, string(a.Kind), a.Path, a.Size, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert output file: %w", err)
	}
	return nil
}

const runColumns = `id, source_path, COALESCE(source_fingerprint, ''), input_kind, output_format, mode, prompt,
	status, COALESCE(reasons, ''), processing_time_ms, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.HistoryRecord, error) {
	var rec models.HistoryRecord
	var kind, format, mode, status, reasons string
	if err := row.Scan(&rec.ID, &rec.SourcePath, &rec.SourceFingerprint, &kind, &format, &mode, &rec.Prompt,
		&status, &reasons, &rec.ProcessingTimeMs, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.InputKind = models.Kind(kind)
	rec.Format = models.Format(format)
	rec.Mode = models.Mode(mode)
	rec.Status = models.Status(status)
	if reasons != "" && reasons != "null" {
		if err := json.Unmarshal([]byte(reasons), &rec.Reasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
		}
	}
	return &rec, nil
}

// GetRun returns a run with its output files.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.HistoryRecord, error) {
	rec, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if rec.Artifacts, err = s.artifacts(ctx, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecent returns up to limit runs, newest first, each with its output files.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]*models.HistoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var recs []*models.HistoryRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, rec := range recs {
		if rec.Artifacts, err = s.artifacts(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (s *SQLiteStore) artifacts(ctx context.Context, runID string) ([]models.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, path, size FROM output_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Artifact
	for rows.Next() {
		var a models.Artifact
		var kind string
		if err := rows.Scan(&kind, &a.Path, &a.Size); err != nil {
			return nil, err
		}
		a.Kind = models.ArtifactKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountRuns returns the total number of recorded runs.
func (s *SQLiteStore) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// StatsByKind returns run counts grouped by input kind, most frequent first.
func (s *SQLiteStore) StatsByKind(ctx context.Context) ([]models.KindCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT input_kind, COUNT(*) AS n FROM runs GROUP BY input_kind ORDER BY n DESC, input_kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.KindCount
	for rows.Next() {
		var kc models.KindCount
		var kind string
		if err := rows.Scan(&kind, &kc.Count); err != nil {
			return nil, err
		}
		kc.Kind = models.Kind(kind)
		out = append(out, kc)
	}
	return out, rows.Err()
}

// HasFingerprint reports whether a run of the content fingerprint finished cleanly. Degraded,
// fatal and unfinished runs do not count, so their sources are retried.
func (s *SQLiteStore) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE source_fingerprint = ? AND status = ?`,
		fingerprint, string(models.StatusOK)).Scan(&n)
	return n > 0, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
