// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists per-job citation databases in SQLite so the
// orchestration layer can reload a job's citations between sessions.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citation-tracker/internal/citation"
	"github.com/pdiddy/citation-tracker/pkg/types"
)

const dbFile = "citations.db"

// Store manages the citation archive SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive database at dir/citations.db,
// creating the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "archive"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			job_id TEXT PRIMARY KEY,
			style TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			job_id TEXT NOT NULL REFERENCES jobs(job_id),
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (job_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_citations_job ON citations(job_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveJob writes a citation store to the archive, replacing any previous
// snapshot of the same job in one transaction.
func (s *Store) SaveJob(ctx context.Context, store *citation.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO jobs (job_id, style, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET style=excluded.style, updated_at=excluded.updated_at`,
		store.JobID, store.Style, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting job %s: %w", store.JobID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM citations WHERE job_id = ?`, store.JobID); err != nil {
		return fmt.Errorf("clearing old citations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (job_id, id, position, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range store.All() {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encoding citation %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, store.JobID, c.ID, i, string(data)); err != nil {
			return fmt.Errorf("inserting citation %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// LoadJob rebuilds a citation store from the archive. Returns
// (nil, nil) when the job is not archived.
func (s *Store) LoadJob(ctx context.Context, jobID string) (*citation.Store, error) {
	var style string
	err := s.db.QueryRowContext(ctx,
		`SELECT style FROM jobs WHERE job_id = ?`, jobID,
	).Scan(&style)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", jobID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM citations WHERE job_id = ? ORDER BY position`, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading citations for %s: %w", jobID, err)
	}
	defer rows.Close()

	store := citation.NewStore(jobID, style)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning citation row: %w", err)
		}
		var c citation.Citation
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("decoding citation: %w", err)
		}
		store.Add(&c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating citations: %w", err)
	}

	return store, nil
}

// JobInfo summarizes one archived job.
type JobInfo struct {
	JobID     string
	Style     string
	UpdatedAt string
	Citations int
}

// ListJobs returns all archived jobs, most recently updated first.
func (s *Store) ListJobs(ctx context.Context) ([]JobInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT j.job_id, j.style, j.updated_at, COUNT(c.id)
		 FROM jobs j LEFT JOIN citations c ON c.job_id = j.job_id
		 GROUP BY j.job_id ORDER BY j.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobInfo
	for rows.Next() {
		var info JobInfo
		if err := rows.Scan(&info.JobID, &info.Style, &info.UpdatedAt, &info.Citations); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		jobs = append(jobs, info)
	}
	return jobs, rows.Err()
}
