package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID          string    `json:"id"`
	ProjectType string    `json:"project_type"`
	Searched    bool      `json:"searched"`
	ResultCount int       `json:"result_count"`
	OutputPath  string    `json:"output_path"`
	Trace       []string  `json:"trace"`
	Fallbacks   []string  `json:"fallbacks,omitempty"`
	Status      string    `json:"status"` // completed, failed, interrupted
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunStore keeps run history in sqlite.
type RunStore struct {
	DB *sql.DB
}

func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			project_type TEXT,
			searched INTEGER,
			result_count INTEGER,
			output_path TEXT,
			trace TEXT,
			fallbacks TEXT,
			status TEXT,
			error TEXT,
			created_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &RunStore{DB: db}, nil
}

func (s *RunStore) Close() error {
	return s.DB.Close()
}

func (s *RunStore) RecordRun(ctx context.Context, run Run) error {
	trace, err := json.Marshal(run.Trace)
	if err != nil {
		return err
	}
	fallbacks, err := json.Marshal(run.Fallbacks)
	if err != nil {
		return err
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	query := `INSERT INTO runs (id, project_type, searched, result_count, output_path, trace, fallbacks, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.DB.ExecContext(ctx, query,
		run.ID, run.ProjectType, run.Searched, run.ResultCount, run.OutputPath,
		string(trace), string(fallbacks), run.Status, run.Error,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, project_type, searched, result_count, output_path, trace, fallbacks, status, error, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                       Run
			trace, fallbacks, created string
		)
		if err := rows.Scan(&run.ID, &run.ProjectType, &run.Searched, &run.ResultCount, &run.OutputPath,
			&trace, &fallbacks, &run.Status, &run.Error, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(trace), &run.Trace); err != nil {
			return nil, fmt.Errorf("run %s: bad trace: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(fallbacks), &run.Fallbacks); err != nil {
			return nil, fmt.Errorf("run %s: bad fallbacks: %w", run.ID, err)
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
