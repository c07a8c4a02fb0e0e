package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"IndexTrend/internal/logger"
	"IndexTrend/internal/model"
)

const maxDetailLen = 2000

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id           TEXT PRIMARY KEY,
			started_at       INTEGER NOT NULL,
			finished_at      INTEGER,
			state            TEXT NOT NULL,
			watermark        TEXT,
			as_of            TEXT,
			fetched          INTEGER,
			empty            INTEGER,
			skipped          INTEGER,
			http_errors      INTEGER,
			transport_errors INTEGER,
			added            INTEGER,
			replaced         INTEGER,
			artifacts        TEXT,
			error            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS fetch_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			date        TEXT NOT NULL,
			kind        TEXT NOT NULL,
			http_status INTEGER,
			detail      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_run ON fetch_events(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_date ON fetch_events(date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFetch(runID string, o model.FetchOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	detail := o.Detail()
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen]
	}
	_, err := r.db.Exec(`INSERT INTO fetch_events
		(run_id, timestamp, date, kind, http_status, detail)
		VALUES (?,?,?,?,?,?)`,
		runID, time.Now().Unix(), o.Date.Format(model.DateLayout),
		string(o.Kind), o.Status, detail,
	)
	return err
}

// RecordRun upserts the run row, so it can be called at start and at finish.
func (r *SQLiteRecorder) RecordRun(s *model.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, len(s.Artifacts))
	for i, a := range s.Artifacts {
		paths[i] = a.Path
	}
	var finished any
	if !s.FinishedAt.IsZero() {
		finished = s.FinishedAt.Unix()
	}

	_, err := r.db.Exec(`INSERT INTO runs
		(run_id, started_at, finished_at, state, watermark, as_of,
		 fetched, empty, skipped, http_errors, transport_errors,
		 added, replaced, artifacts, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET
			finished_at=excluded.finished_at, state=excluded.state,
			watermark=excluded.watermark, as_of=excluded.as_of,
			fetched=excluded.fetched, empty=excluded.empty, skipped=excluded.skipped,
			http_errors=excluded.http_errors, transport_errors=excluded.transport_errors,
			added=excluded.added, replaced=excluded.replaced,
			artifacts=excluded.artifacts, error=excluded.error`,
		s.RunID, s.StartedAt.Unix(), finished, string(s.State),
		formatDate(s.Watermark), formatDate(s.AsOf),
		s.Fetched, s.Empty, s.Skipped, s.HTTPErrors, s.TransportErrors,
		s.Added, s.Replaced, strings.Join(paths, ","), s.Err,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	logger.Infof("closing sqlite recorder")
	return r.db.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}
