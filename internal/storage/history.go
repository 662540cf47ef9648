/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gomanga/internal/domain"
	applog "gomanga/internal/log"
	"gomanga/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// HistoryDirName stores per-directory derived data next to project files.
	HistoryDirName  = ".gomanga"
	HistoryFileName = "history.sqlite"

	// schemaVersion tracks the local SQLite schema of the history database.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(project_id, name, ts, panels, items, data) VALUES (?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestRevisionSQL = `SELECT id, project_id, name, ts, panels, items, data FROM revisions ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT id, project_id, name, ts, panels, items, data FROM revisions ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldRevisionsSQL = `DELETE FROM revisions WHERE id NOT IN (
	SELECT id FROM revisions ORDER BY ts DESC, id DESC LIMIT ?
)`

// Revision is one stored version of a project.
type Revision struct {
	ID        int64
	ProjectID string
	Name      string
	TS        time.Time
	Panels    int
	Items     int
	Project   domain.Project
}

// History is the revision store of one directory. It is safe for concurrent use.
type History struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// HistoryPath returns the history database location for projects in dir.
func HistoryPath(dir string) string {
	return filepath.Join(dir, HistoryDirName, HistoryFileName)
}

// OpenHistory ensures that the SQLite history exists at <dir>/.gomanga/history.sqlite,
// opens it, enables WAL mode and brings the schema up to date.
func OpenHistory(dir string) (*History, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_open").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, HistoryDirName), 0o755); err != nil {
		l.Error("create history dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", HistoryDirName, err)
	}

	path := HistoryPath(dir)
	// Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure history schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("history ready", slog.String("path", path))
	return &History{db: db, path: path, log: l}, nil
}

// Path returns the database file location.
func (h *History) Path() string { return h.path }

// Close releases the database.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Put stores p as a revision taken at ts.
func (h *History) Put(ctx context.Context, p domain.Project, ts time.Time) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal revision: %w", err)
	}
	_, err = h.db.ExecContext(ctx, insertRevisionSQL, p.ID, p.Name, ts.UTC().Format(time.RFC3339Nano), len(p.Panels), p.ContentCount(), string(data))
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// Latest returns the newest revision; ok is false when there is none.
func (h *History) Latest(ctx context.Context) (rev Revision, ok bool, err error) {
	rev, err = scanRevision(h.db.QueryRowContext(ctx, selectLatestRevisionSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, false, nil
	}
	if err != nil {
		return Revision{}, false, err
	}
	return rev, true, nil
}

// List returns up to limit revisions, newest first.
func (h *History) List(ctx context.Context, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, listRevisionsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// Prune keeps at most keepLast revisions and deletes older ones.
func (h *History) Prune(ctx context.Context, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := h.db.ExecContext(ctx, pruneOldRevisionsSQL, keepLast)
	if err != nil {
		return 0, fmt.Errorf("prune revisions: %w", err)
	}
	n, err := res.RowsAffected()
	if n > 0 {
		h.log.Debug("revisions pruned", slog.Int64("count", n))
	}
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(r rowScanner) (Revision, error) {
	var (
		rev   Revision
		tsStr string
		data  string
	)
	if err := r.Scan(&rev.ID, &rev.ProjectID, &rev.Name, &tsStr, &rev.Panels, &rev.Items, &data); err != nil {
		return Revision{}, err
	}
	rev.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
	if err := json.Unmarshal([]byte(data), &rev.Project); err != nil {
		return Revision{}, fmt.Errorf("decode revision %d: %w", rev.ID, err)
	}
	rev.Project.Normalize()
	return rev, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh DB starts at the current schema
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	q := `CREATE TABLE IF NOT EXISTS revisions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		ts         TEXT NOT NULL,
		panels     INTEGER NOT NULL DEFAULT 0,
		items      INTEGER NOT NULL DEFAULT 0,
		data       TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create revisions: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_revisions_ts ON revisions(ts);`); err != nil {
		return fmt.Errorf("create revisions index: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_revisions_project ON revisions(project_id);`); err != nil {
		return fmt.Errorf("create revisions index: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	// Never downgrade
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_revisions_ts ON revisions(ts);`,
				`CREATE INDEX IF NOT EXISTS idx_revisions_project ON revisions(project_id);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}
