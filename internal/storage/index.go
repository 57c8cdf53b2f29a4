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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gridboard/internal/domain"
	applog "gridboard/internal/log"
	"gridboard/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-project ephemeral/index data under the project root.
	IndexDirName  = ".gbd"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 3
)

// IndexPath returns the full path to the project's embedded index database file.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-project SQLite index exists at .gbd/index.sqlite,
// opens the database, enables WAL mode, and ensures the meta/version tables exist.
// The returned *sql.DB is ready for use. Callers may close it when no longer needed.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .gbd dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gbd dir: %w", err)
	}

	path := IndexPath(projectRoot)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Ensure WAL mode is active.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	// Enforce foreign keys just in case future schema uses them.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	// Ensure core index schema exists (documents, FTS, snapshots, previews)
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	// Run migrations to bring DB schema up to date
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	// Create tables if not exist
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
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	// Check if a version row exists
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Insert new row with current schemaVersion for a fresh DB
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade; DetectAndRebuildIndex handles the mismatch
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Add helpful lookup indexes and optimize FTS
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_documents_dashboard ON documents(dashboard_id);`,
				`CREATE INDEX IF NOT EXISTS idx_documents_widget_type ON documents(widget_type);`,
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
			// Best-effort FTS optimize (outside the tx)
			if _, err := db.ExecContext(ctx, `INSERT INTO fts_documents(fts_documents) VALUES('optimize')`); err != nil {
				// best-effort optimize; ignore errors
			}
		case 3:
			// Previews gained size/last_access tracking for the LRU cap
			if err := EnsurePreviewsMigrated(ctx, db); err != nil {
				return fmt.Errorf("migration %d previews: %w", next, err)
			}
			if _, err := db.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
		default:
			// Unknown future step; break
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Core documents table: one row per searchable thing (project fields,
		// dashboards, widgets, template sheets).
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id       INTEGER PRIMARY KEY,
			doc_type     TEXT    NOT NULL,
			path         TEXT    NOT NULL,
			dashboard_id TEXT,
			widget_id    TEXT,
			widget_type  TEXT,
			title        TEXT,
			raw_text     TEXT
		);`,
		// Helpful indices for lookup
		`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_dashboard ON documents(dashboard_id);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_widget_type ON documents(widget_type);`,

		// Contentless FTS5 index fed from documents via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		// Layout snapshots (history of dashboard geometry, used by undo
		// spill and crash recovery)
		`CREATE TABLE IF NOT EXISTS layout_snapshots (
			id           INTEGER PRIMARY KEY,
			dashboard_id TEXT    NOT NULL,
			ts           TEXT    NOT NULL,
			blob         BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_layout_snapshots_board_ts ON layout_snapshots(dashboard_id, ts);`,

		// Previews cache (dashboard/widget thumbnails); widget_id '' means the
		// whole-dashboard thumbnail
		`CREATE TABLE IF NOT EXISTS previews (
			id           INTEGER PRIMARY KEY,
			dashboard_id TEXT    NOT NULL,
			widget_id    TEXT    NOT NULL DEFAULT '',
			w            INTEGER NOT NULL DEFAULT 0,
			h            INTEGER NOT NULL DEFAULT 0,
			thumb_blob   BLOB,
			size         INTEGER NOT NULL DEFAULT 0,
			updated_at   TEXT    NOT NULL,
			last_access  TEXT
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	// Triggers for contentless FTS synchronization with documents title/raw_text
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, trim(coalesce(new.title,'') || ' ' || coalesce(new.raw_text,'')));
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, trim(coalesce(old.title,'') || ' ' || coalesce(old.raw_text,'')));
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE OF title, raw_text ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, trim(coalesce(old.title,'') || ' ' || coalesce(old.raw_text,'')));
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, trim(coalesce(new.title,'') || ' ' || coalesce(new.raw_text,'')));
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	// Perform previews schema migration/additional indexes for caching variants and LRU
	if err := EnsurePreviewsMigrated(ctx, db); err != nil {
		return err
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption, missing schema or a version
// mismatch and rebuilds the index if needed. It returns true when a rebuild
// was performed.
func DetectAndRebuildIndex(ctx context.Context, projectRoot string, proj domain.Project) (bool, error) {
	path := IndexPath(projectRoot)
	// Try to open DB; if fails, attempt backup+delete+rebuild
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, projectRoot, proj); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	defer db.Close()
	needs := false
	// quick_check for corruption
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	// Probe core table
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM documents LIMIT 1;`); err != nil {
			needs = true
		}
	}
	// A schema written by a newer app version is rebuilt rather than guessed at
	if !needs {
		var cur int
		if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil || cur != schemaVersion {
			needs = true
		}
	}
	if !needs {
		return false, nil
	}
	// Backup and remove existing DB file
	backupIndexFile(path)
	_ = os.Remove(path)
	// Rebuild
	if err := RebuildIndex(ctx, projectRoot, proj); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in .gbd/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// BuildIndexIfEmpty performs a minimal background index build if the index has no user content.
// It ensures the DB exists and, if the documents table is empty, populates it from the given manifest.
func BuildIndexIfEmpty(ctx context.Context, projectRoot string, proj domain.Project) error {
	// Ensure the DB exists and is initialized
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	// Check if documents has any rows
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents;").Scan(&cnt); err != nil {
		return fmt.Errorf("check documents count: %w", err)
	}
	if cnt > 0 {
		return nil // already built
	}
	return rebuildDocumentsFromProject(ctx, db, projectRoot, proj)
}

// UpdateIndex updates the embedded index with changes from the project manifest.
// Minimal safe implementation: replace the documents content from the provided manifest.
func UpdateIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildDocumentsFromProject(ctx, db, projectRoot, proj)
}

// RebuildIndex drops and recreates core index tables and rebuilds content from the manifest.
// It preserves meta/version tables. This is a safe operation; the index is derived from board.json and the template sheets.
func RebuildIndex(ctx context.Context, projectRoot string, proj domain.Project) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	// Drop core tables inside a transaction and recreate schema
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	drops := []string{
		"DROP TABLE IF EXISTS previews;",
		"DROP TABLE IF EXISTS layout_snapshots;",
		"DROP TRIGGER IF EXISTS documents_ai;",
		"DROP TRIGGER IF EXISTS documents_ad;",
		"DROP TRIGGER IF EXISTS documents_au;",
		"DROP TABLE IF EXISTS documents;",
		"DROP TABLE IF EXISTS fts_documents;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	// Recreate schema and populate
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildDocumentsFromProject(ctx, db, projectRoot, proj)
}

// rebuildDocumentsFromProject replaces the documents table content from the given project manifest and template sheets.
func rebuildDocumentsFromProject(ctx context.Context, db *sql.DB, projectRoot string, proj domain.Project) error {
	// Build list of rows
	type row struct {
		docType     string
		path        string
		dashboardID sql.NullString
		widgetID    sql.NullString
		widgetType  sql.NullString
		title       sql.NullString
		rawText     string
	}
	rows := make([]row, 0, 256)
	// Project-level metadata
	if s := strings.TrimSpace(proj.Name); s != "" {
		rows = append(rows, row{docType: "project_name", path: "project:name", rawText: s})
	}
	if s := strings.TrimSpace(proj.Metadata.Owner); s != "" {
		rows = append(rows, row{docType: "project_owner", path: "project:owner", rawText: s})
	}
	if s := strings.TrimSpace(proj.Metadata.Team); s != "" {
		rows = append(rows, row{docType: "project_team", path: "project:team", rawText: s})
	}
	if s := strings.TrimSpace(proj.Metadata.Notes); s != "" {
		rows = append(rows, row{docType: "project_notes", path: "project:notes", rawText: s})
	}
	// Dashboards and their widgets
	for di := range proj.Dashboards {
		d := &proj.Dashboards[di]
		bid := sql.NullString{String: d.ID, Valid: d.ID != ""}
		rows = append(rows, row{
			docType:     "dashboard",
			path:        "dashboard:" + d.ID,
			dashboardID: bid,
			title:       sql.NullString{String: d.Name, Valid: true},
			rawText:     strings.TrimSpace(d.Description),
		})
		for wi := range d.Widgets {
			w := &d.Widgets[wi]
			rows = append(rows, row{
				docType:     "widget",
				path:        fmt.Sprintf("dashboard:%s/widget:%s", d.ID, w.ID),
				dashboardID: bid,
				widgetID:    sql.NullString{String: w.ID, Valid: w.ID != ""},
				widgetType:  sql.NullString{String: string(w.Type), Valid: true},
				title:       sql.NullString{String: w.Title, Valid: true},
				rawText:     ConfigText(w.Config),
			})
		}
	}
	// Template sheets (if present)
	sheetGlob := filepath.Join(projectRoot, "templates", "*"+SheetFileExt)
	if matches, err := filepath.Glob(sheetGlob); err == nil {
		for _, m := range matches {
			b, err := os.ReadFile(m)
			if err != nil {
				continue
			}
			s := strings.TrimSpace(string(b))
			if s == "" {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(m), SheetFileExt)
			rows = append(rows, row{
				docType: "sheet",
				path:    "sheet:" + filepath.Base(m),
				title:   sql.NullString{String: name, Valid: true},
				rawText: s,
			})
		}
	}
	// Write in a transaction: clear documents and insert new rows.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear documents: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO documents(doc_type, path, dashboard_id, widget_id, widget_type, title, raw_text) VALUES(?,?,?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		if _, err := ins.ExecContext(ctx, r.docType, r.path, r.dashboardID, r.widgetID, r.widgetType, r.title, r.rawText); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert document: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ConfigText flattens the searchable string fields of a widget config into
// one line of text for the index. The share backend uses the same flattening
// when it derives search rows from a pushed document.
func ConfigText(c domain.WidgetConfig) string {
	if c == nil {
		return ""
	}
	var parts []string
	add := func(ss ...string) {
		for _, s := range ss {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
	}
	switch v := c.(type) {
	case domain.MetricConfig:
		add(v.Label, v.Unit)
	case domain.LineChartConfig:
		add(v.Series...)
		add(v.Range)
	case domain.BarChartConfig:
		add(v.Dimension)
	case domain.PieChartConfig:
		add(v.Dimension)
	case domain.TreemapConfig:
		add(v.Dimension)
	case domain.AlertListConfig:
		add(v.Severities...)
	case domain.LogViewerConfig:
		add(v.Query)
	case domain.PredictionConfig:
		add(v.Model, v.Horizon)
	}
	return strings.Join(parts, " ")
}
