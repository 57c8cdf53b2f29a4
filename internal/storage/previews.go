/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnsurePreviewsMigrated guarantees the previews table has columns needed for
// size/LRU tracking. It is safe to call multiple times; index databases
// written before schema v3 lack the size and last_access columns.
func EnsurePreviewsMigrated(ctx context.Context, db *sql.DB) error {
	// Ensure table exists (older ensureIndexSchema will have created a minimal version).
	// widget_id '' addresses the whole-dashboard thumbnail; NULL is avoided so
	// the unique index actually collides on upsert.
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS previews (
		id           INTEGER PRIMARY KEY,
		dashboard_id TEXT    NOT NULL,
		widget_id    TEXT    NOT NULL DEFAULT '',
		w            INTEGER NOT NULL DEFAULT 0,
		h            INTEGER NOT NULL DEFAULT 0,
		thumb_blob   BLOB,
		size         INTEGER NOT NULL DEFAULT 0,
		updated_at   TEXT    NOT NULL,
		last_access  TEXT
	);`); err != nil {
		return fmt.Errorf("ensure previews table: %w", err)
	}
	// Inspect current columns
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(previews);`)
	if err != nil {
		return fmt.Errorf("table_info previews: %w", err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		cols[name] = true
	}
	if rows.Err() != nil {
		return rows.Err()
	}
	// Add missing columns for new schema
	if !cols["w"] {
		if _, err := db.ExecContext(ctx, `ALTER TABLE previews ADD COLUMN w INTEGER DEFAULT 0`); err != nil {
			return fmt.Errorf("add w: %w", err)
		}
	}
	if !cols["h"] {
		if _, err := db.ExecContext(ctx, `ALTER TABLE previews ADD COLUMN h INTEGER DEFAULT 0`); err != nil {
			return fmt.Errorf("add h: %w", err)
		}
	}
	if !cols["size"] {
		if _, err := db.ExecContext(ctx, `ALTER TABLE previews ADD COLUMN size INTEGER DEFAULT 0`); err != nil {
			return fmt.Errorf("add size: %w", err)
		}
	}
	if !cols["last_access"] {
		if _, err := db.ExecContext(ctx, `ALTER TABLE previews ADD COLUMN last_access TEXT`); err != nil {
			return fmt.Errorf("add last_access: %w", err)
		}
	}
	// Unique index covering the cache key
	if _, err := db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_variant ON previews(dashboard_id, widget_id, w, h)`); err != nil {
		return fmt.Errorf("create variant index: %w", err)
	}
	// Also helpful index for LRU eviction by access time
	_, _ = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access)`)
	return nil
}

// GetPreview returns the stored thumbnail for the key and updates last_access.
// Returns nil when no preview is cached. widgetID "" addresses the whole
// dashboard's thumbnail.
func GetPreview(ctx context.Context, projectRoot string, dashboardID, widgetID string, w, h int) ([]byte, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var blob []byte
	err = db.QueryRowContext(ctx, `SELECT thumb_blob FROM previews WHERE dashboard_id=? AND widget_id=? AND w=? AND h=?`, dashboardID, widgetID, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	// touch
	now := time.Now().UTC().Format(time.RFC3339)
	_, _ = db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE dashboard_id=? AND widget_id=? AND w=? AND h=?`, now, dashboardID, widgetID, w, h)
	return blob, nil
}

// PutPreview upserts a thumbnail blob and enforces the cache size cap via LRU eviction.
func PutPreview(ctx context.Context, projectRoot string, dashboardID, widgetID string, w, h int, blob []byte) error {
	if dashboardID == "" {
		return errors.New("dashboard id is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	now := time.Now().UTC().Format(time.RFC3339)
	size := len(blob)
	_, err = db.ExecContext(ctx, `INSERT INTO previews(dashboard_id,widget_id,w,h,thumb_blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(dashboard_id,widget_id,w,h) DO UPDATE SET thumb_blob=excluded.thumb_blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		dashboardID, widgetID, w, h, blob, size, now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	// Enforce cap
	capBytes := MaxPreviewsBytesFromEnv()
	if capBytes > 0 {
		if err := EvictPreviewsToFit(ctx, db, capBytes); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreatePreview fetches a preview or generates and stores it using the provided generator.
func GetOrCreatePreview(ctx context.Context, projectRoot string, dashboardID, widgetID string, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	// Try to get existing first
	if b, err := GetPreview(ctx, projectRoot, dashboardID, widgetID, w, h); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	if gen == nil {
		return nil, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	if err := PutPreview(ctx, projectRoot, dashboardID, widgetID, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// EvictPreviewsToFit deletes least-recently-used rows until total size <= capBytes.
func EvictPreviewsToFit(ctx context.Context, db *sql.DB, capBytes int64) error {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return fmt.Errorf("sum previews size: %w", err)
	}
	if total <= capBytes {
		return nil
	}
	// Select victim ids ordered by last_access asc (oldest first), NULLs first
	rows, err := db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	toDelete := make([]int64, 0, 32)
	var cur = total
	for rows.Next() {
		var id int64
		var sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		toDelete = append(toDelete, id)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Important: close the rows cursor before attempting to write
	if err := rows.Close(); err != nil {
		return err
	}
	if len(toDelete) == 0 {
		return nil
	}
	// Delete selected ids
	sqlBase := `DELETE FROM previews WHERE id IN (`
	for i := range toDelete {
		if i > 0 {
			sqlBase += ","
		}
		sqlBase += "?"
	}
	sqlBase += ")"
	args := make([]any, len(toDelete))
	for i, v := range toDelete {
		args[i] = v
	}
	if _, err := db.ExecContext(ctx, sqlBase, args...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// TotalPreviewBytes returns total bytes tracked by previews.size
func TotalPreviewBytes(ctx context.Context, projectRoot string) (int64, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// MaxPreviewsBytesFromEnv reads GBD_PREVIEWS_MAX_BYTES, defaulting to 256MB if unset.
func MaxPreviewsBytesFromEnv() int64 {
	v := os.Getenv("GBD_PREVIEWS_MAX_BYTES")
	if v == "" {
		return 256 * 1024 * 1024 // 256MB
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 256 * 1024 * 1024
	}
	return n
}
