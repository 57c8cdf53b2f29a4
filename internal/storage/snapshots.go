/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertLayoutSnapshotSQL = `INSERT INTO layout_snapshots(dashboard_id, ts, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestLayoutSnapshotSQL = `SELECT ts, blob FROM layout_snapshots WHERE dashboard_id = ? ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listLayoutSnapshotsSQL = `SELECT ts, blob FROM layout_snapshots WHERE dashboard_id = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldLayoutSnapshotsSQL = `DELETE FROM layout_snapshots WHERE dashboard_id = ? AND id NOT IN (
	SELECT id FROM layout_snapshots WHERE dashboard_id = ? ORDER BY ts DESC LIMIT ?
)`

// LayoutSnapshot is one point-in-time copy of a dashboard's geometry,
// typically the exported document bytes.
type LayoutSnapshot struct {
	TS   time.Time
	Blob []byte
}

// SaveLayoutSnapshot persists a dashboard layout blob with a timestamp.
// It opens the project's index database if needed and inserts the record.
func SaveLayoutSnapshot(ctx context.Context, ph *ProjectHandle, dashboardID string, blob []byte, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if dashboardID == "" {
		return errors.New("dashboard id is required")
	}
	// Open or init index DB
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertLayoutSnapshotSQL, dashboardID, ts.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// GetLatestLayoutSnapshot returns the latest snapshot blob for a dashboard or nil if none.
func GetLatestLayoutSnapshot(ctx context.Context, ph *ProjectHandle, dashboardID string) ([]byte, time.Time, error) {
	if ph == nil {
		return nil, time.Time{}, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestLayoutSnapshotSQL, dashboardID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return blob, time.Time{}, nil // return blob even if ts parse fails
	}
	return blob, ts, nil
}

// ListLayoutSnapshots returns up to limit most recent snapshots for a dashboard.
func ListLayoutSnapshots(ctx context.Context, ph *ProjectHandle, dashboardID string, limit int) ([]LayoutSnapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listLayoutSnapshotsSQL, dashboardID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []LayoutSnapshot
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, LayoutSnapshot{TS: ts, Blob: blob})
	}
	return out, rows.Err()
}

// PruneOldLayoutSnapshots keeps at most keepLast snapshots for the dashboard and deletes older ones.
func PruneOldLayoutSnapshots(ctx context.Context, ph *ProjectHandle, dashboardID string, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	// Delete snapshots not in the newest keepLast set
	res, err := db.ExecContext(ctx, pruneOldLayoutSnapshotsSQL, dashboardID, dashboardID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
