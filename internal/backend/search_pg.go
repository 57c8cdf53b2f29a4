/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gridboard/internal/storage"
)

// SearchPG executes a search over the Postgres documents table using tsvector
// and the same filters the local SQLite index applies, returning results mapped
// to storage.SearchResult to ease parity checks.
func SearchPG(ctx context.Context, db *sql.DB, boardID int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		b.WriteString("SELECT d.id AS doc_id, d.doc_type, COALESCE(d.path,'') AS path, COALESCE(d.dashboard_id,'') AS dashboard_id, COALESCE(d.widget_id,'') AS widget_id, COALESCE(d.title,'') AS title, ")
		b.WriteString("COALESCE(ts_headline('simple', trim(COALESCE(d.title,'') || ' ' || COALESCE(d.raw_text,'')), plainto_tsquery('simple', $1), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') AS snippet ")
		b.WriteString("FROM documents d WHERE d.board_id = $2 AND d.search_vector @@ plainto_tsquery('simple', $1) ")
		args = append(args, q.Text, boardID)
	} else {
		b.WriteString("SELECT d.id AS doc_id, d.doc_type, COALESCE(d.path,'') AS path, COALESCE(d.dashboard_id,'') AS dashboard_id, COALESCE(d.widget_id,'') AS widget_id, COALESCE(d.title,'') AS title, '' AS snippet ")
		b.WriteString("FROM documents d WHERE d.board_id = $1 ")
		args = append(args, boardID)
	}

	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	// Widget type filter
	if len(q.Types) > 0 {
		b.WriteString(" AND d.widget_type = ANY (" + place(q.Types) + ") ")
	}
	// Dashboard filter
	if s := strings.TrimSpace(q.Dashboard); s != "" {
		b.WriteString(" AND d.dashboard_id = " + place(s) + " ")
	}
	// Order and pagination match the local index: dashboards first by id, then
	// insertion order within the board.
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY d.dashboard_id NULLS LAST, d.id ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.DocID, &r.DocType, &r.Path, &r.DashboardID, &r.WidgetID, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
