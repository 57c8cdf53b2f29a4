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
	"strings"
)

// SearchQuery describes the in-app search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Types restricts matches to widget types such as
// metric, line-chart or log-viewer. Dashboard restricts matches to one
// dashboard by ID. Limit/Offset implement pagination; reasonable defaults
// applied if zero.
type SearchQuery struct {
	Text      string
	Types     []string
	Dashboard string
	Limit     int
	Offset    int
}

// SearchResult represents a single match row.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text is used.
// DashboardID and WidgetID are empty for project-level and sheet rows.
type SearchResult struct {
	DocID       int64
	DocType     string
	Path        string
	DashboardID string
	WidgetID    string
	Title       string
	Snippet     string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over documents with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	// Build dynamic SQL
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT d.doc_id, d.doc_type, d.path, COALESCE(d.dashboard_id,''), COALESCE(d.widget_id,''), COALESCE(d.title,''), snippet(fts_documents, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id\n")
		sb.WriteString("WHERE fts_documents MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.doc_id, d.doc_type, d.path, COALESCE(d.dashboard_id,''), COALESCE(d.widget_id,''), COALESCE(d.title,''), ''\n")
		sb.WriteString("FROM documents d\nWHERE 1=1\n")
	}
	// Widget type filter (IN list)
	if len(q.Types) > 0 {
		sb.WriteString(" AND d.widget_type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	// Dashboard filter
	if s := strings.TrimSpace(q.Dashboard); s != "" {
		sb.WriteString(" AND d.dashboard_id = ?\n")
		args = append(args, s)
	}
	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY d.dashboard_id NULLS LAST, d.doc_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.DocType, &r.Path, &r.DashboardID, &r.WidgetID, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WhereUsed returns the index rows that carry the given widget ID. The
// widget's owning dashboard is in DashboardID of each result.
func WhereUsed(ctx context.Context, projectRoot string, widgetID string, limit, offset int) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if strings.TrimSpace(widgetID) == "" {
		return nil, errors.New("widget id is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT d.doc_id, d.doc_type, d.path, COALESCE(d.dashboard_id,''), COALESCE(d.widget_id,''), COALESCE(d.title,''), ''
		FROM documents d
		WHERE d.widget_id = ?
		ORDER BY d.doc_id
		LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, q, widgetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("where-used query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.DocType, &r.Path, &r.DashboardID, &r.WidgetID, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DashboardsUsingType returns the distinct dashboard IDs that contain at
// least one widget of the given type.
func DashboardsUsingType(ctx context.Context, projectRoot string, widgetType string) ([]string, error) {
	if strings.TrimSpace(widgetType) == "" {
		return nil, errors.New("widget type is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT dashboard_id FROM documents WHERE widget_type = ? AND dashboard_id IS NOT NULL ORDER BY dashboard_id`, widgetType)
	if err != nil {
		return nil, fmt.Errorf("type-used query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
