/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for GridBoard: a project holds named
// dashboards, a dashboard holds placed widgets on an integer cell grid.
// Everything serializes to a human-readable JSON manifest.

import (
	"time"

	"gridboard/internal/grid"
)

// Project represents a board workspace and its metadata.
type Project struct {
	Name       string      `json:"name"`
	Metadata   Metadata    `json:"metadata,omitempty"`
	Dashboards []Dashboard `json:"dashboards"`
}

// Metadata contains descriptive and bookkeeping metadata for a project.
// SchemaVersion guards manifest migrations; ModifiedAt is bumped on save.
type Metadata struct {
	Owner         string    `json:"owner,omitempty"`
	Team          string    `json:"team,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	ModifiedAt    time.Time `json:"modifiedAt,omitempty"`
	SchemaVersion int       `json:"schemaVersion,omitempty"`
}

// LayoutMode tags how a dashboard arranges its widgets. Only the grid mode
// carries layout semantics today; free is kept for imported documents.
type LayoutMode string

const (
	LayoutGrid LayoutMode = "grid"
	LayoutFree LayoutMode = "free"
)

// Dashboard is a named, ordered collection of widgets. Widget order is
// insertion/z-order; it carries no layout meaning.
type Dashboard struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Widgets     []Widget     `json:"widgets"`
	Layout      LayoutMode   `json:"layout"`
	Settings    GridSettings `json:"settings"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	// HasUnsavedChanges is runtime state: set on any widget mutation, cleared
	// only by an explicit save or a fresh import. Never serialized.
	HasUnsavedChanges bool `json:"-"`
}

// GridSettings holds the cell geometry a dashboard is laid out against.
type GridSettings struct {
	CellSize    int          `json:"cellSize"` // pixels per cell edge
	Gutter      int          `json:"gutter"`   // pixels between rendered widgets
	Columns     int          `json:"columns"`  // grid width in cells
	Breakpoints []Breakpoint `json:"breakpoints,omitempty"`
}

// Breakpoint maps a minimum viewport width to a column count.
type Breakpoint struct {
	Label    string `json:"label"`
	MinWidth int    `json:"minWidth"`
	Columns  int    `json:"columns"`
}

// DefaultGridSettings returns the settings new dashboards start with.
func DefaultGridSettings() GridSettings {
	return GridSettings{
		CellSize: 20,
		Gutter:   8,
		Columns:  24,
		Breakpoints: []Breakpoint{
			{Label: "lg", MinWidth: 1200, Columns: 24},
			{Label: "md", MinWidth: 996, Columns: 12},
			{Label: "sm", MinWidth: 768, Columns: 6},
		},
	}
}

// Widget is one placed element on a dashboard grid.
// Invariant: Position.X >= 0, Position.Y >= 0, Size.Width >= 1,
// Size.Height >= 1. Widgets may overlap freely.
type Widget struct {
	ID          string       `json:"id"`
	Type        WidgetType   `json:"type"`
	Title       string       `json:"title"`
	Position    grid.Cell    `json:"position"`
	Size        grid.Extent  `json:"size"`
	Config      WidgetConfig `json:"config"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

// Clone returns a deep copy of the widget. The copy keeps the same ID;
// callers minting a duplicate assign a fresh one.
func (w Widget) Clone() Widget {
	c := w
	if w.Config != nil {
		c.Config = w.Config.Clone()
	}
	return c
}

// Template is an immutable named blueprint used to bulk-populate a
// dashboard. Blueprints carry no position; placement is computed when the
// template is instantiated.
type Template struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Widgets     []WidgetBlueprint `json:"widgets"`
}

// WidgetBlueprint describes one widget a template will materialize.
type WidgetBlueprint struct {
	Type   WidgetType   `json:"type"`
	Title  string       `json:"title"`
	Size   grid.Extent  `json:"size"`
	Config WidgetConfig `json:"config,omitempty"`
}
