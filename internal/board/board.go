/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package board implements the widget collection operations of a dashboard.
// Every function takes the dashboard to mutate explicitly; there is no
// ambient "current dashboard" anywhere in the system.
package board

import (
	"time"

	"github.com/google/uuid"

	"gridboard/internal/domain"
	"gridboard/internal/grid"
	"gridboard/internal/registry"
)

// DuplicateOffset is the fixed cell delta applied to a duplicated widget so
// the copy does not sit exactly on top of its source.
const DuplicateOffset = 2

// NewDashboard creates an empty dashboard with default grid settings.
func NewDashboard(name, description string) *domain.Dashboard {
	now := time.Now().UTC()
	return &domain.Dashboard{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Widgets:     []domain.Widget{},
		Layout:      domain.LayoutGrid,
		Settings:    domain.DefaultGridSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// touch records a mutation on the dashboard.
func touch(d *domain.Dashboard) {
	d.UpdatedAt = time.Now().UTC()
	d.HasUnsavedChanges = true
}

// Find returns a pointer to the widget with the given id, or nil.
func Find(d *domain.Dashboard, id string) *domain.Widget {
	if d == nil {
		return nil
	}
	for i := range d.Widgets {
		if d.Widgets[i].ID == id {
			return &d.Widgets[i]
		}
	}
	return nil
}

// Add places a new widget of the given type at the given cell, filling size
// and config from the registry entry. Unknown types are a silent no-op:
// nothing is mutated and ok is false. The position is clamped to the
// non-negative quadrant; the mapper never clamps, this is where it happens.
func Add(d *domain.Dashboard, t domain.WidgetType, at grid.Cell) (domain.Widget, bool) {
	if d == nil {
		return domain.Widget{}, false
	}
	entry, ok := registry.Lookup(t)
	if !ok {
		return domain.Widget{}, false
	}
	w := domain.Widget{
		ID:          uuid.NewString(),
		Type:        t,
		Title:       entry.Name,
		Position:    clampCell(at),
		Size:        entry.DefaultSize,
		Config:      entry.NewConfig(),
		LastUpdated: time.Now().UTC(),
	}
	d.Widgets = append(d.Widgets, w)
	touch(d)
	return w, true
}

// Patch carries the fields an Update call may change. Nil fields are left
// untouched.
type Patch struct {
	Title    *string
	Position *grid.Cell
	Size     *grid.Extent
	Config   domain.WidgetConfig
}

// Update merges the patch into the widget with the given id and refreshes
// its LastUpdated timestamp. It reports whether a matching widget was found;
// the dashboard is only marked dirty on success. Positions are clamped to
// >= 0 and sizes to >= 1 cell per axis.
func Update(d *domain.Dashboard, id string, p Patch) bool {
	w := Find(d, id)
	if w == nil {
		return false
	}
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.Position != nil {
		w.Position = clampCell(*p.Position)
	}
	if p.Size != nil {
		w.Size = clampExtent(*p.Size)
	}
	if p.Config != nil {
		w.Config = p.Config.Clone()
	}
	w.LastUpdated = time.Now().UTC()
	touch(d)
	return true
}

// Remove deletes the widget with the given id and reports whether a removal
// occurred. Selection state belongs to the interaction layer; clearing it
// there is the caller's job.
func Remove(d *domain.Dashboard, id string) bool {
	if d == nil {
		return false
	}
	for i := range d.Widgets {
		if d.Widgets[i].ID == id {
			d.Widgets = append(d.Widgets[:i], d.Widgets[i+1:]...)
			touch(d)
			return true
		}
	}
	return false
}

// Duplicate deep-copies the widget with the given id, offsets the copy by
// DuplicateOffset cells on both axes, mints a fresh id and appends it.
// ok is false when the id is unknown.
func Duplicate(d *domain.Dashboard, id string) (domain.Widget, bool) {
	src := Find(d, id)
	if src == nil {
		return domain.Widget{}, false
	}
	c := src.Clone()
	c.ID = uuid.NewString()
	c.Position = grid.Cell{X: src.Position.X + DuplicateOffset, Y: src.Position.Y + DuplicateOffset}
	c.LastUpdated = time.Now().UTC()
	d.Widgets = append(d.Widgets, c)
	touch(d)
	return c, true
}

// Reorder replaces the widget list order with the order given by ids.
// Position and size are never altered. The call only succeeds when ids is
// exactly a permutation of the current id set; otherwise nothing changes.
func Reorder(d *domain.Dashboard, ids []string) bool {
	if d == nil || len(ids) != len(d.Widgets) {
		return false
	}
	byID := make(map[string]int, len(d.Widgets))
	for i := range d.Widgets {
		byID[d.Widgets[i].ID] = i
	}
	next := make([]domain.Widget, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return false
		}
		idx, ok := byID[id]
		if !ok {
			return false
		}
		seen[id] = struct{}{}
		next = append(next, d.Widgets[idx])
	}
	d.Widgets = next
	touch(d)
	return true
}

func clampCell(c grid.Cell) grid.Cell {
	return grid.Cell{X: max(0, c.X), Y: max(0, c.Y)}
}

func clampExtent(e grid.Extent) grid.Extent {
	return grid.Extent{Width: max(1, e.Width), Height: max(1, e.Height)}
}
