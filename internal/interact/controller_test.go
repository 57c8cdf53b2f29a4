/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"testing"

	"gridboard/internal/board"
	"gridboard/internal/domain"
	"gridboard/internal/grid"
)

// Default settings put one cell at 20px.

func addWidget(t *testing.T, d *domain.Dashboard, typ domain.WidgetType, at grid.Cell) domain.Widget {
	t.Helper()
	w, ok := board.Add(d, typ, at)
	if !ok {
		t.Fatalf("add %s failed", typ)
	}
	return w
}

func TestPointerDownSelectsTopmost(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 0, Y: 0})
	b := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 1, Y: 0})
	d.HasUnsavedChanges = false
	c := New(d)

	// (40,10) is inside both 4x2 metrics; the later widget is on top.
	c.PointerDown(grid.Pt{X: 40, Y: 10})
	if c.Selected() != b.ID {
		t.Fatalf("selected = %q, want topmost %q", c.Selected(), b.ID)
	}
	if c.Mode() != GestureMove {
		t.Fatalf("mode = %v, want move", c.Mode())
	}

	// Release without travel: selection sticks, document untouched.
	c.PointerUp(grid.Pt{X: 40, Y: 10})
	if c.Mode() != GestureNone {
		t.Fatalf("mode after release = %v", c.Mode())
	}
	if d.HasUnsavedChanges {
		t.Fatal("click without travel must not dirty the dashboard")
	}
}

func TestPressOnEmptyClearsSelection(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 0, Y: 0})
	c := New(d)
	c.Select(w.ID)

	c.PointerDown(grid.Pt{X: 500, Y: 500})
	if c.Selected() != "" {
		t.Fatalf("selected = %q, want empty", c.Selected())
	}
	if c.Mode() != GestureNone {
		t.Fatalf("mode = %v, want idle", c.Mode())
	}
}

func TestMoveDragQuantizesToCells(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 2, Y: 3})
	d.HasUnsavedChanges = false
	c := New(d)

	c.PointerDown(grid.Pt{X: 50, Y: 70})
	c.PointerMove(grid.Pt{X: 91, Y: 95}) // +41px, +25px = +2, +1 cells
	if got := board.Find(d, w.ID).Position; got != (grid.Cell{X: 4, Y: 4}) {
		t.Fatalf("position mid-drag = %+v, want {4 4}", got)
	}
	if !d.HasUnsavedChanges {
		t.Fatal("live move must dirty the dashboard")
	}

	// Deltas stay anchored to the press point, not the previous event.
	c.PointerMove(grid.Pt{X: 30, Y: 65}) // -20px, -5px = -1, 0 cells
	if got := board.Find(d, w.ID).Position; got != (grid.Cell{X: 1, Y: 3}) {
		t.Fatalf("position mid-drag = %+v, want {1 3}", got)
	}

	c.PointerUp(grid.Pt{X: 30, Y: 65})
	if c.Mode() != GestureNone {
		t.Fatalf("mode after release = %v", c.Mode())
	}
	if got := board.Find(d, w.ID).Position; got != (grid.Cell{X: 1, Y: 3}) {
		t.Fatalf("position after release = %+v, want {1 3}", got)
	}
}

func TestSubCellDragMovesNothing(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 2, Y: 3})
	d.HasUnsavedChanges = false
	before := board.Find(d, w.ID).LastUpdated
	c := New(d)

	c.PointerDown(grid.Pt{X: 50, Y: 70})
	c.PointerMove(grid.Pt{X: 69, Y: 89}) // +19px in each axis
	c.PointerMove(grid.Pt{X: 31, Y: 51}) // -19px in each axis
	c.PointerUp(grid.Pt{X: 31, Y: 51})

	got := board.Find(d, w.ID)
	if got.Position != (grid.Cell{X: 2, Y: 3}) {
		t.Fatalf("position = %+v, want unchanged", got.Position)
	}
	if !got.LastUpdated.Equal(before) {
		t.Fatal("sub-cell drag must not touch the widget")
	}
	if d.HasUnsavedChanges {
		t.Fatal("sub-cell drag must not dirty the dashboard")
	}
}

func TestMoveClampsAtOrigin(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 1, Y: 1})
	c := New(d)

	c.PointerDown(grid.Pt{X: 30, Y: 30})
	c.PointerMove(grid.Pt{X: -170, Y: 30}) // -200px = -10 cells
	c.PointerUp(grid.Pt{X: -170, Y: 30})

	if got := board.Find(d, w.ID).Position; got != (grid.Cell{X: 0, Y: 1}) {
		t.Fatalf("position = %+v, want clamped to {0 1}", got)
	}
}

func TestResizeKeepsOppositeCornerFixed(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 4, Y: 4}) // rect (80,80) 80x40
	c := New(d)
	c.Select(w.ID)

	// The NW corner point sits on both the handle and the body; the handle
	// must win.
	c.PointerDown(grid.Pt{X: 80, Y: 80})
	if c.Mode() != GestureResizeNW {
		t.Fatalf("mode = %v, want resize-nw", c.Mode())
	}

	c.PointerMove(grid.Pt{X: 40, Y: 60}) // -40px, -20px = -2, -1 cells
	got := board.Find(d, w.ID)
	if got.Position != (grid.Cell{X: 2, Y: 3}) || got.Size != (grid.Extent{Width: 6, Height: 3}) {
		t.Fatalf("rect = %+v %+v, want {2 3} {6 3}", got.Position, got.Size)
	}
	// The south-east corner never moves during a north-west resize.
	if got.Position.X+got.Size.Width != 8 || got.Position.Y+got.Size.Height != 6 {
		t.Fatalf("opposite corner drifted: %+v %+v", got.Position, got.Size)
	}

	c.PointerUp(grid.Pt{X: 40, Y: 60})
	if c.Mode() != GestureNone {
		t.Fatalf("mode after release = %v", c.Mode())
	}
}

func TestResizeClampsToOneCell(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 2, Y: 2}) // rect (40,40) 80x40
	c := New(d)
	c.Select(w.ID)

	c.PointerDown(grid.Pt{X: 120, Y: 80}) // SE handle
	if c.Mode() != GestureResizeSE {
		t.Fatalf("mode = %v, want resize-se", c.Mode())
	}
	c.PointerMove(grid.Pt{X: 0, Y: 0})
	c.PointerUp(grid.Pt{X: 0, Y: 0})

	got := board.Find(d, w.ID)
	if got.Size != (grid.Extent{Width: 1, Height: 1}) {
		t.Fatalf("size = %+v, want 1x1 floor", got.Size)
	}
	if got.Position != (grid.Cell{X: 2, Y: 2}) {
		t.Fatalf("position = %+v, want unchanged origin", got.Position)
	}
}

func TestResizeStopsAtBoardEdge(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 1, Y: 1}) // rect (20,20) 80x40
	c := New(d)
	c.Select(w.ID)

	c.PointerDown(grid.Pt{X: 20, Y: 20})
	c.PointerMove(grid.Pt{X: -80, Y: 20}) // -100px = -5 cells leftward
	c.PointerUp(grid.Pt{X: -80, Y: 20})

	got := board.Find(d, w.ID)
	if got.Position != (grid.Cell{X: 0, Y: 1}) || got.Size != (grid.Extent{Width: 5, Height: 2}) {
		t.Fatalf("rect = %+v %+v, want {0 1} {5 2}", got.Position, got.Size)
	}
	// Growth is absorbed at the origin; the right edge stays put.
	if got.Position.X+got.Size.Width != 5 {
		t.Fatalf("right edge moved: %+v %+v", got.Position, got.Size)
	}
}

func TestResizeNeedsSelectionFirst(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 1, Y: 1})
	c := New(d)

	// Without a selection the corner point is just body: a move begins.
	c.PointerDown(grid.Pt{X: 20, Y: 20})
	if c.Mode() != GestureMove {
		t.Fatalf("mode = %v, want move on unselected corner", c.Mode())
	}
	c.PointerUp(grid.Pt{X: 20, Y: 20})

	// Selected, a press inside the handle but outside the body resizes.
	c.Select(w.ID)
	c.PointerDown(grid.Pt{X: 17, Y: 17})
	if c.Mode() != GestureResizeNW {
		t.Fatalf("mode = %v, want resize-nw from handle overhang", c.Mode())
	}
}

func TestCancelGestureKeepsLastGeometry(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 2, Y: 3})
	d.HasUnsavedChanges = false
	c := New(d)

	c.PointerDown(grid.Pt{X: 50, Y: 70})
	c.PointerMove(grid.Pt{X: 91, Y: 95})
	c.CancelGesture()

	if c.Mode() != GestureNone {
		t.Fatalf("mode after cancel = %v", c.Mode())
	}
	if got := board.Find(d, w.ID).Position; got != (grid.Cell{X: 4, Y: 4}) {
		t.Fatalf("position after cancel = %+v, want last applied {4 4}", got)
	}
	if !d.HasUnsavedChanges {
		t.Fatal("interrupted drag keeps its committed change")
	}
}

func TestDropFromLibrary(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	c := New(d)

	payload := []byte(`{"type":"widget","widgetType":"line-chart"}`)
	w, ok := c.DropFromLibrary(payload, grid.Pt{X: 170, Y: 130})
	if !ok {
		t.Fatal("drop rejected")
	}
	if w.Type != domain.WidgetLineChart {
		t.Fatalf("type = %s", w.Type)
	}
	if w.Position != (grid.Cell{X: 8, Y: 6}) {
		t.Fatalf("position = %+v, want floor-mapped {8 6}", w.Position)
	}
	if w.Size != (grid.Extent{Width: 8, Height: 5}) {
		t.Fatalf("size = %+v, want palette default", w.Size)
	}
	if c.Selected() != w.ID {
		t.Fatalf("selected = %q, want the dropped widget", c.Selected())
	}

	// Drops beyond the left edge land in column zero.
	w2, ok := c.DropFromLibrary(payload, grid.Pt{X: -10, Y: 30})
	if !ok || w2.Position != (grid.Cell{X: 0, Y: 1}) {
		t.Fatalf("edge drop = %+v ok=%v", w2.Position, ok)
	}
}

func TestDropFromLibraryRejectsBadPayloads(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	d.HasUnsavedChanges = false
	c := New(d)

	cases := [][]byte{
		[]byte(`{"type":"tile","widgetType":"metric"}`),
		[]byte(`{"type":"widget","widgetType":"gauge"}`),
		[]byte(`not json at all`),
	}
	for _, payload := range cases {
		if _, ok := c.DropFromLibrary(payload, grid.Pt{X: 10, Y: 10}); ok {
			t.Fatalf("payload %s must be rejected", payload)
		}
	}
	if len(d.Widgets) != 0 || d.HasUnsavedChanges {
		t.Fatalf("rejected drops must leave the dashboard alone: %d widgets", len(d.Widgets))
	}
}

func TestMenuOneAtATime(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	a := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 0, Y: 0})
	b := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 8, Y: 0})
	c := New(d)

	if !c.OpenMenu(a.ID) {
		t.Fatal("open menu failed")
	}
	if c.MenuFor() != a.ID || c.Selected() != a.ID {
		t.Fatalf("menu = %q selected = %q", c.MenuFor(), c.Selected())
	}
	if !c.OpenMenu(b.ID) {
		t.Fatal("open second menu failed")
	}
	if c.MenuFor() != b.ID {
		t.Fatalf("menu = %q, want replacement %q", c.MenuFor(), b.ID)
	}
	if c.OpenMenu("no-such-widget") {
		t.Fatal("unknown id must not open a menu")
	}
	if c.MenuFor() != b.ID {
		t.Fatalf("failed open must leave menu alone, got %q", c.MenuFor())
	}

	c.PointerDown(grid.Pt{X: 500, Y: 500})
	if c.MenuFor() != "" {
		t.Fatal("gesture start must close the menu")
	}
}

func TestRemoveSelectedClearsSelectionAndMenu(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	a := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 0, Y: 0})
	c := New(d)
	c.OpenMenu(a.ID)

	if !c.RemoveSelected() {
		t.Fatal("remove failed")
	}
	if c.Selected() != "" || c.MenuFor() != "" {
		t.Fatalf("selection %q menu %q must be cleared", c.Selected(), c.MenuFor())
	}
	if len(d.Widgets) != 0 {
		t.Fatalf("widgets = %d, want 0", len(d.Widgets))
	}
	if c.RemoveSelected() {
		t.Fatal("remove with no selection must report false")
	}
}

func TestDuplicateSelectedSelectsCopy(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	a := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 1, Y: 1})
	c := New(d)
	c.Select(a.ID)

	copyW, ok := c.DuplicateSelected()
	if !ok {
		t.Fatal("duplicate failed")
	}
	if copyW.ID == a.ID {
		t.Fatal("copy shares the original id")
	}
	if copyW.Position != (grid.Cell{X: 1 + board.DuplicateOffset, Y: 1 + board.DuplicateOffset}) {
		t.Fatalf("copy position = %+v", copyW.Position)
	}
	if c.Selected() != copyW.ID {
		t.Fatalf("selected = %q, want the copy", c.Selected())
	}
}

func TestSelectionNeverDangles(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	a := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 0, Y: 0})
	c := New(d)
	c.Select(a.ID)

	board.Remove(d, a.ID)
	if c.Selected() != "" {
		t.Fatalf("selected = %q after external removal", c.Selected())
	}
	if _, ok := c.SelectionHandles(); ok {
		t.Fatal("handles must vanish with the selection")
	}
}

func TestPressMidGestureIsIgnored(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	w := addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 2, Y: 3})
	c := New(d)

	c.PointerDown(grid.Pt{X: 50, Y: 70})
	if c.Mode() != GestureMove {
		t.Fatalf("mode = %v, want move", c.Mode())
	}

	// A second press on empty board mid-drag: the drag keeps pointer
	// ownership, selection holds, and the move still tracks the start point.
	c.PointerDown(grid.Pt{X: 500, Y: 500})
	if c.Mode() != GestureMove {
		t.Fatalf("mode after press mid-drag = %v, want move", c.Mode())
	}
	if c.Selected() != w.ID {
		t.Fatalf("selected = %q, want %q", c.Selected(), w.ID)
	}

	c.PointerMove(grid.Pt{X: 91, Y: 95}) // +41px, +25px from the first press
	if got := board.Find(d, w.ID).Position; got != (grid.Cell{X: 4, Y: 4}) {
		t.Fatalf("position = %+v, want {4 4}", got)
	}
	c.PointerUp(grid.Pt{X: 91, Y: 95})
	if c.Mode() != GestureNone {
		t.Fatalf("mode after release = %v, want idle", c.Mode())
	}
}

func TestPointerEventsWhileIdleAreNoops(t *testing.T) {
	d := board.NewDashboard("Ops Wall", "")
	addWidget(t, d, domain.WidgetMetric, grid.Cell{X: 0, Y: 0})
	d.HasUnsavedChanges = false
	c := New(d)

	c.PointerMove(grid.Pt{X: 40, Y: 10})
	c.PointerUp(grid.Pt{X: 40, Y: 10})
	c.CancelGesture()
	if d.HasUnsavedChanges {
		t.Fatal("idle pointer traffic must not dirty the dashboard")
	}
}
