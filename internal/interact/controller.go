/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact runs the pointer gesture state machine for a dashboard
// canvas: selection, widget dragging, corner resizing, library drops and the
// context menu, all in board pixel space. It owns no rendering; the UI layer
// feeds it pointer events and draws from its state.
package interact

import (
	"encoding/json"

	"gridboard/internal/board"
	"gridboard/internal/domain"
	"gridboard/internal/grid"
)

// Gesture is the controller's current pointer interaction kind.
// GestureNone: idle; GestureMove: dragging the selected widget;
// GestureResize*: dragging one of the four corner handles.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureMove
	GestureResizeNW
	GestureResizeNE
	GestureResizeSW
	GestureResizeSE
)

// LibraryPayload is the wire form of a palette drag. Only payloads with
// Type == "widget" are accepted by DropFromLibrary.
type LibraryPayload struct {
	Type       string            `json:"type"`
	WidgetType domain.WidgetType `json:"widgetType"`
}

// Controller drives gestures for one dashboard. All coordinates are board
// pixels; the canvas converts from screen space before calling in.
// Not safe for concurrent use.
type Controller struct {
	dash *domain.Dashboard

	mode     Gesture
	selected string
	menuFor  string

	// Gesture start state. Position and size are applied relative to these,
	// never incrementally, so quantization cannot drift over a long drag.
	startPt   grid.Pt
	startPos  grid.Cell
	startSize grid.Extent

	// OnChange, when set, runs after every document mutation the controller
	// makes. Selection and menu changes do not fire it.
	OnChange func()
}

// New returns an idle controller for the given dashboard.
func New(d *domain.Dashboard) *Controller {
	return &Controller{dash: d}
}

// Dashboard returns the dashboard this controller edits.
func (c *Controller) Dashboard() *domain.Dashboard { return c.dash }

// Mode reports the gesture in progress, GestureNone when idle.
func (c *Controller) Mode() Gesture { return c.mode }

func (c *Controller) cellSize() float32 {
	if c.dash.Settings.CellSize > 0 {
		return float32(c.dash.Settings.CellSize)
	}
	return float32(domain.DefaultGridSettings().CellSize)
}

// Selected returns the selected widget ID, or "" when nothing is selected.
// A selection whose widget no longer exists is cleared on read, so the
// selection never dangles after removals made behind the controller's back.
func (c *Controller) Selected() string {
	if c.selected != "" && board.Find(c.dash, c.selected) == nil {
		c.selected = ""
	}
	return c.selected
}

// Select makes the given widget the selection, replacing any previous one.
// It reports false for IDs the dashboard does not contain.
func (c *Controller) Select(id string) bool {
	if board.Find(c.dash, id) == nil {
		return false
	}
	c.selected = id
	return true
}

// ClearSelection deselects without touching the document.
func (c *Controller) ClearSelection() { c.selected = "" }

// MenuFor returns the widget ID whose context menu is open, or "".
func (c *Controller) MenuFor() string {
	if c.menuFor != "" && board.Find(c.dash, c.menuFor) == nil {
		c.menuFor = ""
	}
	return c.menuFor
}

// OpenMenu opens the context menu for the given widget and selects it.
// At most one menu is open at a time; opening a second closes the first.
// Unknown IDs report false and leave any open menu alone.
func (c *Controller) OpenMenu(id string) bool {
	if board.Find(c.dash, id) == nil {
		return false
	}
	c.menuFor = id
	c.selected = id
	return true
}

// CloseMenu dismisses the open context menu, if any.
func (c *Controller) CloseMenu() { c.menuFor = "" }

// WidgetRect returns the widget's pixel rectangle on the board.
func (c *Controller) WidgetRect(id string) (grid.Rect, bool) {
	w := board.Find(c.dash, id)
	if w == nil {
		return grid.Rect{}, false
	}
	return grid.CellRect(w.Position, w.Size, c.cellSize()), true
}

// SelectionHandles returns the four corner handle boxes of the selection in
// NW, NE, SW, SE order. Handles exist only while something is selected.
func (c *Controller) SelectionHandles() ([4]grid.Rect, bool) {
	id := c.Selected()
	if id == "" {
		return [4]grid.Rect{}, false
	}
	r, ok := c.WidgetRect(id)
	if !ok {
		return [4]grid.Rect{}, false
	}
	return grid.HandleRects(r), true
}

// HitTest returns the topmost widget at the given point, or "". Widgets
// later in the collection draw above earlier ones.
func (c *Controller) HitTest(p grid.Pt) string {
	cs := c.cellSize()
	for i := len(c.dash.Widgets) - 1; i >= 0; i-- {
		w := &c.dash.Widgets[i]
		if grid.CellRect(w.Position, w.Size, cs).Contains(p) {
			return w.ID
		}
	}
	return ""
}

// handleAt returns the resize gesture for the selection handle containing p,
// or GestureNone. A resize never starts from an unselected widget's corner.
func (c *Controller) handleAt(p grid.Pt) Gesture {
	hs, ok := c.SelectionHandles()
	if !ok {
		return GestureNone
	}
	modes := [4]Gesture{GestureResizeNW, GestureResizeNE, GestureResizeSW, GestureResizeSE}
	for i, h := range hs {
		if h.Contains(p) {
			return modes[i]
		}
	}
	return GestureNone
}

// PointerDown begins a gesture. A press on a handle of the selection starts
// a resize; a press on a widget body selects it and starts a move; a press
// on empty board clears the selection. Any open context menu closes first
// and the press still lands. A press while a gesture is already in flight
// is ignored; the active gesture keeps pointer ownership until release or
// capture loss.
func (c *Controller) PointerDown(p grid.Pt) {
	if c.mode != GestureNone {
		return
	}
	c.menuFor = ""
	if m := c.handleAt(p); m != GestureNone {
		c.begin(m, p, c.selected)
		return
	}
	if id := c.HitTest(p); id != "" {
		c.selected = id
		c.begin(GestureMove, p, id)
		return
	}
	c.selected = ""
	c.mode = GestureNone
}

func (c *Controller) begin(m Gesture, p grid.Pt, id string) {
	w := board.Find(c.dash, id)
	if w == nil {
		c.mode = GestureNone
		return
	}
	c.mode = m
	c.startPt = p
	c.startPos = w.Position
	c.startSize = w.Size
}

// PointerMove applies the gesture in progress at the new pointer position.
// Moves and resizes update the widget live; pointer travel is quantized to
// whole cells, so a drag under one cell leaves the widget untouched.
func (c *Controller) PointerMove(p grid.Pt) {
	if c.mode == GestureNone {
		return
	}
	id := c.Selected()
	if id == "" {
		c.mode = GestureNone
		return
	}
	dx, dy := grid.DeltaCells(p.X-c.startPt.X, p.Y-c.startPt.Y, c.cellSize())

	pos, size := c.startPos, c.startSize
	switch c.mode {
	case GestureMove:
		pos = grid.Cell{X: max(c.startPos.X+dx, 0), Y: max(c.startPos.Y+dy, 0)}
	default:
		pos, size = resizeRect(c.mode, c.startPos, c.startSize, dx, dy)
	}

	w := board.Find(c.dash, id)
	if w.Position == pos && w.Size == size {
		return
	}
	board.Update(c.dash, id, board.Patch{Position: &pos, Size: &size})
	if c.OnChange != nil {
		c.OnChange()
	}
}

// PointerUp finishes the gesture. Updates were applied live, so release only
// applies the final pointer position and returns the machine to idle.
func (c *Controller) PointerUp(p grid.Pt) {
	if c.mode == GestureNone {
		return
	}
	c.PointerMove(p)
	c.mode = GestureNone
}

// CancelGesture ends the gesture in progress without undoing it. Losing
// pointer capture mid-drag keeps the last applied geometry rather than
// snapping the widget back to where it started.
func (c *Controller) CancelGesture() {
	c.mode = GestureNone
}

// resizeRect produces the placement for a corner resize. The corner opposite
// the handle stays fixed; the result never shrinks below one cell on either
// axis and never crosses the board origin.
func resizeRect(m Gesture, pos grid.Cell, size grid.Extent, dx, dy int) (grid.Cell, grid.Extent) {
	x, y := pos.X, pos.Y
	w, h := size.Width, size.Height
	switch m {
	case GestureResizeNW:
		w -= dx
		h -= dy
	case GestureResizeNE:
		w += dx
		h -= dy
	case GestureResizeSW:
		w -= dx
		h += dy
	case GestureResizeSE:
		w += dx
		h += dy
	}
	w = max(w, 1)
	h = max(h, 1)
	switch m {
	case GestureResizeNW, GestureResizeSW:
		x = pos.X + size.Width - w
	}
	switch m {
	case GestureResizeNW, GestureResizeNE:
		y = pos.Y + size.Height - h
	}
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	return grid.Cell{X: x, Y: y}, grid.Extent{Width: w, Height: h}
}

// DropFromLibrary accepts a palette drag payload dropped at p and adds the
// widget it names at the cell under the pointer, selecting it. Payloads that
// are not widget drags and widget types the registry does not know are
// ignored.
func (c *Controller) DropFromLibrary(data []byte, p grid.Pt) (domain.Widget, bool) {
	var pl LibraryPayload
	if err := json.Unmarshal(data, &pl); err != nil || pl.Type != "widget" {
		return domain.Widget{}, false
	}
	w, ok := board.Add(c.dash, pl.WidgetType, grid.CellAt(p, c.cellSize()))
	if !ok {
		return domain.Widget{}, false
	}
	c.selected = w.ID
	if c.OnChange != nil {
		c.OnChange()
	}
	return w, true
}

// RemoveSelected deletes the selected widget, clearing the selection and any
// menu open for it.
func (c *Controller) RemoveSelected() bool {
	id := c.Selected()
	if id == "" {
		return false
	}
	if !board.Remove(c.dash, id) {
		return false
	}
	c.selected = ""
	if c.menuFor == id {
		c.menuFor = ""
	}
	c.mode = GestureNone
	if c.OnChange != nil {
		c.OnChange()
	}
	return true
}

// DuplicateSelected copies the selected widget and moves the selection to
// the copy.
func (c *Controller) DuplicateSelected() (domain.Widget, bool) {
	id := c.Selected()
	if id == "" {
		return domain.Widget{}, false
	}
	w, ok := board.Duplicate(c.dash, id)
	if !ok {
		return domain.Widget{}, false
	}
	c.selected = w.ID
	if c.OnChange != nil {
		c.OnChange()
	}
	return w, true
}
