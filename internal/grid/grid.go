/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package grid

// Pixel/grid-cell geometry for the board canvas. Pixel values use float32 to
// align with UI libs; cell coordinates and extents are integers.

import "math"

// Pt is a 2D point in pixels.
type Pt struct{ X, Y float32 }

// Rect is an axis-aligned pixel rectangle defined by min corner and size.
type Rect struct {
	X, Y float32
	W, H float32
}

func R(x, y, w, h float32) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := min32(r.X, o.X)
	minY := min32(r.Y, o.Y)
	maxX := max32(r.X+r.W, o.X+o.W)
	maxY := max32(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Cell is an integer grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Extent is an integer grid width/height.
type Extent struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CellAt maps an absolute pixel point to the grid cell containing it using
// floor division. Negative pixel coordinates map to negative cells; clamping
// is the caller's concern, not the mapper's.
func CellAt(p Pt, cellSize float32) Cell {
	if cellSize <= 0 {
		return Cell{}
	}
	return Cell{
		X: int(math.Floor(float64(p.X / cellSize))),
		Y: int(math.Floor(float64(p.Y / cellSize))),
	}
}

// PixelAt maps a grid cell to the pixel position of its top-left corner.
func PixelAt(c Cell, cellSize float32) Pt {
	return Pt{X: float32(c.X) * cellSize, Y: float32(c.Y) * cellSize}
}

// DeltaCells quantizes a pixel delta into whole cells, truncating toward
// zero: a movement smaller than one cell in either direction yields 0.
func DeltaCells(dx, dy, cellSize float32) (int, int) {
	if cellSize <= 0 {
		return 0, 0
	}
	return int(dx / cellSize), int(dy / cellSize)
}

// CellRect returns the pixel rectangle covered by a placement of the given
// extent at the given cell.
func CellRect(c Cell, e Extent, cellSize float32) Rect {
	o := PixelAt(c, cellSize)
	return Rect{X: o.X, Y: o.Y, W: float32(e.Width) * cellSize, H: float32(e.Height) * cellSize}
}

// HandleSize is the edge length in pixels of a corner resize handle.
const HandleSize float32 = 8

// HandleRects returns the four corner handle boxes of r, centered on its
// corners, in NW, NE, SW, SE order.
func HandleRects(r Rect) [4]Rect {
	h := HandleSize
	return [4]Rect{
		R(r.X-h/2, r.Y-h/2, h, h),         // NW
		R(r.X+r.W-h/2, r.Y-h/2, h, h),     // NE
		R(r.X-h/2, r.Y+r.H-h/2, h, h),     // SW
		R(r.X+r.W-h/2, r.Y+r.H-h/2, h, h), // SE
	}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
