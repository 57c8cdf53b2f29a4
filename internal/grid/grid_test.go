/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package grid

import "testing"

func TestCellAt_FloorDivision(t *testing.T) {
	cases := []struct {
		p    Pt
		cell float32
		want Cell
	}{
		{Pt{X: 0, Y: 0}, 20, Cell{0, 0}},
		{Pt{X: 19.9, Y: 19.9}, 20, Cell{0, 0}},
		{Pt{X: 20, Y: 40}, 20, Cell{1, 2}},
		{Pt{X: 205, Y: 61}, 20, Cell{10, 3}},
		// Negative pixels floor to negative cells; callers clamp, not the mapper.
		{Pt{X: -1, Y: -21}, 20, Cell{-1, -2}},
	}
	for _, c := range cases {
		if got := CellAt(c.p, c.cell); got != c.want {
			t.Fatalf("CellAt(%+v, %v) = %+v, want %+v", c.p, c.cell, got, c.want)
		}
	}
}

func TestPixelAt_RoundTripsCellOrigin(t *testing.T) {
	for _, c := range []Cell{{0, 0}, {1, 1}, {7, 3}, {23, 0}} {
		p := PixelAt(c, 20)
		if got := CellAt(p, 20); got != c {
			t.Fatalf("CellAt(PixelAt(%+v)) = %+v", c, got)
		}
	}
	if p := PixelAt(Cell{X: 4, Y: 2}, 20); p.X != 80 || p.Y != 40 {
		t.Fatalf("PixelAt = %+v, want {80 40}", p)
	}
}

func TestDeltaCells_SubCellMovementIsZero(t *testing.T) {
	for _, d := range []float32{0, 1, 10, 19.5, -1, -10, -19.5} {
		dx, dy := DeltaCells(d, d, 20)
		if dx != 0 || dy != 0 {
			t.Fatalf("DeltaCells(%v) = %d,%d, want 0,0", d, dx, dy)
		}
	}
}

func TestDeltaCells_WholeCells(t *testing.T) {
	cases := []struct {
		d      float32
		expect int
	}{
		{20, 1}, {39.9, 1}, {40, 2}, {-20, -1}, {-39.9, -1}, {-41, -2},
	}
	for _, c := range cases {
		dx, _ := DeltaCells(c.d, 0, 20)
		if dx != c.expect {
			t.Fatalf("DeltaCells(%v) = %d, want %d", c.d, dx, c.expect)
		}
	}
}

func TestCellRect(t *testing.T) {
	r := CellRect(Cell{X: 2, Y: 1}, Extent{Width: 4, Height: 2}, 20)
	want := Rect{X: 40, Y: 20, W: 80, H: 40}
	if r != want {
		t.Fatalf("CellRect = %+v, want %+v", r, want)
	}
}

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 10, 100, 50)
	if !r.Contains(Pt{X: 10, Y: 10}) || !r.Contains(Pt{X: 110, Y: 60}) {
		t.Fatalf("expected corners contained")
	}
	if r.Contains(Pt{X: 9.9, Y: 10}) {
		t.Fatalf("point left of rect should not be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 15 || in.W != 90 || in.H != 40 {
		t.Fatalf("Inset = %+v", in)
	}
}

func TestHandleRects_CenteredOnCorners(t *testing.T) {
	r := R(100, 100, 80, 40)
	hs := HandleRects(r)
	h := HandleSize
	wants := [4]Pt{
		{X: 100, Y: 100}, // NW
		{X: 180, Y: 100}, // NE
		{X: 100, Y: 140}, // SW
		{X: 180, Y: 140}, // SE
	}
	for i, want := range wants {
		got := hs[i]
		if got.X != want.X-h/2 || got.Y != want.Y-h/2 || got.W != h || got.H != h {
			t.Fatalf("handle %d = %+v, want centered on %+v", i, got, want)
		}
		if !got.Contains(want) {
			t.Fatalf("handle %d does not contain its corner", i)
		}
	}
}

func TestUnion(t *testing.T) {
	u := R(0, 0, 10, 10).Union(R(20, 5, 10, 10))
	if u.X != 0 || u.Y != 0 || u.W != 30 || u.H != 15 {
		t.Fatalf("Union = %+v", u)
	}
}
