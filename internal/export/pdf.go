/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gridboard/internal/domain"
	"gridboard/internal/storage"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt); one board pixel maps to one point.
// Vector text is used throughout; we rely on built-in Helvetica for portability.
//
// Coordinates:
// - Page origin is top-left, matching the board canvas.
// - One page per dashboard; the page size is the dashboard's canvas extent.
// - Guides, when enabled, draw the cell grid as hairlines behind the widgets.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	IncludeGuides bool
	Boards        []string // dashboard IDs or names; if empty, export all
}

// ExportBoardPDF exports the project's dashboards to a single multi-page PDF
// placed at outPath, one layout sheet per dashboard.
func ExportBoardPDF(ph *storage.ProjectHandle, outPath string, opt PDFOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	boards := selectBoards(ph, opt.Boards)
	if len(boards) == 0 {
		return fmt.Errorf("no dashboards to export")
	}

	first := boardCanvas(boards[0])
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: first.W, Ht: first.H},
		// Orientation follows the page size
		OrientationStr: "",
	})
	pdf.SetTitle(fmt.Sprintf("%s — Layout Sheets", ph.Project.Name), false)
	pdf.SetAuthor("GridBoard", false)
	pdf.SetFont("Helvetica", "", 12)

	for _, d := range boards {
		cv := boardCanvas(d)
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: cv.W, Ht: cv.H})

		// Sheet header: board name top-left, description underneath
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Text(cv.Pad, cv.Pad-6, d.Name)
		if d.Description != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetTextColor(110, 110, 110)
			pdf.Text(cv.Pad, cv.Pad+6, d.Description)
		}

		if opt.IncludeGuides {
			pdf.SetDrawColor(210, 210, 215)
			pdf.SetLineWidth(0.2)
			for c := 0; c <= cv.Cols; c++ {
				x := cv.Pad + float64(c)*cv.Cell
				pdf.Line(x, cv.Pad, x, cv.Pad+float64(cv.Rows)*cv.Cell)
			}
			for r := 0; r <= cv.Rows; r++ {
				y := cv.Pad + float64(r)*cv.Cell
				pdf.Line(cv.Pad, y, cv.Pad+float64(cv.Cols)*cv.Cell, y)
			}
		}

		for i := range d.Widgets {
			w := &d.Widgets[i]
			r := cv.WidgetBox(w)

			pdf.SetFillColor(245, 246, 250)
			pdf.SetDrawColor(40, 40, 50)
			pdf.SetLineWidth(1)
			pdf.Rect(r.X, r.Y, r.W, r.H, "FD")

			// Title inside the top edge, type tag along the bottom
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Helvetica", "B", 10)
			pdf.Text(r.X+4, r.Y+12, w.Title)
			pdf.SetFont("Helvetica", "", 7)
			pdf.SetTextColor(120, 120, 130)
			pdf.Text(r.X+4, r.Y+r.H-4, string(w.Type))
		}
	}

	// Ensure output path is under project exports folder if relative
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// canvas holds the derived pixel geometry of one dashboard sheet.
// Pad is the outer margin reserved for the sheet header and breathing room.
type canvas struct {
	Cell   float64
	Gutter float64
	Cols   int
	Rows   int
	Pad    float64
	W, H   float64
}

// rect is a plain float rectangle in sheet coordinates.
type rect struct{ X, Y, W, H float64 }

const (
	sheetPad = 24.0
	// minRows keeps near-empty dashboards from rendering as a sliver.
	minRows = 12
)

// boardCanvas derives the sheet geometry for a dashboard: the configured
// column count wide, and deep enough for the lowest widget plus one spare row.
func boardCanvas(d *domain.Dashboard) canvas {
	def := domain.DefaultGridSettings()
	cell := float64(d.Settings.CellSize)
	if cell <= 0 {
		cell = float64(def.CellSize)
	}
	cols := d.Settings.Columns
	if cols <= 0 {
		cols = def.Columns
	}
	rows := minRows
	for i := range d.Widgets {
		if bottom := d.Widgets[i].Position.Y + d.Widgets[i].Size.Height + 1; bottom > rows {
			rows = bottom
		}
	}
	return canvas{
		Cell:   cell,
		Gutter: float64(d.Settings.Gutter),
		Cols:   cols,
		Rows:   rows,
		Pad:    sheetPad,
		W:      sheetPad*2 + float64(cols)*cell,
		H:      sheetPad*2 + float64(rows)*cell,
	}
}

// WidgetBox returns the widget's drawn rectangle: its cell rect inset by half
// the gutter so adjacent widgets keep visible separation.
func (cv canvas) WidgetBox(w *domain.Widget) rect {
	g := cv.Gutter / 2
	return rect{
		X: cv.Pad + float64(w.Position.X)*cv.Cell + g,
		Y: cv.Pad + float64(w.Position.Y)*cv.Cell + g,
		W: float64(w.Size.Width)*cv.Cell - 2*g,
		H: float64(w.Size.Height)*cv.Cell - 2*g,
	}
}

// selectBoards resolves the requested dashboards by ID or name; an empty
// request means all of them. Unknown entries are skipped.
func selectBoards(ph *storage.ProjectHandle, want []string) []*domain.Dashboard {
	if len(want) == 0 {
		out := make([]*domain.Dashboard, 0, len(ph.Project.Dashboards))
		for i := range ph.Project.Dashboards {
			out = append(out, &ph.Project.Dashboards[i])
		}
		return out
	}
	var out []*domain.Dashboard
	for _, sel := range want {
		if d := storage.FindDashboard(ph, sel); d != nil {
			out = append(out, d)
		}
	}
	return out
}

// boardFileName builds a per-dashboard output file name: a 1-based sheet
// number plus a slug of the board name.
func boardFileName(i int, d *domain.Dashboard, ext string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, d.Name)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "board"
	}
	return fmt.Sprintf("board-%d-%s.%s", i+1, slug, ext)
}
