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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gridboard/internal/storage"
)

// PNGOptions controls PNG export behavior.
// - DPI: when > 0 overrides the default 96 for output pixel size
// - IncludeGuides: draw the cell grid similar to PDF
// - Boards: dashboard IDs or names; empty means all
//
//nolint:revive // clarity is preferred
type PNGOptions struct {
	IncludeGuides bool
	DPI           int
	Boards        []string
}

// ExportBoardPNGFiles exports each selected dashboard as a separate PNG file.
// Output files are named board-<n>-<slug>.png under outDir, resolved against
// the project's exports folder when relative.
func ExportBoardPNGFiles(ph *storage.ProjectHandle, outDir string, opt PNGOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	boards := selectBoards(ph, opt.Boards)
	if len(boards) == 0 {
		return fmt.Errorf("no dashboards to export")
	}

	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 96
	}
	scale := float64(dpi) / 96.0

	// Resolve output directory
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(ph.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	guideCol := color.RGBA{210, 210, 215, 255}
	boxFill := color.RGBA{245, 246, 250, 255}
	boxStroke := color.RGBA{40, 40, 50, 255}
	titleCol := color.RGBA{0, 0, 0, 255}
	tagCol := color.RGBA{120, 120, 130, 255}

	for bi, d := range boards {
		cv := boardCanvas(d)
		pixW := int(math.Round(cv.W * scale))
		pixH := int(math.Round(cv.H * scale))
		px := func(v float64) int { return int(math.Round(v * scale)) }

		img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
		// Background white
		draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

		drawLabel(img, px(cv.Pad), px(cv.Pad)-6, d.Name, titleCol)

		if opt.IncludeGuides {
			for c := 0; c <= cv.Cols; c++ {
				x := px(cv.Pad + float64(c)*cv.Cell)
				vline(img, x, px(cv.Pad), px(cv.Pad+float64(cv.Rows)*cv.Cell), guideCol)
			}
			for r := 0; r <= cv.Rows; r++ {
				y := px(cv.Pad + float64(r)*cv.Cell)
				hline(img, px(cv.Pad), px(cv.Pad+float64(cv.Cols)*cv.Cell), y, guideCol)
			}
		}

		for i := range d.Widgets {
			w := &d.Widgets[i]
			r := cv.WidgetBox(w)
			x0, y0 := px(r.X), px(r.Y)
			x1, y1 := px(r.X+r.W)-1, px(r.Y+r.H)-1
			fillRect(img, x0, y0, x1, y1, boxFill)
			strokeRect(img, x0, y0, x1, y1, boxStroke)
			drawLabel(img, x0+4, y0+14, w.Title, titleCol)
			drawLabel(img, x0+4, y1-3, string(w.Type), tagCol)
		}

		name := filepath.Join(outDir, boardFileName(bi, d, "png"))
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close png: %w", err)
		}
	}
	return nil
}

// drawLabel renders s with the built-in 7x13 bitmap face; y is the baseline.
func drawLabel(img *image.RGBA, x, y int, s string, col color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	// top and bottom
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	// left and right
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func hline(img *image.RGBA, x0, x1, y int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, col)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, col color.RGBA) {
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, col)
	}
}
