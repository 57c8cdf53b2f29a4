/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gridboard/internal/storage"
)

// SVGOptions controls SVG export behavior.
//   - DPI defines the physical pixel size; width/height attributes use pixels
//     derived from DPI.
//   - The coordinate system matches the board canvas (one unit = one board
//     pixel); a viewBox is provided to scale.
//
//nolint:revive // clarity is preferred
type SVGOptions struct {
	IncludeGuides bool
	DPI           int
	Boards        []string
}

// ExportBoardSVGFiles exports each selected dashboard as a separate SVG file.
// Files are named board-<n>-<slug>.svg under outDir or the project's exports.
func ExportBoardSVGFiles(ph *storage.ProjectHandle, outDir string, opt SVGOptions) error {
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

	for bi, d := range boards {
		cv := boardCanvas(d)
		pxW := int(math.Round(cv.W * scale))
		pxH := int(math.Round(cv.H * scale))

		var buf bytes.Buffer
		var werr error
		wf := func(format string, args ...any) {
			if werr != nil {
				return
			}
			_, werr = fmt.Fprintf(&buf, format, args...)
		}

		wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
		wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 %g %g\">\n", pxW, pxH, cv.W, cv.H)
		// Background white
		wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", cv.W, cv.H)

		// Sheet header
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"14\" font-weight=\"bold\" fill=\"#000\">%s</text>\n", cv.Pad, cv.Pad-6, escText(d.Name))
		if d.Description != "" {
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"9\" fill=\"#6e6e6e\">%s</text>\n", cv.Pad, cv.Pad+6, escText(d.Description))
		}

		if opt.IncludeGuides {
			for c := 0; c <= cv.Cols; c++ {
				x := cv.Pad + float64(c)*cv.Cell
				wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"#d2d2d7\" stroke-width=\"0.2\"/>\n", x, cv.Pad, x, cv.Pad+float64(cv.Rows)*cv.Cell)
			}
			for r := 0; r <= cv.Rows; r++ {
				y := cv.Pad + float64(r)*cv.Cell
				wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"#d2d2d7\" stroke-width=\"0.2\"/>\n", cv.Pad, y, cv.Pad+float64(cv.Cols)*cv.Cell, y)
			}
		}

		for i := range d.Widgets {
			w := &d.Widgets[i]
			r := cv.WidgetBox(w)
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"#f5f6fa\" stroke=\"#282832\" stroke-width=\"1\"/>\n", r.X, r.Y, r.W, r.H)
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"10\" font-weight=\"bold\" fill=\"#000\">%s</text>\n", r.X+4, r.Y+12, escText(w.Title))
			wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"7\" fill=\"#787882\">%s</text>\n", r.X+4, r.Y+r.H-4, escText(string(w.Type)))
		}

		wf("</svg>\n")

		if werr != nil {
			return fmt.Errorf("build svg: %w", werr)
		}

		name := filepath.Join(outDir, boardFileName(bi, d, "svg"))
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	}
	return nil
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
