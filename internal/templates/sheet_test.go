/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package templates

import (
	"os"
	"path/filepath"
	"testing"

	"gridboard/internal/domain"
	"gridboard/internal/grid"
)

func TestParseSheetBasic(t *testing.T) {
	input := `# NOC Wall
desc: Everything on one screen

; units are grid cells
metric "Error Rate" 4x2 unit=% precision=2
line-chart "Requests" 8x5 series=2xx,5xx range=6h legend

Template: Side Strip
metric "CPU" 4x2`

	ts, errs := ParseSheet(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if len(ts) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(ts))
	}
	if ts[0].Name != "NOC Wall" || ts[0].Description != "Everything on one screen" {
		t.Fatalf("template 1 header: %+v", ts[0])
	}
	if len(ts[0].Widgets) != 2 {
		t.Fatalf("expected 2 widgets, got %d", len(ts[0].Widgets))
	}
	m := ts[0].Widgets[0]
	if m.Type != domain.WidgetMetric || m.Title != "Error Rate" || m.Size != (grid.Extent{Width: 4, Height: 2}) {
		t.Fatalf("metric blueprint: %+v", m)
	}
	mc := m.Config.(domain.MetricConfig)
	if mc.Unit != "%" || mc.Precision != 2 {
		t.Fatalf("metric config: %+v", mc)
	}
	lc := ts[0].Widgets[1].Config.(domain.LineChartConfig)
	if len(lc.Series) != 2 || lc.Series[0] != "2xx" || lc.Range != "6h" || !lc.ShowLegend {
		t.Fatalf("line chart config: %+v", lc)
	}
	if ts[1].Name != "Side Strip" || len(ts[1].Widgets) != 1 {
		t.Fatalf("template 2: %+v", ts[1])
	}
}

func TestParseSheetDefaultSizeFromRegistry(t *testing.T) {
	ts, errs := ParseSheet("# T\nlog-viewer \"Tail\" tail=500")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	bp := ts[0].Widgets[0]
	if bp.Size != (grid.Extent{Width: 12, Height: 6}) {
		t.Fatalf("size = %+v, want registry default", bp.Size)
	}
	if bp.Config.(domain.LogViewerConfig).Tail != 500 {
		t.Fatalf("config = %+v", bp.Config)
	}
}

func TestParseSheetDiagnostics(t *testing.T) {
	input := `metric "Orphan" 4x2
# T
gauge "Bad Type" 2x2
metric "Bad Option" 4x2 sparkle=yes
this line is noise`

	ts, errs := ParseSheet(input)
	if len(ts) != 1 {
		t.Fatalf("expected 1 template, got %d", len(ts))
	}
	// Orphan widget, unknown type, unknown option, noise line: 4 diagnostics.
	if len(errs) != 4 {
		t.Fatalf("expected 4 diagnostics, got %+v", errs)
	}
	if errs[0].Line != 1 || errs[1].Line != 3 || errs[2].Line != 4 || errs[3].Line != 5 {
		t.Fatalf("diagnostic lines: %+v", errs)
	}
	// The widget with the bad option is still kept, option ignored.
	if len(ts[0].Widgets) != 1 || ts[0].Widgets[0].Title != "Bad Option" {
		t.Fatalf("widgets: %+v", ts[0].Widgets)
	}
}

func TestParseSheetClampsZeroSize(t *testing.T) {
	ts, _ := ParseSheet("# T\nmetric \"Tiny\" 0x0")
	if ts[0].Widgets[0].Size != (grid.Extent{Width: 1, Height: 1}) {
		t.Fatalf("size = %+v", ts[0].Widgets[0].Size)
	}
}

func TestLoadProjectSheets(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "templates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	sheet := "# From Disk\nmetric \"M\" 4x2\nbroken line here\n"
	if err := os.WriteFile(filepath.Join(dir, "wall.board"), []byte(sheet), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Non-sheet files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ts, diags, err := LoadProjectSheets(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ts) != 1 || ts[0].Name != "From Disk" {
		t.Fatalf("templates: %+v", ts)
	}
	if len(diags) != 1 {
		t.Fatalf("expected diagnostics for the broken line, got %+v", diags)
	}
}

func TestLoadProjectSheetsMissingDir(t *testing.T) {
	ts, diags, err := LoadProjectSheets(t.TempDir())
	if err != nil || ts != nil || diags != nil {
		t.Fatalf("missing dir must be empty result, got %v %v %v", ts, diags, err)
	}
}
