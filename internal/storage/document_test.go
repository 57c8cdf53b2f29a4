package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gridboard/internal/board"
	"gridboard/internal/domain"
	"gridboard/internal/grid"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := board.NewDashboard("NOC Wall", "main wall")
	m, ok := board.Add(src, domain.WidgetMetric, grid.Cell{X: 0, Y: 0})
	if !ok {
		t.Fatalf("Add metric failed")
	}
	title := "Error Rate"
	board.Update(src, m.ID, board.Patch{
		Title:  &title,
		Config: domain.MetricConfig{Label: "errors", Unit: "%", Value: 1.5, Precision: 2},
	})
	l, ok := board.Add(src, domain.WidgetLineChart, grid.Cell{X: 4, Y: 0})
	if !ok {
		t.Fatalf("Add line-chart failed")
	}
	board.Update(src, l.ID, board.Patch{
		Config: domain.LineChartConfig{Series: []string{"2xx", "5xx"}, Range: "6h", ShowLegend: true},
	})

	data, err := ExportDocument(src)
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"id\"") {
		t.Fatalf("expected two-space indented document, got prefix %q", string(data[:16]))
	}

	got, err := ImportDocument(data)
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if got.ID == src.ID {
		t.Fatalf("import kept the source dashboard ID")
	}
	if got.Name != src.Name || got.Description != src.Description {
		t.Fatalf("name/description mismatch: %q %q", got.Name, got.Description)
	}
	if got.HasUnsavedChanges {
		t.Fatalf("imported dashboard should start clean")
	}
	if len(got.Widgets) != len(src.Widgets) {
		t.Fatalf("widget count: got %d want %d", len(got.Widgets), len(src.Widgets))
	}
	for i := range src.Widgets {
		sw, gw := src.Widgets[i], got.Widgets[i]
		if gw.ID == sw.ID {
			t.Fatalf("widget %d kept its source ID", i)
		}
		if gw.Type != sw.Type || gw.Title != sw.Title {
			t.Fatalf("widget %d type/title mismatch: %v %q", i, gw.Type, gw.Title)
		}
		if gw.Position != sw.Position || gw.Size != sw.Size {
			t.Fatalf("widget %d geometry mismatch: %+v %+v", i, gw.Position, gw.Size)
		}
		if !reflect.DeepEqual(gw.Config, sw.Config) {
			t.Fatalf("widget %d config mismatch: %#v vs %#v", i, gw.Config, sw.Config)
		}
	}
	// Source must be untouched by the export
	if src.Widgets[0].ID != m.ID {
		t.Fatalf("export mutated the source dashboard")
	}
}

func TestImportRejectsUnknownWidgetType(t *testing.T) {
	doc := `{
  "name": "Bad",
  "widgets": [
    {"type": "gauge", "position": {"x": 0, "y": 0}, "size": {"width": 2, "height": 2}}
  ]
}`
	_, err := ImportDocument([]byte(doc))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	_, err := ImportDocument([]byte("{ this is not json"))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestImportRejectsBadGeometry(t *testing.T) {
	doc := `{
  "name": "Bad",
  "widgets": [
    {"type": "metric", "position": {"x": -1, "y": 0}, "size": {"width": 0, "height": 2}}
  ]
}`
	_, err := ImportDocument([]byte(doc))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestImportFillsDefaults(t *testing.T) {
	doc := `{"name": "Minimal", "widgets": []}`
	got, err := ImportDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if got.Layout != domain.LayoutGrid {
		t.Fatalf("layout: got %q want %q", got.Layout, domain.LayoutGrid)
	}
	def := domain.DefaultGridSettings()
	if got.Settings.CellSize != def.CellSize || got.Settings.Columns != def.Columns {
		t.Fatalf("settings not defaulted: %+v", got.Settings)
	}
	if got.Widgets == nil {
		t.Fatalf("widgets slice should be non-nil")
	}
	if got.ID == "" || got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("identity/timestamps not minted: %+v", got)
	}
}

func TestImportKeepsExplicitSettings(t *testing.T) {
	doc := `{"name": "Tight", "widgets": [], "settings": {"cellSize": 16, "gutter": 0, "columns": 48}}`
	got, err := ImportDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if got.Settings.CellSize != 16 || got.Settings.Gutter != 0 || got.Settings.Columns != 48 {
		t.Fatalf("explicit settings not preserved: %+v", got.Settings)
	}
}

func TestWriteAndReadDocumentFile(t *testing.T) {
	src := board.NewDashboard("File Trip", "")
	if _, ok := board.Add(src, domain.WidgetLogViewer, grid.Cell{X: 1, Y: 2}); !ok {
		t.Fatalf("Add failed")
	}

	path := filepath.Join(t.TempDir(), "exports", "wall.json")
	if err := WriteDocumentFile(src, path); err != nil {
		t.Fatalf("WriteDocumentFile: %v", err)
	}
	got, err := ReadDocumentFile(path)
	if err != nil {
		t.Fatalf("ReadDocumentFile: %v", err)
	}
	if got.Name != "File Trip" || len(got.Widgets) != 1 || got.Widgets[0].Type != domain.WidgetLogViewer {
		t.Fatalf("file roundtrip mismatch: %+v", got)
	}
}
