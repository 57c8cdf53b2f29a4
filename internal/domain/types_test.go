package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gridboard/internal/grid"
)

func TestProjectJSONRoundTrip(t *testing.T) {
	p := Project{
		Name: "RoundTrip",
		Dashboards: []Dashboard{
			{
				ID:       "d1",
				Name:     "Ops",
				Layout:   LayoutGrid,
				Settings: DefaultGridSettings(),
				Widgets: []Widget{
					{
						ID:       "w1",
						Type:     WidgetMetric,
						Title:    "Error Rate",
						Position: grid.Cell{X: 1, Y: 1},
						Size:     grid.Extent{Width: 4, Height: 2},
						Config:   MetricConfig{Unit: "%", Value: 1.5},
					},
				},
			},
		},
	}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Project
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != p.Name {
		t.Fatalf("name mismatch: got %q want %q", got.Name, p.Name)
	}
	if len(got.Dashboards) != 1 || len(got.Dashboards[0].Widgets) != 1 {
		t.Fatalf("unexpected dashboards/widgets structure: %+v", got)
	}
	w := got.Dashboards[0].Widgets[0]
	cfg, ok := w.Config.(MetricConfig)
	if !ok {
		t.Fatalf("config decoded as %T, want MetricConfig", w.Config)
	}
	if cfg.Value != 1.5 || cfg.Unit != "%" {
		t.Fatalf("config values lost: %+v", cfg)
	}
}

func TestWidgetJSONUsesDocumentFieldNames(t *testing.T) {
	w := Widget{
		ID:       "w1",
		Type:     WidgetLineChart,
		Title:    "Requests",
		Position: grid.Cell{X: 2, Y: 3},
		Size:     grid.Extent{Width: 8, Height: 5},
		Config:   LineChartConfig{Series: []string{"2xx", "5xx"}, Range: "6h"},
	}
	b, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, key := range []string{`"id"`, `"type"`, `"title"`, `"position"`, `"size"`, `"config"`, `"lastUpdated"`, `"x":2`, `"y":3`, `"width":8`, `"height":5`} {
		if !strings.Contains(s, key) {
			t.Fatalf("serialized widget missing %s: %s", key, s)
		}
	}
}

func TestDecodeConfigDispatchesOnType(t *testing.T) {
	raw := json.RawMessage(`{"query":"status:500","tail":200,"wrap":true}`)
	cfg, err := DecodeConfig(WidgetLogViewer, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lv, ok := cfg.(LogViewerConfig)
	if !ok {
		t.Fatalf("got %T", cfg)
	}
	if lv.Query != "status:500" || lv.Tail != 200 || !lv.Wrap {
		t.Fatalf("decoded %+v", lv)
	}
}

func TestDecodeConfigUnknownTypeFails(t *testing.T) {
	if _, err := DecodeConfig(WidgetType("gauge-cluster"), nil); err == nil {
		t.Fatalf("expected error for type outside the union")
	}
}

func TestDecodeConfigEmptyAndNull(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null")} {
		cfg, err := DecodeConfig(WidgetMetric, raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := cfg.(MetricConfig); !ok {
			t.Fatalf("got %T", cfg)
		}
	}
}

func TestWidgetUnmarshalIgnoresUnknownConfigKeys(t *testing.T) {
	data := []byte(`{"id":"w9","type":"metric","title":"CPU","position":{"x":0,"y":0},"size":{"width":4,"height":2},"config":{"value":42,"sparkline":true}}`)
	var w Widget
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg := w.Config.(MetricConfig)
	if cfg.Value != 42 {
		t.Fatalf("value = %v", cfg.Value)
	}
}

func TestWidgetCloneIsDeep(t *testing.T) {
	w := Widget{
		ID:          "w1",
		Type:        WidgetAlertList,
		Config:      AlertListConfig{Severities: []string{"critical", "warning"}, Limit: 10},
		LastUpdated: time.Now(),
	}
	c := w.Clone()
	cc := c.Config.(AlertListConfig)
	cc.Severities[0] = "info"
	if w.Config.(AlertListConfig).Severities[0] != "critical" {
		t.Fatalf("clone shares severity slice with original")
	}
}
