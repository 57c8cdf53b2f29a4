/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// Widget configuration is a tagged union keyed by WidgetType: one concrete
// struct per type instead of an open key/value bag. On the wire each variant
// stays the flat "config" JSON object of the document format; decoding
// dispatches on the widget type and ignores unknown keys.

import (
	"encoding/json"
	"fmt"
)

// WidgetType identifies which renderer consumes a widget and which config
// variant it carries.
type WidgetType string

const (
	WidgetMetric     WidgetType = "metric"
	WidgetLineChart  WidgetType = "line-chart"
	WidgetBarChart   WidgetType = "bar-chart"
	WidgetPieChart   WidgetType = "pie-chart"
	WidgetTreemap    WidgetType = "treemap"
	WidgetAlertList  WidgetType = "alert-list"
	WidgetLogViewer  WidgetType = "log-viewer"
	WidgetPrediction WidgetType = "prediction"
)

// WidgetConfig is the per-type configuration variant.
type WidgetConfig interface {
	// Kind reports which widget type this config belongs to.
	Kind() WidgetType
	// Clone returns a deep copy.
	Clone() WidgetConfig
}

// MetricConfig configures a single-number metric tile.
type MetricConfig struct {
	Label     string  `json:"label,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Value     float64 `json:"value"`
	Precision int     `json:"precision,omitempty"`
}

func (c MetricConfig) Kind() WidgetType    { return WidgetMetric }
func (c MetricConfig) Clone() WidgetConfig { return c }

// LineChartConfig configures a time-series line chart.
type LineChartConfig struct {
	Series     []string `json:"series,omitempty"`
	Range      string   `json:"range,omitempty"` // e.g. "1h", "6h", "7d"
	ShowLegend bool     `json:"showLegend,omitempty"`
	Stacked    bool     `json:"stacked,omitempty"`
}

func (c LineChartConfig) Kind() WidgetType { return WidgetLineChart }
func (c LineChartConfig) Clone() WidgetConfig {
	c.Series = append([]string(nil), c.Series...)
	return c
}

// BarChartConfig configures a categorical bar chart.
type BarChartConfig struct {
	Dimension  string `json:"dimension,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Horizontal bool   `json:"horizontal,omitempty"`
}

func (c BarChartConfig) Kind() WidgetType    { return WidgetBarChart }
func (c BarChartConfig) Clone() WidgetConfig { return c }

// PieChartConfig configures a share-of-total chart.
type PieChartConfig struct {
	Dimension string `json:"dimension,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Donut     bool   `json:"donut,omitempty"`
}

func (c PieChartConfig) Kind() WidgetType    { return WidgetPieChart }
func (c PieChartConfig) Clone() WidgetConfig { return c }

// TreemapConfig configures a hierarchical treemap.
type TreemapConfig struct {
	Dimension string `json:"dimension,omitempty"`
	Depth     int    `json:"depth,omitempty"`
}

func (c TreemapConfig) Kind() WidgetType    { return WidgetTreemap }
func (c TreemapConfig) Clone() WidgetConfig { return c }

// AlertListConfig configures a rolling list of alerts.
type AlertListConfig struct {
	Severities []string `json:"severities,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

func (c AlertListConfig) Kind() WidgetType { return WidgetAlertList }
func (c AlertListConfig) Clone() WidgetConfig {
	c.Severities = append([]string(nil), c.Severities...)
	return c
}

// LogViewerConfig configures a live log tail.
type LogViewerConfig struct {
	Query string `json:"query,omitempty"`
	Tail  int    `json:"tail,omitempty"`
	Wrap  bool   `json:"wrap,omitempty"`
}

func (c LogViewerConfig) Kind() WidgetType    { return WidgetLogViewer }
func (c LogViewerConfig) Clone() WidgetConfig { return c }

// PredictionConfig configures an ML forecast panel.
type PredictionConfig struct {
	Model     string `json:"model,omitempty"`
	Horizon   string `json:"horizon,omitempty"` // e.g. "24h"
	ShowBands bool   `json:"showBands,omitempty"`
}

func (c PredictionConfig) Kind() WidgetType    { return WidgetPrediction }
func (c PredictionConfig) Clone() WidgetConfig { return c }

// KnownWidgetTypes lists the members of the config union in stable order.
func KnownWidgetTypes() []WidgetType {
	return []WidgetType{
		WidgetMetric,
		WidgetLineChart,
		WidgetBarChart,
		WidgetPieChart,
		WidgetTreemap,
		WidgetAlertList,
		WidgetLogViewer,
		WidgetPrediction,
	}
}

// DecodeConfig parses raw config JSON into the variant for t. A missing or
// null config yields the zero variant. Types outside the union are an error;
// documents carrying them do not have the expected shape.
func DecodeConfig(t WidgetType, raw json.RawMessage) (WidgetConfig, error) {
	decode := func(dst any) error {
		if len(raw) == 0 || string(raw) == "null" {
			return nil
		}
		return json.Unmarshal(raw, dst)
	}
	switch t {
	case WidgetMetric:
		var c MetricConfig
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case WidgetLineChart:
		var c LineChartConfig
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case WidgetBarChart:
		var c BarChartConfig
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case WidgetPieChart:
		var c PieChartConfig
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case WidgetTreemap:
		var c TreemapConfig
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case WidgetAlertList:
		var c AlertListConfig
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case WidgetLogViewer:
		var c LogViewerConfig
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	case WidgetPrediction:
		var c PredictionConfig
		if err := decode(&c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown widget type %q", t)
	}
}

// UnmarshalJSON decodes a widget, dispatching the config object on the
// widget type.
func (w *Widget) UnmarshalJSON(data []byte) error {
	type widgetAlias Widget
	aux := struct {
		*widgetAlias
		Config json.RawMessage `json:"config"`
	}{widgetAlias: (*widgetAlias)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	cfg, err := DecodeConfig(w.Type, aux.Config)
	if err != nil {
		return fmt.Errorf("widget %s: %w", w.ID, err)
	}
	w.Config = cfg
	return nil
}
