/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package registry is the immutable widget-type lookup table: default size,
// default configuration and display metadata per type. It is populated once
// at process start and exposes no write operations.
package registry

import (
	"gridboard/internal/domain"
	"gridboard/internal/grid"
)

// Entry is the immutable definition of one widget type.
type Entry struct {
	Type        domain.WidgetType
	Name        string
	Description string
	Icon        string
	DefaultSize grid.Extent
	// NewConfig returns a fresh default config variant for this type.
	NewConfig func() domain.WidgetConfig
}

var entries = []Entry{
	{
		Type:        domain.WidgetMetric,
		Name:        "Metric",
		Description: "Single number with unit and label",
		Icon:        "gauge",
		DefaultSize: grid.Extent{Width: 4, Height: 2},
		NewConfig:   func() domain.WidgetConfig { return domain.MetricConfig{Precision: 1} },
	},
	{
		Type:        domain.WidgetLineChart,
		Name:        "Line Chart",
		Description: "Time series over a selectable range",
		Icon:        "chart-line",
		DefaultSize: grid.Extent{Width: 8, Height: 5},
		NewConfig:   func() domain.WidgetConfig { return domain.LineChartConfig{Range: "6h", ShowLegend: true} },
	},
	{
		Type:        domain.WidgetBarChart,
		Name:        "Bar Chart",
		Description: "Top values of a dimension",
		Icon:        "chart-bar",
		DefaultSize: grid.Extent{Width: 8, Height: 5},
		NewConfig:   func() domain.WidgetConfig { return domain.BarChartConfig{Limit: 10} },
	},
	{
		Type:        domain.WidgetPieChart,
		Name:        "Pie Chart",
		Description: "Share of total by dimension",
		Icon:        "chart-pie",
		DefaultSize: grid.Extent{Width: 6, Height: 5},
		NewConfig:   func() domain.WidgetConfig { return domain.PieChartConfig{Limit: 6} },
	},
	{
		Type:        domain.WidgetTreemap,
		Name:        "Treemap",
		Description: "Hierarchical share by dimension",
		Icon:        "treemap",
		DefaultSize: grid.Extent{Width: 8, Height: 6},
		NewConfig:   func() domain.WidgetConfig { return domain.TreemapConfig{Depth: 2} },
	},
	{
		Type:        domain.WidgetAlertList,
		Name:        "Alert List",
		Description: "Most recent alerts by severity",
		Icon:        "bell",
		DefaultSize: grid.Extent{Width: 6, Height: 6},
		NewConfig:   func() domain.WidgetConfig { return domain.AlertListConfig{Severities: []string{"critical", "warning"}, Limit: 20} },
	},
	{
		Type:        domain.WidgetLogViewer,
		Name:        "Log Viewer",
		Description: "Live tail of matching log lines",
		Icon:        "terminal",
		DefaultSize: grid.Extent{Width: 12, Height: 6},
		NewConfig:   func() domain.WidgetConfig { return domain.LogViewerConfig{Tail: 100} },
	},
	{
		Type:        domain.WidgetPrediction,
		Name:        "Prediction",
		Description: "ML forecast with confidence bands",
		Icon:        "crystal-ball",
		DefaultSize: grid.Extent{Width: 6, Height: 4},
		NewConfig:   func() domain.WidgetConfig { return domain.PredictionConfig{Horizon: "24h", ShowBands: true} },
	},
}

var byType = func() map[domain.WidgetType]Entry {
	m := make(map[domain.WidgetType]Entry, len(entries))
	for _, e := range entries {
		m[e.Type] = e
	}
	return m
}()

// Lookup returns the entry for t. The second result is false for types the
// registry does not know; callers treat that as a no-op, never a failure.
func Lookup(t domain.WidgetType) (Entry, bool) {
	e, ok := byType[t]
	return e, ok
}

// Types returns all registered widget types in stable display order.
func Types() []domain.WidgetType {
	out := make([]domain.WidgetType, len(entries))
	for i, e := range entries {
		out[i] = e.Type
	}
	return out
}

// Entries returns all registry entries in stable display order.
func Entries() []Entry {
	return append([]Entry(nil), entries...)
}
