/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package templates holds the catalog of named dashboard blueprints and the
// row packer that materializes them onto a dashboard grid.
package templates

import (
	"gridboard/internal/board"
	"gridboard/internal/domain"
	"gridboard/internal/grid"
	"gridboard/internal/registry"
)

// Catalog is a name-keyed set of templates. Built-ins are loaded first;
// project sheets added later win on name collision.
type Catalog struct {
	byName map[string]domain.Template
	order  []string
}

// NewCatalog returns a catalog pre-populated with the built-in templates.
func NewCatalog() *Catalog {
	c := &Catalog{byName: map[string]domain.Template{}}
	for _, t := range Builtins() {
		c.Add(t)
	}
	return c
}

// Add registers a template, replacing any existing one with the same name.
func (c *Catalog) Add(t domain.Template) {
	if t.Name == "" {
		return
	}
	if _, exists := c.byName[t.Name]; !exists {
		c.order = append(c.order, t.Name)
	}
	c.byName[t.Name] = t
}

// Lookup returns the template with the given name.
func (c *Catalog) Lookup(name string) (domain.Template, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Names returns the catalog's template names in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Instantiate appends the named template's widgets to the dashboard using a
// greedy row packer: a cursor starts at (0,0), each blueprint is placed at
// the cursor and the cursor advances by the blueprint's width; when the next
// blueprint would cross the configured column count the cursor wraps to
// x = 0 and y advances by the tallest widget of the finished row. The packer
// is deliberately order-dependent and best effort: a blueprint wider than
// the grid still goes at x = 0 and may overhang. Returns false without
// mutating anything when the name is not in the catalog. Blueprints whose
// type is unknown to the registry are skipped silently.
func (c *Catalog) Instantiate(name string, d *domain.Dashboard) bool {
	t, ok := c.Lookup(name)
	if !ok || d == nil {
		return false
	}
	cols := d.Settings.Columns
	if cols <= 0 {
		cols = domain.DefaultGridSettings().Columns
	}
	x, y, rowHeight := 0, 0, 0
	for _, bp := range t.Widgets {
		entry, known := registry.Lookup(bp.Type)
		if !known {
			continue
		}
		size := bp.Size
		if size.Width < 1 {
			size.Width = entry.DefaultSize.Width
		}
		if size.Height < 1 {
			size.Height = entry.DefaultSize.Height
		}
		if x > 0 && x+size.Width > cols {
			x = 0
			y += rowHeight
			rowHeight = 0
		}
		w, added := board.Add(d, bp.Type, grid.Cell{X: x, Y: y})
		if !added {
			continue
		}
		patch := board.Patch{Size: &size}
		if bp.Title != "" {
			title := bp.Title
			patch.Title = &title
		}
		if bp.Config != nil {
			patch.Config = bp.Config
		}
		board.Update(d, w.ID, patch)
		x += size.Width
		if size.Height > rowHeight {
			rowHeight = size.Height
		}
	}
	return true
}

// Builtins returns the templates every catalog starts with.
func Builtins() []domain.Template {
	return []domain.Template{
		{
			Name:        "System Overview",
			Description: "CPU, memory and error budget at a glance",
			Widgets: []domain.WidgetBlueprint{
				{Type: domain.WidgetMetric, Title: "CPU Load", Size: grid.Extent{Width: 4, Height: 2}, Config: domain.MetricConfig{Unit: "%", Precision: 1}},
				{Type: domain.WidgetMetric, Title: "Memory", Size: grid.Extent{Width: 4, Height: 2}, Config: domain.MetricConfig{Unit: "GiB", Precision: 1}},
				{Type: domain.WidgetMetric, Title: "Error Rate", Size: grid.Extent{Width: 4, Height: 2}, Config: domain.MetricConfig{Unit: "%", Precision: 2}},
				{Type: domain.WidgetLineChart, Title: "Requests", Size: grid.Extent{Width: 8, Height: 5}, Config: domain.LineChartConfig{Series: []string{"2xx", "4xx", "5xx"}, Range: "6h", ShowLegend: true}},
				{Type: domain.WidgetBarChart, Title: "Top Endpoints", Size: grid.Extent{Width: 8, Height: 5}, Config: domain.BarChartConfig{Dimension: "endpoint", Limit: 10}},
				{Type: domain.WidgetAlertList, Title: "Active Alerts", Size: grid.Extent{Width: 6, Height: 6}, Config: domain.AlertListConfig{Severities: []string{"critical", "warning"}, Limit: 20}},
			},
		},
		{
			Name:        "Log Analytics",
			Description: "Volume, status and sources of the log stream",
			Widgets: []domain.WidgetBlueprint{
				{Type: domain.WidgetLogViewer, Title: "Live Tail", Size: grid.Extent{Width: 12, Height: 6}, Config: domain.LogViewerConfig{Tail: 200}},
				{Type: domain.WidgetPieChart, Title: "Status Codes", Size: grid.Extent{Width: 6, Height: 5}, Config: domain.PieChartConfig{Dimension: "status", Limit: 6}},
				{Type: domain.WidgetLineChart, Title: "Log Volume", Size: grid.Extent{Width: 8, Height: 5}, Config: domain.LineChartConfig{Series: []string{"lines"}, Range: "24h"}},
				{Type: domain.WidgetTreemap, Title: "Sources", Size: grid.Extent{Width: 8, Height: 6}, Config: domain.TreemapConfig{Dimension: "source", Depth: 2}},
			},
		},
		{
			Name:        "ML Monitoring",
			Description: "Forecasts and model health",
			Widgets: []domain.WidgetBlueprint{
				{Type: domain.WidgetPrediction, Title: "Traffic Forecast", Size: grid.Extent{Width: 6, Height: 4}, Config: domain.PredictionConfig{Model: "traffic-v2", Horizon: "24h", ShowBands: true}},
				{Type: domain.WidgetPrediction, Title: "Anomaly Score", Size: grid.Extent{Width: 6, Height: 4}, Config: domain.PredictionConfig{Model: "anomaly-v1", Horizon: "1h"}},
				{Type: domain.WidgetLineChart, Title: "Model Drift", Size: grid.Extent{Width: 8, Height: 5}, Config: domain.LineChartConfig{Series: []string{"drift"}, Range: "7d"}},
				{Type: domain.WidgetMetric, Title: "Accuracy", Size: grid.Extent{Width: 4, Height: 2}, Config: domain.MetricConfig{Unit: "%", Precision: 1}},
			},
		},
	}
}
