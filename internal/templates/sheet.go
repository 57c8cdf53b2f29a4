/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package templates

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gridboard/internal/domain"
	"gridboard/internal/grid"
	"gridboard/internal/registry"
)

// SheetError reports a diagnostic for one line of a template sheet.
type SheetError struct {
	Line    int
	Message string
}

func (e SheetError) String() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }

// ParseSheet parses a template sheet into templates.
// Supported syntax (minimal):
//   - Template headings: lines starting with "#" or "Template:" introduce a
//     new template. The rest of the line is the name.
//   - Description: "desc:" or "description:" sets the current template's
//     description.
//   - Widget lines: TYPE "TITLE" [WxH] [key=value ...]
//     e.g. metric "Error Rate" 4x2 unit=% precision=2
//     Size is optional; the registry default is used when absent. Options
//     map into the type's config; a bare key means true.
//   - Comments: lines starting with ';' are ignored.
//
// The parser is forgiving: bad lines and bad options are reported in the
// returned diagnostics and skipped, never fatal. Blank lines separate
// nothing in particular.
func ParseSheet(input string) ([]domain.Template, []SheetError) {
	var (
		out     []domain.Template
		errs    []SheetError
		current *domain.Template
	)

	reHeading := regexp.MustCompile(`^#+\s*(.*)$`)
	reHeadingAlt := regexp.MustCompile(`^(?i)\s*Template:\s*(.+)$`)
	reDesc := regexp.MustCompile(`^(?i)\s*desc(?:ription)?:\s*(.*)$`)
	reWidget := regexp.MustCompile(`^([a-z][a-z0-9-]*)\s+"([^"]*)"(?:\s+(\d+)x(\d+))?\s*(.*)$`)

	flush := func() {
		if current != nil && strings.TrimSpace(current.Name) != "" {
			out = append(out, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, ";") {
			continue
		}

		if m := reHeading.FindStringSubmatch(trim); m != nil {
			flush()
			current = &domain.Template{Name: strings.TrimSpace(m[1])}
			continue
		}
		if m := reHeadingAlt.FindStringSubmatch(trim); m != nil {
			flush()
			current = &domain.Template{Name: strings.TrimSpace(m[1])}
			continue
		}
		if m := reDesc.FindStringSubmatch(trim); m != nil {
			if current == nil {
				errs = append(errs, SheetError{Line: lineNo, Message: "description before any template heading"})
				continue
			}
			current.Description = strings.TrimSpace(m[1])
			continue
		}

		if m := reWidget.FindStringSubmatch(trim); m != nil {
			if current == nil {
				errs = append(errs, SheetError{Line: lineNo, Message: "widget line before any template heading"})
				continue
			}
			typ := domain.WidgetType(m[1])
			entry, known := registry.Lookup(typ)
			if !known {
				errs = append(errs, SheetError{Line: lineNo, Message: fmt.Sprintf("unknown widget type %q", m[1])})
				continue
			}
			bp := domain.WidgetBlueprint{Type: typ, Title: m[2], Size: entry.DefaultSize}
			if m[3] != "" {
				w, _ := strconv.Atoi(m[3])
				h, _ := strconv.Atoi(m[4])
				if w < 1 {
					w = 1
				}
				if h < 1 {
					h = 1
				}
				bp.Size = grid.Extent{Width: w, Height: h}
			}
			cfg := entry.NewConfig()
			for _, opt := range strings.Fields(m[5]) {
				key, val := opt, ""
				if i := strings.IndexByte(opt, '='); i >= 0 {
					key, val = opt[:i], opt[i+1:]
				}
				next, ok := applyOption(cfg, strings.ToLower(key), val)
				if !ok {
					errs = append(errs, SheetError{Line: lineNo, Message: fmt.Sprintf("unknown option %q for %s", key, typ)})
					continue
				}
				cfg = next
			}
			bp.Config = cfg
			current.Widgets = append(current.Widgets, bp)
			continue
		}

		errs = append(errs, SheetError{Line: lineNo, Message: "unrecognized line"})
	}
	flush()

	if err := scanner.Err(); err != nil {
		errs = append(errs, SheetError{Line: lineNo, Message: err.Error()})
	}
	return out, errs
}

// applyOption sets one sheet option on a config variant. The second result
// is false for keys the variant does not know.
func applyOption(cfg domain.WidgetConfig, key, val string) (domain.WidgetConfig, bool) {
	switch c := cfg.(type) {
	case domain.MetricConfig:
		switch key {
		case "label":
			c.Label = val
		case "unit":
			c.Unit = val
		case "value":
			c.Value = parseFloatOpt(val)
		case "precision":
			c.Precision = parseIntOpt(val)
		default:
			return cfg, false
		}
		return c, true
	case domain.LineChartConfig:
		switch key {
		case "series":
			c.Series = splitListOpt(val)
		case "range":
			c.Range = val
		case "legend":
			c.ShowLegend = parseBoolOpt(val)
		case "stacked":
			c.Stacked = parseBoolOpt(val)
		default:
			return cfg, false
		}
		return c, true
	case domain.BarChartConfig:
		switch key {
		case "dimension":
			c.Dimension = val
		case "limit":
			c.Limit = parseIntOpt(val)
		case "horizontal":
			c.Horizontal = parseBoolOpt(val)
		default:
			return cfg, false
		}
		return c, true
	case domain.PieChartConfig:
		switch key {
		case "dimension":
			c.Dimension = val
		case "limit":
			c.Limit = parseIntOpt(val)
		case "donut":
			c.Donut = parseBoolOpt(val)
		default:
			return cfg, false
		}
		return c, true
	case domain.TreemapConfig:
		switch key {
		case "dimension":
			c.Dimension = val
		case "depth":
			c.Depth = parseIntOpt(val)
		default:
			return cfg, false
		}
		return c, true
	case domain.AlertListConfig:
		switch key {
		case "severities":
			c.Severities = splitListOpt(val)
		case "limit":
			c.Limit = parseIntOpt(val)
		default:
			return cfg, false
		}
		return c, true
	case domain.LogViewerConfig:
		switch key {
		case "query":
			c.Query = val
		case "tail":
			c.Tail = parseIntOpt(val)
		case "wrap":
			c.Wrap = parseBoolOpt(val)
		default:
			return cfg, false
		}
		return c, true
	case domain.PredictionConfig:
		switch key {
		case "model":
			c.Model = val
		case "horizon":
			c.Horizon = val
		case "bands":
			c.ShowBands = parseBoolOpt(val)
		default:
			return cfg, false
		}
		return c, true
	}
	return cfg, false
}

func parseBoolOpt(v string) bool {
	switch strings.ToLower(v) {
	case "", "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseIntOpt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

func parseFloatOpt(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func splitListOpt(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SheetExt is the file extension of template sheets in a project.
const SheetExt = ".board"

// LoadProjectSheets parses every template sheet under <root>/templates and
// returns the templates in file-name order plus any per-file diagnostics
// keyed by file path. A missing templates directory is not an error.
func LoadProjectSheets(root string) ([]domain.Template, map[string][]SheetError, error) {
	dir := filepath.Join(root, "templates")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read templates dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != SheetExt {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []domain.Template
	diags := map[string][]SheetError{}
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		ts, errs := ParseSheet(string(data))
		if len(errs) > 0 {
			diags[path] = errs
		}
		out = append(out, ts...)
	}
	return out, diags, nil
}
