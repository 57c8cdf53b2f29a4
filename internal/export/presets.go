/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"gridboard/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetScreen PresetName = "screen"
	PresetPrint  PresetName = "print"
)

// BatchOptions controls batch export across multiple formats/dashboards.
//
// Path semantics:
//   - If OutDir is empty or relative, it will be created under <project>/exports/<preset>/.
//   - For the single-file PDF output the name is boards.pdf in a pdf/ subfolder.
//   - For PNG/SVG per-board outputs, files are board-<n>-<slug>.(png|svg) in
//     subfolders png/ or svg/ inside OutDir. This keeps assets grouped by
//     preset and format.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset        PresetName
	Formats       []string // allowed: pdf, png, svg; empty means preset defaults
	Boards        []string // dashboard IDs or names; empty means all
	DPIOverride   int      // when > 0 overrides raster/vector viewport DPI where applicable
	IncludeGuides *bool    // when set, overrides preset's default for guides
	OutDir        string   // base directory for outputs (created per preset if relative)
}

// BatchExport runs exports according to the given preset.
func BatchExport(ph *storage.ProjectHandle, opt BatchOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if len(ph.Project.Dashboards) == 0 {
		return fmt.Errorf("project has no dashboards")
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	// normalize format strings
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}

	// Resolve output base directory
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(ph.Root, "exports", baseOut)
	}

	// Compute IncludeGuides default
	guides := presetIncludeGuides(opt.Preset)
	if opt.IncludeGuides != nil {
		guides = *opt.IncludeGuides
	}

	for _, f := range formats {
		switch f {
		case "pdf":
			// Single file covering all selected boards
			out := filepath.Join(baseOut, "pdf", "boards.pdf")
			po := PDFOptions{IncludeGuides: guides, Boards: opt.Boards}
			if err := ExportBoardPDF(ph, out, po); err != nil {
				return fmt.Errorf("pdf: %w", err)
			}
		case "png":
			outDir := filepath.Join(baseOut, "png")
			po := PNGOptions{IncludeGuides: guides, Boards: opt.Boards}
			if opt.DPIOverride > 0 {
				po.DPI = opt.DPIOverride
			}
			if err := ExportBoardPNGFiles(ph, outDir, po); err != nil {
				return fmt.Errorf("png: %w", err)
			}
		case "svg":
			outDir := filepath.Join(baseOut, "svg")
			so := SVGOptions{IncludeGuides: guides, Boards: opt.Boards}
			if opt.DPIOverride > 0 {
				so.DPI = opt.DPIOverride
			}
			if err := ExportBoardSVGFiles(ph, outDir, so); err != nil {
				return fmt.Errorf("svg: %w", err)
			}
		default:
			return fmt.Errorf("unknown format: %s", f)
		}
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetScreen:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}

func presetIncludeGuides(p PresetName) bool {
	switch p {
	case PresetScreen:
		return false
	case PresetPrint:
		return true
	default:
		return true
	}
}
