/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package templatepack bundles a project's template sheets into a portable
// zip archive and installs such archives into other projects.
package templatepack

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "gridboard/internal/log"
	"gridboard/internal/storage"
)

// ManifestName is the archive-root manifest every pack carries.
const ManifestName = "pack.json"

// Manifest describes a template pack for quick inspection without parsing
// every sheet.
type Manifest struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Sheets  []string  `json:"sheets"`
}

// ExportProjectTemplates zips the project's templates directory
// (<project>/templates, *.board sheets only) into a single .zip file with a
// pack.json manifest at the archive root. If the templates directory does not
// exist or holds no sheets, the archive still gets written with only the
// manifest.
func ExportProjectTemplates(projectRoot string, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("templatepack"), "export").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return errors.New("projectRoot is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	tplDir := filepath.Join(projectRoot, "templates")
	if _, err := os.Stat(tplDir); os.IsNotExist(err) {
		if err := os.MkdirAll(tplDir, 0o755); err != nil {
			return fmt.Errorf("ensure templates dir: %w", err)
		}
	}

	entries, err := os.ReadDir(tplDir)
	if err != nil {
		return fmt.Errorf("read templates dir: %w", err)
	}
	var sheets []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), storage.SheetFileExt) {
			continue
		}
		sheets = append(sheets, e.Name())
	}

	// Ensure target directory exists
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := Manifest{
		Name:    filepath.Base(projectRoot),
		Created: time.Now().UTC(),
		Sheets:  sheets,
	}
	mdata, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	w, err := zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write(append(mdata, '\n')); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	for _, name := range sheets {
		fw, err := zw.Create("templates/" + name)
		if err != nil {
			return fmt.Errorf("build zip: %w", err)
		}
		f, err := os.Open(filepath.Join(tplDir, name))
		if err != nil {
			return fmt.Errorf("build zip: %w", err)
		}
		if _, err := io.Copy(fw, f); err != nil {
			_ = f.Close()
			return fmt.Errorf("build zip: %w", err)
		}
		_ = f.Close()
		added++
	}
	l.Info("template pack exported", slog.Int("sheets", added), slog.String("zip", destZipPath))
	return nil
}

// InstallPack extracts the template sheets of the given .zip pack into the
// project's templates directory. Only *.board entries are installed; existing
// files are never overwritten, and entries that would escape the templates
// directory are ignored. Returns the count of sheets installed (skipped
// entries are not counted).
func InstallPack(projectRoot string, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("templatepack"), "install").With(slog.String("project", projectRoot))
	if strings.TrimSpace(projectRoot) == "" {
		return 0, errors.New("projectRoot is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	tplDir := filepath.Join(projectRoot, "templates")
	if err := os.MkdirAll(tplDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure templates dir: %w", err)
	}

	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.Name == ManifestName || f.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(f.Name, storage.SheetFileExt) {
			l.Warn("skip non-sheet entry", slog.String("name", f.Name))
			continue
		}
		// Sheets install flat: the base name is the sheet identity, which also
		// defuses any path traversal an archive might attempt.
		base := filepath.Base(filepath.FromSlash(f.Name))
		if base == "." || base == ".." || base == string(filepath.Separator) {
			continue
		}
		targetPath := filepath.Join(tplDir, base)
		if _, err := os.Stat(targetPath); err == nil {
			l.Warn("skip existing sheet", slog.String("path", targetPath))
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return installed, err
		}
		out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			_ = rc.Close()
			return installed, err
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return installed, err
		}
		_ = out.Close()
		_ = rc.Close()
		installed++
	}
	l.Info("template pack installed", slog.Int("sheets", installed))
	return installed, nil
}
