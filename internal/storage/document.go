/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gridboard/internal/domain"
)

// documentSchema is the JSON Schema every dashboard document must satisfy
// before it is imported. Embedding it keeps import validation working in a
// bare installed binary with no repository checkout around.
//
//go:embed document.schema.json
var documentSchema []byte

// ErrInvalidDocument wraps every import rejection so callers can distinguish
// a malformed document from an I/O failure.
var ErrInvalidDocument = errors.New("invalid dashboard document")

// maxSchemaErrors caps how many validation findings are folded into one
// error message.
const maxSchemaErrors = 5

// ExportDocument renders the dashboard as a standalone, portable document:
// stable two-space indented JSON with a trailing newline. The source
// dashboard is not mutated.
func ExportDocument(d *domain.Dashboard) ([]byte, error) {
	if d == nil {
		return nil, errors.New("nil dashboard")
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// ImportDocument parses and validates a dashboard document and builds a
// fresh dashboard from it. The dashboard ID and every widget ID are replaced
// with newly minted ones so an import can never collide with dashboards
// already in a project, and timestamps are reset to the import time. Any
// failure rejects the whole document; there is no partial import.
func ImportDocument(data []byte) (*domain.Dashboard, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var d domain.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	now := time.Now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.HasUnsavedChanges = false
	if d.Layout == "" {
		d.Layout = domain.LayoutGrid
	}
	if d.Widgets == nil {
		d.Widgets = []domain.Widget{}
	}

	// An absent settings block gets the defaults wholesale; a present one
	// only has unusable cell geometry backfilled so explicit values survive.
	if d.Settings.CellSize == 0 && d.Settings.Gutter == 0 && d.Settings.Columns == 0 && len(d.Settings.Breakpoints) == 0 {
		d.Settings = domain.DefaultGridSettings()
	} else {
		def := domain.DefaultGridSettings()
		if d.Settings.CellSize <= 0 {
			d.Settings.CellSize = def.CellSize
		}
		if d.Settings.Columns <= 0 {
			d.Settings.Columns = def.Columns
		}
	}

	for i := range d.Widgets {
		w := &d.Widgets[i]
		w.ID = uuid.NewString()
		if w.LastUpdated.IsZero() {
			w.LastUpdated = now
		}
	}
	return &d, nil
}

// validateDocument checks data against the embedded document schema.
func validateDocument(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for i, e := range result.Errors() {
		if i == maxSchemaErrors {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(result.Errors())-maxSchemaErrors))
			break
		}
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}

// WriteDocumentFile exports d and writes it to path with the same
// transactional write-sync-rename dance the manifest uses.
func WriteDocumentFile(d *domain.Dashboard, path string) error {
	data, err := ExportDocument(d)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// ReadDocumentFile reads a dashboard document from path and imports it.
func ReadDocumentFile(path string) (*domain.Dashboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return ImportDocument(data)
}
