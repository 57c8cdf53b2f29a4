/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SheetFileExt is the extension template sheets carry under templates/.
const SheetFileExt = ".board"

// SheetFilePath returns the canonical path of the named template sheet
// inside the project's templates folder. Returns "" for a nil handle.
func SheetFilePath(ph *ProjectHandle, name string) string {
	if ph == nil || ph.Root == "" {
		return ""
	}
	return filepath.Join(ph.Root, "templates", name+SheetFileExt)
}

// ReadSheet returns the named sheet's text. A missing sheet reads as empty
// rather than an error; sheets are optional.
func ReadSheet(ph *ProjectHandle, name string) (string, error) {
	p := SheetFilePath(ph, name)
	if p == "" {
		return "", errors.New("nil or rootless ProjectHandle")
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read sheet: %w", err)
	}
	return string(b), nil
}

// WriteSheet writes the named sheet's text, creating templates/ if needed
// and flushing the file to disk.
func WriteSheet(ph *ProjectHandle, name, content string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("sheet name is required")
	}
	p := SheetFilePath(ph, name)
	if p == "" {
		return errors.New("nil or rootless ProjectHandle")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("ensure templates dir: %w", err)
	}
	if err := writeFileSync(p, []byte(content)); err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}
	return nil
}
