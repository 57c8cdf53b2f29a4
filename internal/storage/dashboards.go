/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"strings"
	"time"

	"gridboard/internal/board"
	"gridboard/internal/domain"
)

// AddDashboard appends a new empty dashboard with default grid settings and
// returns a pointer to it. Names must be unique within the project
// (case-insensitive). The pointer is valid until the next append.
func AddDashboard(ph *ProjectHandle, name, description string) (*domain.Dashboard, error) {
	if ph == nil {
		return nil, fmt.Errorf("project handle is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("dashboard name is required")
	}
	for i := range ph.Project.Dashboards {
		if strings.EqualFold(ph.Project.Dashboards[i].Name, name) {
			return nil, fmt.Errorf("dashboard %q already exists", name)
		}
	}
	d := board.NewDashboard(name, description)
	ph.Project.Dashboards = append(ph.Project.Dashboards, *d)
	return &ph.Project.Dashboards[len(ph.Project.Dashboards)-1], nil
}

// FindDashboard resolves a dashboard by ID or, failing that, by name
// (case-insensitive). Returns nil when neither matches.
func FindDashboard(ph *ProjectHandle, idOrName string) *domain.Dashboard {
	if ph == nil {
		return nil
	}
	for i := range ph.Project.Dashboards {
		if ph.Project.Dashboards[i].ID == idOrName {
			return &ph.Project.Dashboards[i]
		}
	}
	for i := range ph.Project.Dashboards {
		if strings.EqualFold(ph.Project.Dashboards[i].Name, idOrName) {
			return &ph.Project.Dashboards[i]
		}
	}
	return nil
}

// RemoveDashboard deletes the dashboard with the given ID and reports
// whether a removal occurred.
func RemoveDashboard(ph *ProjectHandle, id string) bool {
	if ph == nil {
		return false
	}
	for i := range ph.Project.Dashboards {
		if ph.Project.Dashboards[i].ID == id {
			ph.Project.Dashboards = append(ph.Project.Dashboards[:i], ph.Project.Dashboards[i+1:]...)
			return true
		}
	}
	return false
}

// RenameDashboard updates the name and description of a dashboard, keeping
// the unique-name rule. An empty name keeps the current one.
func RenameDashboard(ph *ProjectHandle, id, name, description string) error {
	d := FindDashboard(ph, id)
	if d == nil {
		return fmt.Errorf("dashboard %s not found", id)
	}
	name = strings.TrimSpace(name)
	if name != "" && !strings.EqualFold(name, d.Name) {
		for i := range ph.Project.Dashboards {
			if ph.Project.Dashboards[i].ID != d.ID && strings.EqualFold(ph.Project.Dashboards[i].Name, name) {
				return fmt.Errorf("dashboard %q already exists", name)
			}
		}
		d.Name = name
	}
	d.Description = description
	d.UpdatedAt = time.Now().UTC()
	d.HasUnsavedChanges = true
	return nil
}
