// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"fmt"

	"github.com/blinklabs-io/stakegov/database/models"
)

// AddProject stores a new project and assigns its ID
func (d *Database) AddProject(project *models.Project, txn *Txn) error {
	if err := d.metadata.AddProject(project, txn.Metadata()); err != nil {
		return fmt.Errorf("add project: %w", err)
	}
	return nil
}

// GetProject returns a project with its governance tokens. Returns
// models.ErrProjectNotFound if the ID is unknown.
func (d *Database) GetProject(projectID uint, txn *Txn) (*models.Project, error) {
	project, err := d.metadata.GetProject(projectID, txn.Metadata())
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", projectID, err)
	}
	if project == nil {
		return nil, models.ErrProjectNotFound
	}
	return project, nil
}

// GetProjects returns every project in creation order
func (d *Database) GetProjects(txn *Txn) ([]models.Project, error) {
	return d.metadata.GetProjects(txn.Metadata())
}

// GetProjectCount returns the number of registered projects
func (d *Database) GetProjectCount(txn *Txn) (uint64, error) {
	return d.metadata.GetProjectCount(txn.Metadata())
}

// SetProjectState persists the running totals and active flag of a project
func (d *Database) SetProjectState(project *models.Project, txn *Txn) error {
	if err := d.metadata.SetProjectState(project, txn.Metadata()); err != nil {
		return fmt.Errorf("update project %d: %w", project.ID, err)
	}
	return nil
}
