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

package gormstore

import (
	"errors"

	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
	"gorm.io/gorm"
)

func preloadTokens(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// AddProject inserts a project along with its governance tokens
func (s *Store) AddProject(
	project *models.Project,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(project); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetProject retrieves a project by ID. Returns nil if it does not exist.
func (s *Store) GetProject(
	projectID uint,
	txn types.Txn,
) (*models.Project, error) {
	var project models.Project
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Preload("Tokens", preloadTokens).
		Where("id = ?", projectID).
		First(&project); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &project, nil
}

// GetProjects retrieves all projects in creation order
func (s *Store) GetProjects(txn types.Txn) ([]models.Project, error) {
	var projects []models.Project
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Preload("Tokens", preloadTokens).
		Order("id ASC").
		Find(&projects); result.Error != nil {
		return nil, result.Error
	}
	return projects, nil
}

// GetProjectCount returns the number of registered projects
func (s *Store) GetProjectCount(txn types.Txn) (uint64, error) {
	var count int64
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	if result := db.Model(&models.Project{}).Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}

// SetProjectState writes the mutable fields of a project. The descriptive
// fields and governance tokens are fixed at creation and never rewritten.
func (s *Store) SetProjectState(
	project *models.Project,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]any{
			"total_staked":   project.TotalStaked,
			"proposal_count": project.ProposalCount,
			"active":         project.Active,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}
