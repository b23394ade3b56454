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

// AddProposal inserts a new proposal
func (s *Store) AddProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(proposal); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetProposal retrieves a proposal by ID. Returns nil if it does not exist.
func (s *Store) GetProposal(
	proposalID uint,
	txn types.Txn,
) (*models.Proposal, error) {
	var proposal models.Proposal
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("id = ?", proposalID).First(&proposal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &proposal, nil
}

// GetProposals retrieves all proposals of a project in creation order
func (s *Store) GetProposals(
	projectID uint,
	txn types.Txn,
) ([]models.Proposal, error) {
	var proposals []models.Proposal
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&proposals); result.Error != nil {
		return nil, result.Error
	}
	return proposals, nil
}

// SetProposal writes all fields of an existing proposal
func (s *Store) SetProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	if proposal.ID == 0 {
		return errors.New("proposal has no ID")
	}
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(proposal); result.Error != nil {
		return result.Error
	}
	return nil
}
