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

// AddVote inserts a vote record. Votes are never updated, so a conflict on
// (proposal_id, voter) is reported as types.ErrDuplicateVote.
func (s *Store) AddVote(
	vote *models.Vote,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(vote); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return types.ErrDuplicateVote
		}
		return result.Error
	}
	return nil
}

// GetVote retrieves the vote of a voter on a proposal. Returns nil if the
// voter has not voted.
func (s *Store) GetVote(
	proposalID uint,
	voter []byte,
	txn types.Txn,
) (*models.Vote, error) {
	var vote models.Vote
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where(
		"proposal_id = ? AND voter = ?",
		proposalID,
		voter,
	).First(&vote); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &vote, nil
}

// GetVotes retrieves all votes on a proposal in casting order
func (s *Store) GetVotes(
	proposalID uint,
	txn types.Txn,
) ([]models.Vote, error) {
	var votes []models.Vote
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("proposal_id = ?", proposalID).
		Order("id ASC").
		Find(&votes); result.Error != nil {
		return nil, result.Error
	}
	return votes, nil
}
