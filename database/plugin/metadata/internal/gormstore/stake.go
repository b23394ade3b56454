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

// GetStakePosition retrieves the position for a (project, token, holder) key.
// Returns nil if the holder never staked that token.
func (s *Store) GetStakePosition(
	projectID uint,
	token []byte,
	holder []byte,
	txn types.Txn,
) (*models.StakePosition, error) {
	var pos models.StakePosition
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where(
		"project_id = ? AND token = ? AND holder = ?",
		projectID,
		token,
		holder,
	).First(&pos); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &pos, nil
}

// GetStakePositions retrieves every position of a project. When holder is
// non-empty only that holder's positions are returned.
func (s *Store) GetStakePositions(
	projectID uint,
	holder []byte,
	txn types.Txn,
) ([]models.StakePosition, error) {
	var positions []models.StakePosition
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Where("project_id = ?", projectID)
	if len(holder) > 0 {
		query = query.Where("holder = ?", holder)
	}
	if result := query.Order("id ASC").Find(&positions); result.Error != nil {
		return nil, result.Error
	}
	return positions, nil
}

// SetStakePosition creates or updates a stake position
func (s *Store) SetStakePosition(
	pos *models.StakePosition,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Save(pos); result.Error != nil {
		return result.Error
	}
	return nil
}
