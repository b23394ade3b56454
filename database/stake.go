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
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/ethereum/go-ethereum/common"
)

// GetStakePosition returns the position of a holder for one governance token
// of a project. Holders that never staked get an empty, unsaved position.
func (d *Database) GetStakePosition(
	projectID uint,
	token common.Address,
	holder common.Address,
	txn *Txn,
) (*models.StakePosition, error) {
	pos, err := d.metadata.GetStakePosition(
		projectID,
		token.Bytes(),
		holder.Bytes(),
		txn.Metadata(),
	)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &models.StakePosition{
			ProjectID: projectID,
			Token:     token.Bytes(),
			Holder:    holder.Bytes(),
		}
	}
	return pos, nil
}

// GetStakePositions returns every stake position of a project
func (d *Database) GetStakePositions(
	projectID uint,
	txn *Txn,
) ([]models.StakePosition, error) {
	return d.metadata.GetStakePositions(projectID, nil, txn.Metadata())
}

// GetHolderStakePositions returns the positions of one holder in a project
func (d *Database) GetHolderStakePositions(
	projectID uint,
	holder common.Address,
	txn *Txn,
) ([]models.StakePosition, error) {
	return d.metadata.GetStakePositions(
		projectID,
		holder.Bytes(),
		txn.Metadata(),
	)
}

// SetStakePosition creates or updates a stake position
func (d *Database) SetStakePosition(
	pos *models.StakePosition,
	txn *Txn,
) error {
	return d.metadata.SetStakePosition(pos, txn.Metadata())
}
