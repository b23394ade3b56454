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

// AddVote records a vote. A second vote by the same voter on the same
// proposal fails with types.ErrDuplicateVote.
func (d *Database) AddVote(vote *models.Vote, txn *Txn) error {
	return d.metadata.AddVote(vote, txn.Metadata())
}

// GetVote returns the vote cast by a voter on a proposal, or nil if the
// voter has not voted
func (d *Database) GetVote(
	proposalID uint,
	voter common.Address,
	txn *Txn,
) (*models.Vote, error) {
	return d.metadata.GetVote(proposalID, voter.Bytes(), txn.Metadata())
}

// GetVotes returns every vote on a proposal in casting order
func (d *Database) GetVotes(proposalID uint, txn *Txn) ([]models.Vote, error) {
	return d.metadata.GetVotes(proposalID, txn.Metadata())
}

// AddActivity appends an entry to the activity log of a project
func (d *Database) AddActivity(activity *models.Activity, txn *Txn) error {
	return d.metadata.AddActivity(activity, txn.Metadata())
}

// GetActivities returns the activity log of a project, oldest first
func (d *Database) GetActivities(
	projectID uint,
	txn *Txn,
) ([]models.Activity, error) {
	return d.metadata.GetActivities(projectID, txn.Metadata())
}
