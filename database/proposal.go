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

// AddProposal stores a new proposal and assigns its ID
func (d *Database) AddProposal(proposal *models.Proposal, txn *Txn) error {
	if err := d.metadata.AddProposal(proposal, txn.Metadata()); err != nil {
		return fmt.Errorf("add proposal: %w", err)
	}
	return nil
}

// GetProposal returns a proposal by ID. Returns models.ErrProposalNotFound
// if the ID is unknown.
func (d *Database) GetProposal(
	proposalID uint,
	txn *Txn,
) (*models.Proposal, error) {
	proposal, err := d.metadata.GetProposal(proposalID, txn.Metadata())
	if err != nil {
		return nil, fmt.Errorf("get proposal %d: %w", proposalID, err)
	}
	if proposal == nil {
		return nil, models.ErrProposalNotFound
	}
	return proposal, nil
}

// GetProposals returns the proposals of a project in creation order
func (d *Database) GetProposals(
	projectID uint,
	txn *Txn,
) ([]models.Proposal, error) {
	return d.metadata.GetProposals(projectID, txn.Metadata())
}

// SetProposal persists the tallies, outcome and execution state of a
// proposal
func (d *Database) SetProposal(proposal *models.Proposal, txn *Txn) error {
	if err := d.metadata.SetProposal(proposal, txn.Metadata()); err != nil {
		return fmt.Errorf("update proposal %d: %w", proposal.ID, err)
	}
	return nil
}
