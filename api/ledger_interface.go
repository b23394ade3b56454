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

package api

import (
	"context"

	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger is the interface that the API server uses to query and mutate the
// governance ledger. It decouples the HTTP server from the concrete
// LedgerState and enables testing with mock implementations.
type Ledger interface {
	ListProjects() ([]ledger.Project, error)
	GetProject(projectID uint) (ledger.Project, error)
	ListProposals(projectID uint) ([]ledger.Proposal, error)
	ListActivities(projectID uint) ([]ledger.Activity, error)
	Stakers(projectID uint) ([]common.Address, error)
	GetUserStake(projectID uint, holder common.Address) (ledger.UserStake, error)
	Audit(ctx context.Context, projectID uint) (ledger.AuditReport, error)
	GetProposal(proposalID uint) (ledger.Proposal, error)
	ListVotes(proposalID uint) ([]ledger.Vote, error)
	HasVoted(proposalID uint, voter common.Address) (bool, error)

	CreateProject(
		ctx context.Context,
		caller common.Address,
		params ledger.CreateProjectParams,
	) (uint, error)
	SetProjectActive(
		ctx context.Context,
		projectID uint,
		caller common.Address,
		active bool,
	) error
	Stake(
		ctx context.Context,
		projectID uint,
		token common.Address,
		holder common.Address,
		amount *uint256.Int,
	) error
	RequestUnstake(
		ctx context.Context,
		projectID uint,
		token common.Address,
		holder common.Address,
		amount *uint256.Int,
	) error
	CompleteUnstake(
		ctx context.Context,
		projectID uint,
		token common.Address,
		holder common.Address,
	) (*uint256.Int, error)
	CreateProposal(
		ctx context.Context,
		projectID uint,
		caller common.Address,
		params ledger.CreateProposalParams,
	) (uint, error)
	Vote(
		ctx context.Context,
		proposalID uint,
		voter common.Address,
		support bool,
	) (*uint256.Int, error)
	Finalize(ctx context.Context, proposalID uint) (ledger.ProposalStatus, error)
	Execute(ctx context.Context, proposalID uint, caller common.Address) error
}
