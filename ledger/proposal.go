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

package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/blinklabs-io/stakegov/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// CreateProposalParams describes a new proposal. Quorum is the minimum total
// voting weight the proposal must collect to pass.
type CreateProposalParams struct {
	Quorum      *uint256.Int
	Title       string
	Description string
}

// CreateProposal opens a proposal on a project. Only the project creator may
// do this. Voting starts immediately and lasts for the voting period.
func (ls *LedgerState) CreateProposal(
	ctx context.Context,
	projectID uint,
	caller common.Address,
	params CreateProposalParams,
) (uint, error) {
	var proposalID uint
	err := ls.mutate(ctx, "create_proposal", func(o *opContext) error {
		project, err := ls.loadProject(projectID, o.txn)
		if err != nil {
			return err
		}
		if !bytes.Equal(project.Creator, caller.Bytes()) {
			return ErrNotProjectCreator
		}
		if !project.Active {
			return ErrProjectInactive
		}
		if err := ls.validateQuorum(params.Quorum, project.TotalStaked.Int()); err != nil {
			return err
		}
		start := o.unix()
		proposal := &models.Proposal{
			ProjectID:   projectID,
			Title:       params.Title,
			Description: params.Description,
			Creator:     caller.Bytes(),
			Quorum:      types.NewAmount(params.Quorum),
			StartTime:   start,
			EndTime:     start + int64(ls.config.VotingPeriod/time.Second),
		}
		if err := ls.db.AddProposal(proposal, o.txn); err != nil {
			return fmt.Errorf("failed to add proposal: %w", err)
		}
		project.ProposalCount++
		if err := ls.db.SetProjectState(project, o.txn); err != nil {
			return err
		}
		if err := ls.appendActivity(
			o,
			projectID,
			&proposal.ID,
			ActivityTypeProposalCreated,
			caller,
			params.Quorum,
		); err != nil {
			return err
		}
		o.emit(event.ProposalCreatedEventType, event.ProposalEvent{
			ProjectID:  projectID,
			ProposalID: proposal.ID,
			Caller:     caller,
			Status:     proposalStatus(proposal, start).String(),
			Timestamp:  start,
		})
		proposalID = proposal.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	ls.metrics.proposals.Inc()
	return proposalID, nil
}

func (ls *LedgerState) validateQuorum(quorum, totalStaked *uint256.Int) error {
	if quorum == nil {
		return fmt.Errorf("%w: quorum is required", ErrInvalidQuorum)
	}
	if quorum.Gt(totalStaked) {
		return fmt.Errorf(
			"%w: quorum %s exceeds project stake %s",
			ErrInvalidQuorum,
			quorum.Dec(),
			totalStaked.Dec(),
		)
	}
	if ls.config.MinQuorumBps == 0 {
		return nil
	}
	minQuorum, _ := new(uint256.Int).MulDivOverflow(
		totalStaked,
		uint256.NewInt(ls.config.MinQuorumBps),
		uint256.NewInt(maxQuorumBps),
	)
	if quorum.Lt(minQuorum) {
		return fmt.Errorf(
			"%w: quorum %s is below minimum %s",
			ErrInvalidQuorum,
			quorum.Dec(),
			minQuorum.Dec(),
		)
	}
	return nil
}

// Vote records the voter's current voting weight for or against an active
// proposal. Each address votes at most once per proposal and the weight is
// fixed when the vote is cast.
func (ls *LedgerState) Vote(
	ctx context.Context,
	proposalID uint,
	voter common.Address,
	support bool,
) (*uint256.Int, error) {
	var weight *uint256.Int
	err := ls.mutate(ctx, "vote", func(o *opContext) error {
		proposal, err := ls.loadProposal(proposalID, o.txn)
		if err != nil {
			return err
		}
		if status := proposalStatus(proposal, o.unix()); status != ProposalStatusActive {
			return fmt.Errorf("%w: status is %s", ErrProposalNotActive, status)
		}
		existing, err := ls.db.GetVote(proposalID, voter, o.txn)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyVoted
		}
		project, err := ls.loadProject(proposal.ProjectID, o.txn)
		if err != nil {
			return err
		}
		weight, err = ls.votingWeight(project, voter, o.txn)
		if err != nil {
			return err
		}
		if weight.IsZero() {
			return ErrNoVotingWeight
		}
		if err := ls.db.AddVote(
			&models.Vote{
				ProposalID: proposalID,
				Voter:      voter.Bytes(),
				Weight:     types.NewAmount(weight),
				Support:    support,
				AddedTime:  o.unix(),
			},
			o.txn,
		); err != nil {
			if errors.Is(err, types.ErrDuplicateVote) {
				return ErrAlreadyVoted
			}
			return fmt.Errorf("failed to record vote: %w", err)
		}
		tally := proposal.NoVotes.Int()
		if support {
			tally = proposal.YesVotes.Int()
		}
		if _, overflow := tally.AddOverflow(tally, weight); overflow {
			return errAmountOverflow
		}
		totalVoted, overflow := new(uint256.Int).AddOverflow(
			proposal.TotalVoted.Int(),
			weight,
		)
		if overflow {
			return errAmountOverflow
		}
		if support {
			proposal.YesVotes = types.NewAmount(tally)
		} else {
			proposal.NoVotes = types.NewAmount(tally)
		}
		proposal.TotalVoted = types.NewAmount(totalVoted)
		if err := ls.db.SetProposal(proposal, o.txn); err != nil {
			return err
		}
		if err := ls.appendActivity(
			o,
			proposal.ProjectID,
			&proposal.ID,
			ActivityTypeVoted,
			voter,
			weight,
		); err != nil {
			return err
		}
		o.emit(event.VotedEventType, event.VoteEvent{
			ProjectID:  proposal.ProjectID,
			ProposalID: proposalID,
			Voter:      voter,
			Weight:     weight.Clone(),
			Support:    support,
			Timestamp:  o.unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	ls.metrics.votes.Inc()
	return weight, nil
}

// Finalize records the outcome of a proposal whose voting period has ended.
// Calling it again returns the recorded status without changing anything.
func (ls *LedgerState) Finalize(
	ctx context.Context,
	proposalID uint,
) (ProposalStatus, error) {
	var status ProposalStatus
	err := ls.mutate(ctx, "finalize", func(o *opContext) error {
		proposal, err := ls.loadProposal(proposalID, o.txn)
		if err != nil {
			return err
		}
		if proposal.Executed || proposal.Outcome != models.ProposalOutcomeNone {
			status = proposalStatus(proposal, o.unix())
			return nil
		}
		if o.unix() <= proposal.EndTime {
			return fmt.Errorf(
				"%w: voting ends at %s",
				ErrVotingNotEnded,
				time.Unix(proposal.EndTime, 0).UTC().Format(time.RFC3339),
			)
		}
		status = resolveOutcome(proposal)
		proposal.Outcome = outcomeFromStatus(status)
		if err := ls.db.SetProposal(proposal, o.txn); err != nil {
			return err
		}
		o.emit(event.ProposalCompletedEventType, event.ProposalEvent{
			ProjectID:  proposal.ProjectID,
			ProposalID: proposalID,
			Status:     status.String(),
			Timestamp:  o.unix(),
		})
		return nil
	})
	return status, err
}

// Execute marks a passed proposal as executed. Any caller may execute a
// proposal once it has resolved as passing. Execution has no effect on
// balances.
func (ls *LedgerState) Execute(
	ctx context.Context,
	proposalID uint,
	caller common.Address,
) error {
	return ls.mutate(ctx, "execute", func(o *opContext) error {
		proposal, err := ls.loadProposal(proposalID, o.txn)
		if err != nil {
			return err
		}
		if proposal.Executed {
			return ErrAlreadyExecuted
		}
		if status := proposalStatus(proposal, o.unix()); status != ProposalStatusCompleted {
			return fmt.Errorf("%w: status is %s", ErrNotEligible, status)
		}
		executedTime := o.unix()
		proposal.Executed = true
		proposal.ExecutedTime = &executedTime
		proposal.Outcome = models.ProposalOutcomeCompleted
		if err := ls.db.SetProposal(proposal, o.txn); err != nil {
			return err
		}
		if err := ls.appendActivity(
			o,
			proposal.ProjectID,
			&proposal.ID,
			ActivityTypeProposalCompleted,
			caller,
			proposal.TotalVoted.Int(),
		); err != nil {
			return err
		}
		o.emit(event.ProposalExecutedEventType, event.ProposalEvent{
			ProjectID:  proposal.ProjectID,
			ProposalID: proposalID,
			Caller:     caller,
			Status:     ProposalStatusExecuted.String(),
			Timestamp:  executedTime,
		})
		return nil
	})
}

// proposalStatus derives the status of a proposal at the given time. Nothing
// transitions in the background, so the status is always computed from the
// stored timestamps and tallies.
func proposalStatus(p *models.Proposal, now int64) ProposalStatus {
	if p.Executed {
		return ProposalStatusExecuted
	}
	switch p.Outcome {
	case models.ProposalOutcomeCompleted:
		return ProposalStatusCompleted
	case models.ProposalOutcomeDefeated:
		return ProposalStatusDefeated
	}
	if now < p.StartTime {
		return ProposalStatusPending
	}
	if now <= p.EndTime {
		return ProposalStatusActive
	}
	return resolveOutcome(p)
}

// resolveOutcome applies quorum and majority to the final tallies
func resolveOutcome(p *models.Proposal) ProposalStatus {
	if p.TotalVoted.Int().Lt(p.Quorum.Int()) {
		return ProposalStatusDefeated
	}
	if !p.YesVotes.Int().Gt(p.NoVotes.Int()) {
		return ProposalStatusDefeated
	}
	return ProposalStatusCompleted
}

func outcomeFromStatus(status ProposalStatus) uint8 {
	if status == ProposalStatusCompleted {
		return models.ProposalOutcomeCompleted
	}
	return models.ProposalOutcomeDefeated
}

func proposalFromModel(p *models.Proposal, now int64) Proposal {
	return Proposal{
		ID:           p.ID,
		ProjectID:    p.ProjectID,
		Title:        p.Title,
		Description:  p.Description,
		Creator:      common.BytesToAddress(p.Creator),
		YesVotes:     p.YesVotes.Int(),
		NoVotes:      p.NoVotes.Int(),
		TotalVoted:   p.TotalVoted.Int(),
		Quorum:       p.Quorum.Int(),
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		ExecutedTime: p.ExecutedTime,
		Status:       proposalStatus(p, now),
	}
}

// GetProposal returns a proposal with its status as of now
func (ls *LedgerState) GetProposal(proposalID uint) (Proposal, error) {
	var ret Proposal
	err := ls.view(func(txn *database.Txn, now time.Time) error {
		proposal, err := ls.loadProposal(proposalID, txn)
		if err != nil {
			return err
		}
		ret = proposalFromModel(proposal, now.Unix())
		return nil
	})
	return ret, err
}

// ListProposals returns the proposals of a project in creation order
func (ls *LedgerState) ListProposals(projectID uint) ([]Proposal, error) {
	var ret []Proposal
	err := ls.view(func(txn *database.Txn, now time.Time) error {
		if _, err := ls.loadProject(projectID, txn); err != nil {
			return err
		}
		proposals, err := ls.db.GetProposals(projectID, txn)
		if err != nil {
			return err
		}
		ret = make([]Proposal, 0, len(proposals))
		for i := range proposals {
			ret = append(ret, proposalFromModel(&proposals[i], now.Unix()))
		}
		return nil
	})
	return ret, err
}

// ProjectProposals returns the IDs of the proposals of a project
func (ls *LedgerState) ProjectProposals(projectID uint) ([]uint, error) {
	proposals, err := ls.ListProposals(projectID)
	if err != nil {
		return nil, err
	}
	return lo.Map(proposals, func(p Proposal, _ int) uint {
		return p.ID
	}), nil
}

// HasVoted reports whether the voter has voted on the proposal
func (ls *LedgerState) HasVoted(
	proposalID uint,
	voter common.Address,
) (bool, error) {
	var ret bool
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		if _, err := ls.loadProposal(proposalID, txn); err != nil {
			return err
		}
		vote, err := ls.db.GetVote(proposalID, voter, txn)
		if err != nil {
			return err
		}
		ret = vote != nil
		return nil
	})
	return ret, err
}

// ListVotes returns the votes on a proposal in the order they were cast
func (ls *LedgerState) ListVotes(proposalID uint) ([]Vote, error) {
	var ret []Vote
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		if _, err := ls.loadProposal(proposalID, txn); err != nil {
			return err
		}
		votes, err := ls.db.GetVotes(proposalID, txn)
		if err != nil {
			return err
		}
		ret = make([]Vote, 0, len(votes))
		for i := range votes {
			ret = append(ret, voteFromModel(&votes[i]))
		}
		return nil
	})
	return ret, err
}
