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

var errAmountOverflow = errors.New("amount overflows 256 bits")

// Stake pulls amount of a governance token from the holder into custody and
// credits it to the holder's position. The transfer happens before any
// balance is written and is reversed if the operation does not commit.
func (ls *LedgerState) Stake(
	ctx context.Context,
	projectID uint,
	token common.Address,
	holder common.Address,
	amount *uint256.Int,
) error {
	return ls.mutate(ctx, "stake", func(o *opContext) error {
		project, err := ls.loadProject(projectID, o.txn)
		if err != nil {
			return err
		}
		if !isGovernanceToken(project, token) {
			return fmt.Errorf("%w: %s", ErrNotGovernanceToken, token.Hex())
		}
		if amount == nil || amount.IsZero() {
			return ErrInvalidAmount
		}
		if !project.Active {
			return ErrProjectInactive
		}
		pos, err := ls.db.GetStakePosition(projectID, token, holder, o.txn)
		if err != nil {
			return err
		}
		staked, overflow := new(uint256.Int).AddOverflow(
			pos.StakedAmount.Int(),
			amount,
		)
		if overflow {
			return errAmountOverflow
		}
		total, overflow := new(uint256.Int).AddOverflow(
			project.TotalStaked.Int(),
			amount,
		)
		if overflow {
			return errAmountOverflow
		}
		if err := ls.custody.TransferIn(o.ctx, token, holder, amount); err != nil {
			return transferError(err)
		}
		o.onAbort(func(ctx context.Context) error {
			return ls.custody.TransferOut(ctx, token, holder, amount)
		})
		pos.StakedAmount = types.NewAmount(staked)
		if err := ls.db.SetStakePosition(pos, o.txn); err != nil {
			return fmt.Errorf("failed to update stake position: %w", err)
		}
		project.TotalStaked = types.NewAmount(total)
		if err := ls.db.SetProjectState(project, o.txn); err != nil {
			return err
		}
		if err := ls.appendActivity(
			o,
			projectID,
			nil,
			ActivityTypeStaked,
			holder,
			amount,
		); err != nil {
			return err
		}
		o.emit(event.StakedEventType, event.StakeEvent{
			ProjectID: projectID,
			Token:     token,
			Holder:    holder,
			Amount:    amount.Clone(),
			Timestamp: o.unix(),
		})
		return nil
	})
}

// RequestUnstake moves amount from the holder's staked balance into the
// pending unstake balance. A request made while another is pending merges
// into it and restarts the delay for the combined amount.
func (ls *LedgerState) RequestUnstake(
	ctx context.Context,
	projectID uint,
	token common.Address,
	holder common.Address,
	amount *uint256.Int,
) error {
	return ls.mutate(ctx, "request_unstake", func(o *opContext) error {
		project, err := ls.loadProject(projectID, o.txn)
		if err != nil {
			return err
		}
		if !isGovernanceToken(project, token) {
			return fmt.Errorf("%w: %s", ErrNotGovernanceToken, token.Hex())
		}
		if amount == nil || amount.IsZero() {
			return ErrInvalidAmount
		}
		pos, err := ls.db.GetStakePosition(projectID, token, holder, o.txn)
		if err != nil {
			return err
		}
		staked := pos.StakedAmount.Int()
		if amount.Gt(staked) {
			return fmt.Errorf(
				"%w: requested %s, staked %s",
				ErrInsufficientStake,
				amount.Dec(),
				staked.Dec(),
			)
		}
		// staked >= amount, and the staked and unstaking amounts of a
		// position never sum past the project total
		unstaking := new(uint256.Int).Add(pos.UnstakingAmount.Int(), amount)
		pos.StakedAmount = types.NewAmount(new(uint256.Int).Sub(staked, amount))
		pos.UnstakingAmount = types.NewAmount(unstaking)
		startTime := o.unix()
		pos.UnstakingStartTime = &startTime
		if err := ls.db.SetStakePosition(pos, o.txn); err != nil {
			return fmt.Errorf("failed to update stake position: %w", err)
		}
		o.emit(event.UnstakeRequestedEventType, event.StakeEvent{
			ProjectID: projectID,
			Token:     token,
			Holder:    holder,
			Amount:    amount.Clone(),
			Timestamp: startTime,
		})
		return nil
	})
}

// CompleteUnstake returns the pending unstake balance to the holder once the
// unstake delay has elapsed, and returns the amount released
func (ls *LedgerState) CompleteUnstake(
	ctx context.Context,
	projectID uint,
	token common.Address,
	holder common.Address,
) (*uint256.Int, error) {
	var released *uint256.Int
	err := ls.mutate(ctx, "complete_unstake", func(o *opContext) error {
		project, err := ls.loadProject(projectID, o.txn)
		if err != nil {
			return err
		}
		if !isGovernanceToken(project, token) {
			return fmt.Errorf("%w: %s", ErrNotGovernanceToken, token.Hex())
		}
		pos, err := ls.db.GetStakePosition(projectID, token, holder, o.txn)
		if err != nil {
			return err
		}
		amount := pos.UnstakingAmount.Int()
		if amount.IsZero() || pos.UnstakingStartTime == nil {
			return ErrNoPendingUnstake
		}
		readyTime := ls.unstakeReadyTime(*pos.UnstakingStartTime)
		if o.unix() < readyTime {
			return fmt.Errorf(
				"%w: available at %s",
				ErrUnstakePeriodNotElapsed,
				time.Unix(readyTime, 0).UTC().Format(time.RFC3339),
			)
		}
		pos.UnstakingAmount = types.Amount{}
		pos.UnstakingStartTime = nil
		if err := ls.db.SetStakePosition(pos, o.txn); err != nil {
			return fmt.Errorf("failed to update stake position: %w", err)
		}
		total, underflow := new(uint256.Int).SubOverflow(
			project.TotalStaked.Int(),
			amount,
		)
		if underflow {
			return fmt.Errorf(
				"project %d total stake %s is below pending unstake %s",
				projectID,
				project.TotalStaked.String(),
				amount.Dec(),
			)
		}
		project.TotalStaked = types.NewAmount(total)
		if err := ls.db.SetProjectState(project, o.txn); err != nil {
			return err
		}
		if err := ls.custody.TransferOut(o.ctx, token, holder, amount); err != nil {
			return transferError(err)
		}
		o.onAbort(func(ctx context.Context) error {
			return ls.custody.TransferIn(ctx, token, holder, amount)
		})
		o.emit(event.UnstakeCompletedEventType, event.StakeEvent{
			ProjectID: projectID,
			Token:     token,
			Holder:    holder,
			Amount:    amount.Clone(),
			Timestamp: o.unix(),
		})
		released = amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

func (ls *LedgerState) unstakeReadyTime(startTime int64) int64 {
	return startTime + int64(ls.config.UnstakeDelay/time.Second)
}

// VotingWeight returns the sum of the holder's staked balances across the
// project's governance tokens. Pending unstake balances carry no weight.
func (ls *LedgerState) VotingWeight(
	projectID uint,
	holder common.Address,
) (*uint256.Int, error) {
	var ret *uint256.Int
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		project, err := ls.loadProject(projectID, txn)
		if err != nil {
			return err
		}
		ret, err = ls.votingWeight(project, holder, txn)
		return err
	})
	return ret, err
}

func (ls *LedgerState) votingWeight(
	project *models.Project,
	holder common.Address,
	txn *database.Txn,
) (*uint256.Int, error) {
	positions, err := ls.db.GetHolderStakePositions(project.ID, holder, txn)
	if err != nil {
		return nil, err
	}
	weight := new(uint256.Int)
	for _, pos := range positions {
		if !isGovernanceToken(project, common.BytesToAddress(pos.Token)) {
			continue
		}
		if _, overflow := weight.AddOverflow(
			weight,
			pos.StakedAmount.Int(),
		); overflow {
			return nil, errAmountOverflow
		}
	}
	return weight, nil
}

// GetUserStake returns the holder's position for every governance token of
// the project, in token order, along with the resulting voting weight
func (ls *LedgerState) GetUserStake(
	projectID uint,
	holder common.Address,
) (UserStake, error) {
	ret := UserStake{ProjectID: projectID, Holder: holder}
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		project, err := ls.loadProject(projectID, txn)
		if err != nil {
			return err
		}
		positions, err := ls.db.GetHolderStakePositions(projectID, holder, txn)
		if err != nil {
			return err
		}
		weight := new(uint256.Int)
		for _, token := range projectTokens(project) {
			pos, found := lo.Find(
				positions,
				func(p models.StakePosition) bool {
					return bytes.Equal(p.Token, token.Bytes())
				},
			)
			if !found {
				pos = models.StakePosition{Token: token.Bytes()}
			}
			view := ls.stakePositionFromModel(&pos)
			weight.Add(weight, view.StakedAmount)
			ret.Positions = append(ret.Positions, view)
		}
		ret.VotingWeight = weight
		return nil
	})
	return ret, err
}

// Stakers returns the holders with a staked or pending unstake balance in the
// project, in the order they first staked
func (ls *LedgerState) Stakers(projectID uint) ([]common.Address, error) {
	var ret []common.Address
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		if _, err := ls.loadProject(projectID, txn); err != nil {
			return err
		}
		positions, err := ls.db.GetStakePositions(projectID, txn)
		if err != nil {
			return err
		}
		active := lo.Filter(positions, func(p models.StakePosition, _ int) bool {
			return !p.StakedAmount.IsZero() || !p.UnstakingAmount.IsZero()
		})
		ret = lo.Uniq(
			lo.Map(active, func(p models.StakePosition, _ int) common.Address {
				return common.BytesToAddress(p.Holder)
			}),
		)
		return nil
	})
	return ret, err
}

// StakerCount returns the number of holders reported by Stakers
func (ls *LedgerState) StakerCount(projectID uint) (int, error) {
	stakers, err := ls.Stakers(projectID)
	if err != nil {
		return 0, err
	}
	return len(stakers), nil
}

func (ls *LedgerState) stakePositionFromModel(
	pos *models.StakePosition,
) StakePosition {
	ret := StakePosition{
		Token:           common.BytesToAddress(pos.Token),
		StakedAmount:    pos.StakedAmount.Int(),
		UnstakingAmount: pos.UnstakingAmount.Int(),
	}
	if pos.UnstakingStartTime != nil {
		start := *pos.UnstakingStartTime
		ready := ls.unstakeReadyTime(start)
		ret.UnstakingStartTime = &start
		ret.UnstakeReadyTime = &ready
	}
	return ret
}
