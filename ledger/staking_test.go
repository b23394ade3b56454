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

package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakeValidationOrder(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	projectID := l.createProject(t)
	l.fund(t, tokenT, alice, 100)

	testDefs := []struct {
		name      string
		projectID uint
		token     common.Address
		amount    *uint256.Int
		expected  error
		kind      error
	}{
		{
			name:      "unknown project",
			projectID: 42,
			token:     tokenX,
			amount:    u(0),
			expected:  ledger.ErrUnknownProject,
			kind:      ledger.ErrNotFound,
		},
		{
			name:      "not a governance token",
			projectID: projectID,
			token:     tokenX,
			amount:    u(0),
			expected:  ledger.ErrNotGovernanceToken,
			kind:      ledger.ErrInvalidInput,
		},
		{
			name:      "zero amount",
			projectID: projectID,
			token:     tokenT,
			amount:    u(0),
			expected:  ledger.ErrInvalidAmount,
			kind:      ledger.ErrInvalidInput,
		},
		{
			name:      "nil amount",
			projectID: projectID,
			token:     tokenT,
			amount:    nil,
			expected:  ledger.ErrInvalidAmount,
			kind:      ledger.ErrInvalidInput,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := l.Stake(
				ctx,
				testDef.projectID,
				testDef.token,
				alice,
				testDef.amount,
			)
			require.ErrorIs(t, err, testDef.expected)
			require.ErrorIs(t, err, testDef.kind)
		})
	}
	// Nothing moved into custody
	assert.Equal(t, uint64(100), l.balance(t, tokenT, alice))
}

func TestStakeTransferFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	projectID := l.createProject(t)
	l.fund(t, tokenT, alice, 10)

	err := l.Stake(ctx, projectID, tokenT, alice, u(11))
	require.ErrorIs(t, err, ledger.ErrTransferFailed)
	assert.Equal(t, ledger.ErrTransferFailed, ledger.ErrorKind(err))

	project, err := l.GetProject(projectID)
	require.NoError(t, err)
	assert.True(t, project.TotalStaked.IsZero())
	stake, err := l.GetUserStake(projectID, alice)
	require.NoError(t, err)
	assert.True(t, stake.VotingWeight.IsZero())
	activities, err := l.ListActivities(projectID)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
	assert.Equal(t, uint64(10), l.balance(t, tokenT, alice))
}

func TestStakeUpdatesPositionAndTotal(t *testing.T) {
	l := newTestLedger(t)
	projectID := l.createProject(t, tokenT, tokenU)
	l.stake(t, projectID, tokenT, alice, 1000)
	l.stake(t, projectID, tokenU, alice, 250)
	l.stake(t, projectID, tokenT, bob, 500)

	project, err := l.GetProject(projectID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1750), project.TotalStaked.Uint64())
	total, err := l.ProjectStake(projectID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1750), total.Uint64())

	weight, err := l.VotingWeight(projectID, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1250), weight.Uint64())

	stake, err := l.GetUserStake(projectID, alice)
	require.NoError(t, err)
	require.Len(t, stake.Positions, 2)
	assert.Equal(t, tokenT, stake.Positions[0].Token)
	assert.Equal(t, uint64(1000), stake.Positions[0].StakedAmount.Uint64())
	assert.Equal(t, tokenU, stake.Positions[1].Token)
	assert.Equal(t, uint64(250), stake.Positions[1].StakedAmount.Uint64())
	assert.Nil(t, stake.Positions[0].UnstakingStartTime)

	stakers, err := l.Stakers(projectID)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{alice, bob}, stakers)
	count, err := l.StakerCount(projectID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUnstakeTimelockBoundary(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	projectID := l.createProject(t)
	l.stake(t, projectID, tokenT, alice, 500)

	require.NoError(t, l.RequestUnstake(ctx, projectID, tokenT, alice, u(500)))
	weight, err := l.VotingWeight(projectID, alice)
	require.NoError(t, err)
	assert.True(t, weight.IsZero())
	// Pending unstake stays part of the project total
	project, err := l.GetProject(projectID)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), project.TotalStaked.Uint64())

	l.clock.Advance(ledger.DefaultUnstakeDelay - time.Second)
	_, err = l.CompleteUnstake(ctx, projectID, tokenT, alice)
	require.ErrorIs(t, err, ledger.ErrUnstakePeriodNotElapsed)
	require.ErrorIs(t, err, ledger.ErrTimingViolation)
	assert.Zero(t, l.balance(t, tokenT, alice))

	l.clock.Advance(time.Second)
	released, err := l.CompleteUnstake(ctx, projectID, tokenT, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), released.Uint64())
	assert.Equal(t, uint64(500), l.balance(t, tokenT, alice))

	project, err = l.GetProject(projectID)
	require.NoError(t, err)
	assert.True(t, project.TotalStaked.IsZero())
	stake, err := l.GetUserStake(projectID, alice)
	require.NoError(t, err)
	assert.True(t, stake.Positions[0].UnstakingAmount.IsZero())
	assert.Nil(t, stake.Positions[0].UnstakingStartTime)

	_, err = l.CompleteUnstake(ctx, projectID, tokenT, alice)
	require.ErrorIs(t, err, ledger.ErrNoPendingUnstake)
	require.ErrorIs(t, err, ledger.ErrStateConflict)
}

func TestRequestUnstakeMergesAndRestartsDelay(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	projectID := l.createProject(t)
	l.stake(t, projectID, tokenT, alice, 1000)

	require.NoError(t, l.RequestUnstake(ctx, projectID, tokenT, alice, u(300)))
	l.clock.Advance(3 * 24 * time.Hour)
	require.NoError(t, l.RequestUnstake(ctx, projectID, tokenT, alice, u(200)))

	stake, err := l.GetUserStake(projectID, alice)
	require.NoError(t, err)
	pos := stake.Positions[0]
	assert.Equal(t, uint64(500), pos.StakedAmount.Uint64())
	assert.Equal(t, uint64(500), pos.UnstakingAmount.Uint64())
	require.NotNil(t, pos.UnstakingStartTime)
	assert.Equal(t, l.clock.Now().Unix(), *pos.UnstakingStartTime)
	require.NotNil(t, pos.UnstakeReadyTime)
	assert.Equal(
		t,
		l.clock.Now().Add(ledger.DefaultUnstakeDelay).Unix(),
		*pos.UnstakeReadyTime,
	)

	// The first tranche would have been ready here without the restart
	l.clock.Advance(2 * 24 * time.Hour)
	_, err = l.CompleteUnstake(ctx, projectID, tokenT, alice)
	require.ErrorIs(t, err, ledger.ErrTimingViolation)

	l.clock.Advance(3 * 24 * time.Hour)
	released, err := l.CompleteUnstake(ctx, projectID, tokenT, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), released.Uint64())
}

func TestRequestUnstakeValidation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	projectID := l.createProject(t)
	l.stake(t, projectID, tokenT, alice, 100)

	err := l.RequestUnstake(ctx, projectID, tokenT, alice, u(101))
	require.ErrorIs(t, err, ledger.ErrInsufficientStake)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	err = l.RequestUnstake(ctx, projectID, tokenT, bob, u(1))
	require.ErrorIs(t, err, ledger.ErrInsufficientStake)

	err = l.RequestUnstake(ctx, projectID, tokenT, alice, u(0))
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	err = l.RequestUnstake(ctx, projectID, tokenX, alice, u(1))
	require.ErrorIs(t, err, ledger.ErrNotGovernanceToken)

	// Unstaking stays possible on an inactive project
	require.NoError(t, l.SetProjectActive(ctx, projectID, creator, false))
	require.NoError(t, l.RequestUnstake(ctx, projectID, tokenT, alice, u(100)))
}

func TestConservation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	p1 := l.createProject(t, tokenT, tokenU)
	p2 := l.createProject(t, tokenT)

	l.stake(t, p1, tokenT, alice, 700)
	l.stake(t, p1, tokenU, alice, 300)
	l.stake(t, p1, tokenT, bob, 400)
	l.stake(t, p2, tokenT, carol, 900)
	require.NoError(t, l.RequestUnstake(ctx, p1, tokenT, alice, u(200)))
	require.NoError(t, l.RequestUnstake(ctx, p2, tokenT, carol, u(900)))
	l.clock.Advance(ledger.DefaultUnstakeDelay)
	_, err := l.CompleteUnstake(ctx, p2, tokenT, carol)
	require.NoError(t, err)
	require.NoError(t, l.RequestUnstake(ctx, p1, tokenT, bob, u(50)))
	l.stake(t, p2, tokenT, bob, 25)

	for _, projectID := range []uint{p1, p2} {
		report, err := l.Audit(ctx, projectID)
		require.NoError(t, err)
		assert.True(t, report.Balanced, "project %d", projectID)
		assert.Equal(t, report.TotalStaked, report.PositionSum)
		for _, tokenAudit := range report.Tokens {
			require.NotNil(t, tokenAudit.Custodied)
			assert.Equal(
				t,
				tokenAudit.LedgerTotal.Uint64(),
				tokenAudit.Custodied.Uint64(),
			)
		}
	}
	report, err := l.Audit(ctx, p1)
	require.NoError(t, err)
	require.Len(t, report.Tokens, 2)
	assert.Equal(t, uint64(850), report.Tokens[0].Staked.Uint64())
	assert.Equal(t, uint64(250), report.Tokens[0].Unstaking.Uint64())
	// Custody for T spans both projects
	assert.Equal(t, uint64(1125), report.Tokens[0].LedgerTotal.Uint64())
	assert.Equal(t, uint64(300), report.Tokens[1].LedgerTotal.Uint64())
	assert.Equal(t, uint64(1400), report.TotalStaked.Uint64())
}
