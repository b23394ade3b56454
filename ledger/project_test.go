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

	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectAssignsSequentialIDs(t *testing.T) {
	l := newTestLedger(t)
	first := l.createProject(t)
	second := l.createProject(t, tokenT, tokenU)
	assert.Equal(t, uint(1), first)
	assert.Equal(t, uint(2), second)

	count, err := l.ProjectCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	project, err := l.GetProject(second)
	require.NoError(t, err)
	assert.Equal(t, creator, project.Creator)
	assert.Equal(t, []common.Address{tokenT, tokenU}, project.GovernanceTokens)
	assert.True(t, project.Active)
	assert.True(t, project.TotalStaked.IsZero())
	assert.Equal(t, t0.Unix(), project.CreatedAt)

	activities, err := l.ListActivities(second)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, ledger.ActivityTypeProjectCreated, activities[0].Type)
	assert.Equal(t, creator, activities[0].User)
	assert.True(t, activities[0].Amount.IsZero())
}

func TestCreateProjectValidation(t *testing.T) {
	l := newTestLedger(t)
	testDefs := []struct {
		name     string
		tokens   []common.Address
		expected error
	}{
		{name: "empty", tokens: nil, expected: ledger.ErrEmptyGovernanceTokens},
		{
			name:     "duplicate",
			tokens:   []common.Address{tokenT, tokenU, tokenT},
			expected: ledger.ErrDuplicateGovernanceToken,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := l.CreateProject(
				context.Background(),
				creator,
				ledger.CreateProjectParams{
					Name:             "bad",
					GovernanceTokens: testDef.tokens,
				},
			)
			require.ErrorIs(t, err, testDef.expected)
			require.ErrorIs(t, err, ledger.ErrInvalidInput)
		})
	}
	count, err := l.ProjectCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGovernanceTokenQueries(t *testing.T) {
	l := newTestLedger(t)
	projectID := l.createProject(t, tokenT, tokenU)

	ok, err := l.IsGovernanceToken(projectID, tokenU)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = l.IsGovernanceToken(projectID, tokenX)
	require.NoError(t, err)
	assert.False(t, ok)

	tokens, err := l.ProjectGovernanceTokens(projectID)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{tokenT, tokenU}, tokens)

	_, err = l.IsGovernanceToken(99, tokenT)
	require.ErrorIs(t, err, ledger.ErrUnknownProject)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSetProjectActive(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	projectID := l.createProject(t)

	err := l.SetProjectActive(ctx, projectID, alice, false)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	require.NoError(t, l.SetProjectActive(ctx, projectID, creator, false))
	project, err := l.GetProject(projectID)
	require.NoError(t, err)
	assert.False(t, project.Active)

	l.fund(t, tokenT, alice, 10)
	err = l.Stake(ctx, projectID, tokenT, alice, u(10))
	require.ErrorIs(t, err, ledger.ErrProjectInactive)
	require.ErrorIs(t, err, ledger.ErrStateConflict)

	_, err = l.CreateProposal(
		ctx,
		projectID,
		creator,
		ledger.CreateProposalParams{Title: "x", Quorum: u(0)},
	)
	require.ErrorIs(t, err, ledger.ErrProjectInactive)

	require.NoError(t, l.SetProjectActive(ctx, projectID, creator, true))
	require.NoError(t, l.Stake(ctx, projectID, tokenT, alice, u(10)))
}

func TestReadsAreIdempotent(t *testing.T) {
	l := newTestLedger(t)
	projectID := l.createProject(t)
	l.stake(t, projectID, tokenT, alice, 100)
	l.stake(t, projectID, tokenT, bob, 50)
	proposalID := l.createProposal(t, projectID, 10)
	_, err := l.Vote(context.Background(), proposalID, bob, false)
	require.NoError(t, err)

	project1, err := l.GetProject(projectID)
	require.NoError(t, err)
	project2, err := l.GetProject(projectID)
	require.NoError(t, err)
	assert.Equal(t, project1, project2)

	activities1, err := l.ListActivities(projectID)
	require.NoError(t, err)
	activities2, err := l.ListActivities(projectID)
	require.NoError(t, err)
	assert.Equal(t, activities1, activities2)

	// Activity order follows call order
	types := make([]ledger.ActivityType, 0, len(activities1))
	for _, a := range activities1 {
		types = append(types, a.Type)
	}
	assert.Equal(
		t,
		[]ledger.ActivityType{
			ledger.ActivityTypeProjectCreated,
			ledger.ActivityTypeStaked,
			ledger.ActivityTypeStaked,
			ledger.ActivityTypeProposalCreated,
			ledger.ActivityTypeVoted,
		},
		types,
	)
	assert.Equal(t, alice, activities1[1].User)
	assert.Equal(t, bob, activities1[2].User)
	require.NotNil(t, activities1[4].ProposalID)
	assert.Equal(t, proposalID, *activities1[4].ProposalID)
	assert.Equal(t, uint64(50), activities1[4].Amount.Uint64())
}

func TestUnknownProjectReads(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.GetProject(1)
	require.ErrorIs(t, err, ledger.ErrUnknownProject)
	_, err = l.ListActivities(1)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = l.Stakers(1)
	require.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = l.ProjectProposals(1)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
