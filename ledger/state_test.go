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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/plugin/custody/badger"
	"github.com/blinklabs-io/stakegov/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testToken   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testCreator = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testHolder  = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time {
	return time.Time(c)
}

// failingPort fails outbound transfers on request
type failingPort struct {
	*badger.Vault
	failOut bool
}

func (p *failingPort) TransferOut(
	ctx context.Context,
	token common.Address,
	to common.Address,
	amount *uint256.Int,
) error {
	if p.failOut {
		return errors.New("token contract rejected transfer")
	}
	return p.Vault.TransferOut(ctx, token, to, amount)
}

func newTestState(
	t *testing.T,
	port TransferPort,
	bus *event.EventBus,
	registry prometheus.Registerer,
) (*LedgerState, *badger.Vault) {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	vault, err := badger.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, vault.Stop())
		require.NoError(t, db.Close())
	})
	if port == nil {
		port = vault
	}
	if fp, ok := port.(*failingPort); ok {
		fp.Vault = vault
	}
	ls, err := NewLedgerState(LedgerStateConfig{
		Database:     db,
		Custody:      port,
		EventBus:     bus,
		PromRegistry: registry,
		Clock:        fixedClock(time.Unix(1_700_000_000, 0)),
		UnstakeDelay: time.Nanosecond,
	})
	require.NoError(t, err)
	return ls, vault
}

func TestNewLedgerStateValidation(t *testing.T) {
	_, err := NewLedgerState(LedgerStateConfig{})
	require.Error(t, err)
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	_, err = NewLedgerState(LedgerStateConfig{Database: db})
	require.Error(t, err)
	vault, err := badger.New()
	require.NoError(t, err)
	defer vault.Stop()
	_, err = NewLedgerState(LedgerStateConfig{
		Database:     db,
		Custody:      vault,
		MinQuorumBps: 10_001,
	})
	require.Error(t, err)
	ls, err := NewLedgerState(LedgerStateConfig{Database: db, Custody: vault})
	require.NoError(t, err)
	assert.Equal(t, DefaultUnstakeDelay, ls.UnstakeDelay())
	assert.Equal(t, DefaultVotingPeriod, ls.VotingPeriod())
}

func TestAbortedOperationReversesTransfer(t *testing.T) {
	ctx := context.Background()
	ls, vault := newTestState(t, nil, nil, nil)
	require.NoError(t, vault.Mint(ctx, testToken, testHolder, uint256.NewInt(50)))

	errCommit := errors.New("store rejected write")
	err := ls.mutate(ctx, "test", func(o *opContext) error {
		if err := ls.custody.TransferIn(o.ctx, testToken, testHolder, uint256.NewInt(50)); err != nil {
			return err
		}
		o.onAbort(func(ctx context.Context) error {
			return ls.custody.TransferOut(ctx, testToken, testHolder, uint256.NewInt(50))
		})
		o.emit(event.StakedEventType, nil)
		return errCommit
	})
	require.ErrorIs(t, err, errCommit)

	bal, err := vault.BalanceOf(ctx, testToken, testHolder)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), bal.Uint64())
	held, err := vault.Held(ctx, testToken)
	require.NoError(t, err)
	assert.True(t, held.IsZero())
}

func TestCanceledContextIsRejected(t *testing.T) {
	ls, _ := newTestState(t, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ls.CreateProject(
		ctx,
		testCreator,
		CreateProjectParams{GovernanceTokens: []common.Address{testToken}},
	)
	require.ErrorIs(t, err, context.Canceled)
	count, err := ls.ProjectCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCompleteUnstakeTransferFailureKeepsPending(t *testing.T) {
	ctx := context.Background()
	port := &failingPort{}
	ls, vault := newTestState(t, port, nil, nil)
	projectID, err := ls.CreateProject(
		ctx,
		testCreator,
		CreateProjectParams{GovernanceTokens: []common.Address{testToken}},
	)
	require.NoError(t, err)
	require.NoError(t, vault.Mint(ctx, testToken, testHolder, uint256.NewInt(80)))
	require.NoError(t, ls.Stake(ctx, projectID, testToken, testHolder, uint256.NewInt(80)))
	require.NoError(t, ls.RequestUnstake(ctx, projectID, testToken, testHolder, uint256.NewInt(30)))

	port.failOut = true
	_, err = ls.CompleteUnstake(ctx, projectID, testToken, testHolder)
	require.ErrorIs(t, err, ErrTransferFailed)

	stake, err := ls.GetUserStake(projectID, testHolder)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), stake.Positions[0].UnstakingAmount.Uint64())
	project, err := ls.GetProject(projectID)
	require.NoError(t, err)
	assert.Equal(t, uint64(80), project.TotalStaked.Uint64())

	port.failOut = false
	released, err := ls.CompleteUnstake(ctx, projectID, testToken, testHolder)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), released.Uint64())
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	ctx := context.Background()
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	ls, vault := newTestState(t, nil, bus, nil)
	_, stakedCh := bus.Subscribe(event.StakedEventType)
	_, createdCh := bus.Subscribe(event.ProjectCreatedEventType)

	projectID, err := ls.CreateProject(
		ctx,
		testCreator,
		CreateProjectParams{Name: "P", GovernanceTokens: []common.Address{testToken}},
	)
	require.NoError(t, err)
	select {
	case evt := <-createdCh:
		data := evt.Data.(event.ProjectEvent)
		assert.Equal(t, projectID, data.ProjectID)
		assert.Equal(t, "P", data.Name)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for project event")
	}

	// A rejected stake publishes nothing
	err = ls.Stake(ctx, projectID, testToken, testHolder, uint256.NewInt(5))
	require.ErrorIs(t, err, ErrTransferFailed)
	select {
	case <-stakedCh:
		t.Fatal("rejected stake published an event")
	default:
	}

	require.NoError(t, vault.Mint(ctx, testToken, testHolder, uint256.NewInt(5)))
	require.NoError(t, ls.Stake(ctx, projectID, testToken, testHolder, uint256.NewInt(5)))
	select {
	case evt := <-stakedCh:
		data := evt.Data.(event.StakeEvent)
		assert.Equal(t, testHolder, data.Holder)
		assert.Equal(t, uint64(5), data.Amount.Uint64())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for stake event")
	}
}

func TestLedgerMetrics(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	ls, _ := newTestState(t, nil, nil, registry)
	_, err := ls.CreateProject(
		ctx,
		testCreator,
		CreateProjectParams{GovernanceTokens: []common.Address{testToken}},
	)
	require.NoError(t, err)
	_, err = ls.CreateProject(ctx, testCreator, CreateProjectParams{})
	require.ErrorIs(t, err, ErrEmptyGovernanceTokens)
	_, err = ls.CreateProject(
		ctx,
		testCreator,
		CreateProjectParams{
			GovernanceTokens: []common.Address{testToken, testToken},
		},
	)
	require.ErrorIs(t, err, ErrDuplicateGovernanceToken)
	_, err = ls.CreateProposal(
		ctx,
		9,
		testCreator,
		CreateProposalParams{Quorum: uint256.NewInt(0)},
	)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(ls.metrics.projects), 0)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			ls.metrics.operations.WithLabelValues("create_project"),
		),
		0,
	)
	assert.InDelta(
		t,
		1,
		testutil.ToFloat64(
			ls.metrics.operationFailures.WithLabelValues("create_proposal", "not_found"),
		),
		0,
	)
	// Rejected project creations are counted like any other rejection
	assert.InDelta(
		t,
		2,
		testutil.ToFloat64(
			ls.metrics.operationFailures.WithLabelValues("create_project", "invalid_input"),
		),
		0,
	)
	count, err := testutil.GatherAndCount(
		registry,
		"stakegov_ledger_operation_duration_seconds",
	)
	require.NoError(t, err)
	assert.Positive(t, count)
}
