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
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/plugin/custody/badger"
	"github.com/blinklabs-io/stakegov/event"
	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var (
	tokenT    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenU    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenX    = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	creator   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	alice     = common.HexToAddress("0x2222222222222222222222222222222222222222")
	bob       = common.HexToAddress("0x3333333333333333333333333333333333333333")
	carol     = common.HexToAddress("0x4444444444444444444444444444444444444444")
	t0        = time.Unix(1_700_000_000, 0)
	votingEnd = ledger.DefaultVotingPeriod + time.Second
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testLedger struct {
	*ledger.LedgerState
	db       *database.Database
	vault    *badger.Vault
	clock    *manualClock
	eventBus *event.EventBus
	registry *prometheus.Registry
}

func newTestLedger(
	t *testing.T,
	configure ...func(*ledger.LedgerStateConfig),
) *testLedger {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	vault, err := badger.New()
	require.NoError(t, err)
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(func() {
		eventBus.Stop()
		require.NoError(t, vault.Stop())
		require.NoError(t, db.Close())
	})
	clock := &manualClock{now: t0}
	registry := prometheus.NewRegistry()
	cfg := ledger.LedgerStateConfig{
		Database:     db,
		Custody:      vault,
		EventBus:     eventBus,
		PromRegistry: registry,
		Clock:        clock,
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	ls, err := ledger.NewLedgerState(cfg)
	require.NoError(t, err)
	return &testLedger{
		LedgerState: ls,
		db:          db,
		vault:       vault,
		clock:       clock,
		eventBus:    eventBus,
		registry:    registry,
	}
}

func (l *testLedger) fund(
	t *testing.T,
	token, holder common.Address,
	amount uint64,
) {
	t.Helper()
	require.NoError(
		t,
		l.vault.Mint(context.Background(), token, holder, uint256.NewInt(amount)),
	)
}

func (l *testLedger) createProject(
	t *testing.T,
	tokens ...common.Address,
) uint {
	t.Helper()
	if len(tokens) == 0 {
		tokens = []common.Address{tokenT}
	}
	id, err := l.CreateProject(
		context.Background(),
		creator,
		ledger.CreateProjectParams{
			Name:             "P1",
			Bio:              "test project",
			GovernanceTokens: tokens,
		},
	)
	require.NoError(t, err)
	return id
}

func (l *testLedger) stake(
	t *testing.T,
	projectID uint,
	token, holder common.Address,
	amount uint64,
) {
	t.Helper()
	l.fund(t, token, holder, amount)
	require.NoError(
		t,
		l.Stake(
			context.Background(),
			projectID,
			token,
			holder,
			uint256.NewInt(amount),
		),
	)
}

func (l *testLedger) createProposal(
	t *testing.T,
	projectID uint,
	quorum uint64,
) uint {
	t.Helper()
	id, err := l.CreateProposal(
		context.Background(),
		projectID,
		creator,
		ledger.CreateProposalParams{
			Title:       "T1",
			Description: "D1",
			Quorum:      uint256.NewInt(quorum),
		},
	)
	require.NoError(t, err)
	return id
}

func (l *testLedger) balance(
	t *testing.T,
	token, holder common.Address,
) uint64 {
	t.Helper()
	bal, err := l.vault.BalanceOf(context.Background(), token, holder)
	require.NoError(t, err)
	return bal.Uint64()
}
