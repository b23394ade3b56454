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

package badger_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/stakegov/database/plugin/custody/badger"
	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testToken  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testHolder = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func newTestVault(t *testing.T, opts ...badger.VaultOptionFunc) *badger.Vault {
	t.Helper()
	v, err := badger.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, v.Stop())
	})
	return v
}

func TestVaultTransferRoundTrip(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	require.NoError(t, v.Mint(ctx, testToken, testHolder, uint256.NewInt(100)))

	require.NoError(t, v.TransferIn(ctx, testToken, testHolder, uint256.NewInt(60)))
	bal, err := v.BalanceOf(ctx, testToken, testHolder)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), bal.Uint64())
	held, err := v.Held(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), held.Uint64())

	require.NoError(t, v.TransferOut(ctx, testToken, testHolder, uint256.NewInt(60)))
	bal, err = v.BalanceOf(ctx, testToken, testHolder)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal.Uint64())
	held, err = v.Held(ctx, testToken)
	require.NoError(t, err)
	assert.True(t, held.IsZero())
}

func TestVaultInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	require.NoError(t, v.Mint(ctx, testToken, testHolder, uint256.NewInt(5)))

	err := v.TransferIn(ctx, testToken, testHolder, uint256.NewInt(6))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	// Failed transfers leave balances untouched
	bal, err := v.BalanceOf(ctx, testToken, testHolder)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), bal.Uint64())

	err = v.TransferOut(ctx, testToken, testHolder, uint256.NewInt(1))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
}

func TestVaultBalancesAreKeyedByToken(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	other := common.HexToAddress("0x1000000000000000000000000000000000000009")
	require.NoError(t, v.Mint(ctx, testToken, testHolder, uint256.NewInt(10)))

	bal, err := v.BalanceOf(ctx, other, testHolder)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	require.Error(t, v.TransferIn(ctx, other, testHolder, uint256.NewInt(1)))
}

func TestVaultPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	v, err := badger.New(badger.WithDataDir(dataDir), badger.WithGc(false))
	require.NoError(t, err)
	require.NoError(t, v.Mint(ctx, testToken, testHolder, uint256.NewInt(7)))
	require.NoError(t, v.TransferIn(ctx, testToken, testHolder, uint256.NewInt(3)))
	require.NoError(t, v.Stop())

	v2 := newTestVault(t, badger.WithDataDir(dataDir), badger.WithGc(false))
	bal, err := v2.BalanceOf(ctx, testToken, testHolder)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), bal.Uint64())
	held, err := v2.Held(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), held.Uint64())
}

func TestVaultMetrics(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	v := newTestVault(t, badger.WithPromRegistry(registry))
	require.NoError(t, v.Mint(ctx, testToken, testHolder, uint256.NewInt(2)))
	require.NoError(t, v.TransferIn(ctx, testToken, testHolder, uint256.NewInt(1)))
	require.Error(t, v.TransferIn(ctx, testToken, testHolder, uint256.NewInt(5)))

	count, err := testutil.GatherAndCount(
		registry,
		"custody_transfers_in_total",
		"custody_transfer_failures_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestVaultCanceledContext(t *testing.T) {
	v := newTestVault(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(
		t,
		v.Mint(ctx, testToken, testHolder, uint256.NewInt(1)),
		context.Canceled,
	)
}
