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

package badger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/stakegov/database/types"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	directionIn   = "in"
	directionOut  = "out"
	directionMint = "mint"

	// Key prefixes
	prefixBalance = "b" // + token + holder
	prefixHeld    = "c" // + token
)

// Vault keeps per-holder token balances and the balance held in custody by
// the ledger. Transfers move value between a holder and custody atomically.
type Vault struct {
	promRegistry   prometheus.Registerer
	db             *badger.DB
	logger         *slog.Logger
	gcTicker       *time.Ticker
	gcStopCh       chan struct{}
	metrics        vaultMetrics
	dataDir        string
	gcWg           sync.WaitGroup
	blockCacheSize uint64
	indexCacheSize uint64
	gcEnabled      bool
}

// New creates and opens a vault
func New(opts ...VaultOptionFunc) (*Vault, error) {
	v := NewWithOptions(opts...)
	if err := v.Start(); err != nil {
		return nil, err
	}
	return v, nil
}

// NewWithOptions creates a vault. Storage is not opened until Start is
// called.
func NewWithOptions(opts ...VaultOptionFunc) *Vault {
	v := &Vault{
		// Set defaults
		gcEnabled:      true,
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		v.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return v
}

// Start implements the plugin.Plugin interface
func (v *Vault) Start() error {
	var badgerOpts badger.Options
	if v.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true)
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(v.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(v.dataDir, 0o755); err != nil {
				return fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(
			filepath.Join(v.dataDir, "custody"),
		).
			WithBlockCacheSize(int64(v.blockCacheSize)). //nolint:gosec
			WithIndexCacheSize(int64(v.indexCacheSize)). //nolint:gosec
			WithCompression(options.Snappy)
	}
	badgerOpts = badgerOpts.
		WithLogger(newBadgerLogger(v.logger)).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return err
	}
	v.db = db
	if v.promRegistry != nil {
		v.registerMetrics()
	}
	if v.gcEnabled && v.dataDir != "" {
		v.gcTicker = time.NewTicker(5 * time.Minute)
		v.gcStopCh = make(chan struct{})
		v.gcWg.Add(1)
		go v.valueLogGc(v.gcTicker, v.gcStopCh)
	}
	return nil
}

func (v *Vault) valueLogGc(t *time.Ticker, stop <-chan struct{}) {
	defer v.gcWg.Done()
	for {
		select {
		case <-t.C:
			for {
				err := v.db.RunValueLogGC(0.5)
				if err == nil {
					// Run it again if it just ran successfully
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					v.logger.Warn(
						fmt.Sprintf("custody DB: GC failure: %s", err),
						"component", "custody",
					)
				}
				break
			}
		case <-stop:
			return
		}
	}
}

// Stop implements the plugin.Plugin interface
func (v *Vault) Stop() error {
	if v.gcTicker != nil {
		v.gcTicker.Stop()
		close(v.gcStopCh)
		v.gcWg.Wait()
		v.gcTicker = nil
		v.gcStopCh = nil
	}
	if v.db == nil {
		return nil
	}
	err := v.db.Close()
	v.db = nil
	return err
}

func balanceKey(token, holder common.Address) []byte {
	key := make([]byte, 0, 1+2*common.AddressLength)
	key = append(key, prefixBalance...)
	key = append(key, token.Bytes()...)
	return append(key, holder.Bytes()...)
}

func heldKey(token common.Address) []byte {
	key := make([]byte, 0, 1+common.AddressLength)
	key = append(key, prefixHeld...)
	return append(key, token.Bytes()...)
}

func readAmount(txn *badger.Txn, key []byte) (*uint256.Int, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return new(uint256.Int), nil
		}
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(val), nil
}

func writeAmount(txn *badger.Txn, key []byte, amount *uint256.Int) error {
	if amount.IsZero() {
		return txn.Delete(key)
	}
	val := amount.Bytes32()
	return txn.Set(key, val[:])
}

// move debits one key and credits another in a single badger transaction
func (v *Vault) move(
	ctx context.Context,
	debitKey, creditKey []byte,
	amount *uint256.Int,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.db == nil {
		return errors.New("custody vault is not started")
	}
	return v.db.Update(func(txn *badger.Txn) error {
		if debitKey != nil {
			balance, err := readAmount(txn, debitKey)
			if err != nil {
				return err
			}
			if balance.Lt(amount) {
				return types.ErrInsufficientBalance
			}
			if err := writeAmount(txn, debitKey, balance.Sub(balance, amount)); err != nil {
				return err
			}
		}
		balance, err := readAmount(txn, creditKey)
		if err != nil {
			return err
		}
		if _, overflow := balance.AddOverflow(balance, amount); overflow {
			return errors.New("balance overflow")
		}
		return writeAmount(txn, creditKey, balance)
	})
}

// TransferIn moves tokens from a holder into custody
func (v *Vault) TransferIn(
	ctx context.Context,
	token common.Address,
	from common.Address,
	amount *uint256.Int,
) error {
	err := v.move(ctx, balanceKey(token, from), heldKey(token), amount)
	v.countTransfer(directionIn, err)
	if err != nil {
		return fmt.Errorf(
			"transfer of %s %s from %s: %w",
			amount.Dec(),
			token.Hex(),
			from.Hex(),
			err,
		)
	}
	return nil
}

// TransferOut moves tokens from custody to a holder
func (v *Vault) TransferOut(
	ctx context.Context,
	token common.Address,
	to common.Address,
	amount *uint256.Int,
) error {
	err := v.move(ctx, heldKey(token), balanceKey(token, to), amount)
	v.countTransfer(directionOut, err)
	if err != nil {
		return fmt.Errorf(
			"transfer of %s %s to %s: %w",
			amount.Dec(),
			token.Hex(),
			to.Hex(),
			err,
		)
	}
	return nil
}

// Mint credits a holder balance without touching custody. It is used to
// fund accounts in development setups.
func (v *Vault) Mint(
	ctx context.Context,
	token common.Address,
	to common.Address,
	amount *uint256.Int,
) error {
	err := v.move(ctx, nil, balanceKey(token, to), amount)
	v.countTransfer(directionMint, err)
	if err == nil {
		v.logger.Debug(
			"minted tokens",
			"component", "custody",
			"token", token.Hex(),
			"to", to.Hex(),
			"amount", amount.Dec(),
		)
	}
	return err
}

func (v *Vault) read(ctx context.Context, key []byte) (*uint256.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v.db == nil {
		return nil, errors.New("custody vault is not started")
	}
	var ret *uint256.Int
	err := v.db.View(func(txn *badger.Txn) error {
		var err error
		ret, err = readAmount(txn, key)
		return err
	})
	return ret, err
}

// BalanceOf returns the balance of a holder outside of custody
func (v *Vault) BalanceOf(
	ctx context.Context,
	token common.Address,
	holder common.Address,
) (*uint256.Int, error) {
	return v.read(ctx, balanceKey(token, holder))
}

// Held returns the amount of a token held in custody
func (v *Vault) Held(
	ctx context.Context,
	token common.Address,
) (*uint256.Int, error) {
	return v.read(ctx, heldKey(token))
}
