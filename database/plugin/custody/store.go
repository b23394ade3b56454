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

package custody

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/stakegov/database/plugin"
	"github.com/blinklabs-io/stakegov/database/plugin/custody/badger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// CustodyStore holds token balances on behalf of the ledger
type CustodyStore interface {
	Start() error
	Stop() error
	TransferIn(context.Context, common.Address, common.Address, *uint256.Int) error
	TransferOut(context.Context, common.Address, common.Address, *uint256.Int) error
	Mint(context.Context, common.Address, common.Address, *uint256.Int) error
	BalanceOf(context.Context, common.Address, common.Address) (*uint256.Int, error)
	Held(context.Context, common.Address) (*uint256.Int, error)
}

// New starts the named custody store. The badger store receives the data
// directory, logger and metrics registry directly.
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (CustodyStore, error) {
	if pluginName == "" || pluginName == "badger" {
		return badger.New(
			badger.WithDataDir(dataDir),
			badger.WithLogger(logger),
			badger.WithPromRegistry(promRegistry),
		)
	}
	p, err := plugin.StartPlugin(plugin.PluginTypeCustody, pluginName)
	if err != nil {
		return nil, err
	}
	store, ok := p.(CustodyStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"custody plugin '%s' does not implement the custody store",
			pluginName,
		)
	}
	return store, nil
}
