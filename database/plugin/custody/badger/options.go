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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type VaultOptionFunc func(*Vault)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) VaultOptionFunc {
	return func(v *Vault) {
		v.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(registry prometheus.Registerer) VaultOptionFunc {
	return func(v *Vault) {
		v.promRegistry = registry
	}
}

// WithDataDir specifies the data directory to use for storage. An empty
// value keeps all balances in memory.
func WithDataDir(dataDir string) VaultOptionFunc {
	return func(v *Vault) {
		v.dataDir = dataDir
	}
}

// WithBlockCacheSize specifies the block cache size
func WithBlockCacheSize(size uint64) VaultOptionFunc {
	return func(v *Vault) {
		v.blockCacheSize = size
	}
}

// WithIndexCacheSize specifies the index cache size
func WithIndexCacheSize(size uint64) VaultOptionFunc {
	return func(v *Vault) {
		v.indexCacheSize = size
	}
}

// WithGc specifies whether value log garbage collection is enabled
func WithGc(enabled bool) VaultOptionFunc {
	return func(v *Vault) {
		v.gcEnabled = enabled
	}
}
