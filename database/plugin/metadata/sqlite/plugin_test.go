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

package sqlite

import (
	"testing"

	"github.com/blinklabs-io/stakegov/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginRegistration(t *testing.T) {
	var entry *plugin.PluginEntry
	for _, e := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		if e.Name == "sqlite" {
			entry = &e
			break
		}
	}
	require.NotNil(t, entry, "sqlite plugin not registered")
	require.Len(t, entry.Options, 1)
	assert.Equal(t, "data-dir", entry.Options[0].Name)
	assert.Equal(t, DefaultDataDir, entry.Options[0].DefaultValue)
	assert.Contains(t, entry.Options[0].Description, "in memory")
}

func TestPluginEmptyDataDirIsInMemory(t *testing.T) {
	t.Cleanup(initCmdlineOptions)
	require.NoError(
		t,
		plugin.SetPluginOption(plugin.PluginTypeMetadata, "sqlite", "data-dir", ""),
	)
	p := NewFromCmdlineOptions()
	store, ok := p.(*MetadataStoreSqlite)
	require.True(t, ok, "unexpected plugin type %T", p)
	assert.Empty(t, store.dataDir)
	require.NoError(t, store.Start())
	defer func() {
		require.NoError(t, store.Close())
	}()
	count, err := store.GetProjectCount(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
