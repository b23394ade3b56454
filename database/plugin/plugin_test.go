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

package plugin_test

import (
	"testing"

	"github.com/blinklabs-io/stakegov/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock plugin implementation for testing
type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

type testOptions struct {
	dataDir string
	port    uint64
	conns   int
	gc      bool
}

func registerTestPlugin(t *testing.T, opts *testOptions) string {
	t.Helper()
	name := "test-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               name,
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: "default-dir",
				Dest:         &opts.dataDir,
			},
			{
				Name:         "port",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(1234),
				Dest:         &opts.port,
			},
			{
				Name:         "max-connections",
				Type:         plugin.PluginOptionTypeInt,
				DefaultValue: 4,
				Dest:         &opts.conns,
			},
			{
				Name:         "gc",
				Type:         plugin.PluginOptionTypeBool,
				DefaultValue: false,
				Dest:         &opts.gc,
			},
		},
	})
	return name
}

func TestRegisterAndGetPlugin(t *testing.T) {
	name := registerTestPlugin(t, &testOptions{})

	p := plugin.GetPlugin(plugin.PluginTypeMetadata, name)
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)

	// Wrong type does not match
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeCustody, name))
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, "non-existent"))

	found := false
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		if entry.Name == name {
			found = true
		}
	}
	assert.True(t, found, "plugin not in GetPlugins list")
}

func TestSetPluginOption(t *testing.T) {
	opts := &testOptions{}
	name := registerTestPlugin(t, opts)

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "data-dir", "/tmp/x"))
	assert.Equal(t, "/tmp/x", opts.dataDir)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "port", 5432))
	assert.Equal(t, uint64(5432), opts.port)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "gc", true))
	assert.True(t, opts.gc)

	// Type mismatches are rejected
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "data-dir", 123))
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "port", -1))
	// Unknown options are ignored
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "does-not-exist", "x"))
	// Unknown plugins are not
	require.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "data-dir", "x"))
}

func TestPopulateCmdlineOptions(t *testing.T) {
	opts := &testOptions{}
	name := registerTestPlugin(t, opts)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))

	prefix := "metadata-" + name + "-"
	assert.Equal(t, "default-dir", opts.dataDir)
	require.NoError(t, fs.Parse([]string{
		"--" + prefix + "data-dir=/var/lib/x",
		"--" + prefix + "max-connections=9",
	}))
	assert.Equal(t, "/var/lib/x", opts.dataDir)
	assert.Equal(t, 9, opts.conns)
	assert.Equal(t, uint64(1234), opts.port)
}

func TestProcessEnvVars(t *testing.T) {
	opts := &testOptions{}
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeCustody,
		Name:               "envtest",
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{Name: "data-dir", Type: plugin.PluginOptionTypeString, Dest: &opts.dataDir},
			{Name: "gc", Type: plugin.PluginOptionTypeBool, Dest: &opts.gc},
		},
	})
	t.Setenv("STAKEGOV_CUSTODY_ENVTEST_DATA_DIR", "/from/env")
	t.Setenv("STAKEGOV_CUSTODY_ENVTEST_GC", "true")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "/from/env", opts.dataDir)
	assert.True(t, opts.gc)

	t.Setenv("STAKEGOV_CUSTODY_ENVTEST_GC", "maybe")
	require.Error(t, plugin.ProcessEnvVars())
}

func TestProcessConfig(t *testing.T) {
	opts := &testOptions{}
	name := registerTestPlugin(t, opts)
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			name: {
				"data-dir":        "/from/config",
				"port":            6543,
				"max-connections": "12",
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/from/config", opts.dataDir)
	assert.Equal(t, uint64(6543), opts.port)
	assert.Equal(t, 12, opts.conns)
}

func TestStartPlugin(t *testing.T) {
	name := registerTestPlugin(t, &testOptions{})
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, name)
	require.NoError(t, err)
	require.NotNil(t, p)

	_, err = plugin.StartPlugin(plugin.PluginTypeMetadata, "missing")
	require.ErrorContains(t, err, "metadata plugin 'missing' not found")
}

func TestErrorPlugin(t *testing.T) {
	p := plugin.NewErrorPlugin(assert.AnError)
	require.ErrorIs(t, p.Start(), assert.AnError)
	require.NoError(t, p.Stop())
}
