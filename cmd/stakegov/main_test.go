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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken  = "0x00000000000000000000000000000000000000aa"
	testHolder = "0x2222222222222222222222222222222222222222"
)

// runCommand runs the CLI against a config file pointing at dataDir
func runCommand(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(dataDir, "stakegov.yaml")
	if _, err := os.Stat(cfgPath); err != nil {
		content := "databasePath: " + dataDir + "\nmetricsPort: 0\n"
		require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	}
	inspectFlags.json = false
	archiveFlags.dest = ""
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "stakegov "))
}

func TestListCommand(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Available metadata plugins:")
	assert.Contains(t, out, "sqlite: ")
	assert.Contains(t, out, "Available custody plugins:")
	assert.Contains(t, out, "badger: ")
}

func TestMintAndInspect(t *testing.T) {
	dataDir := t.TempDir()
	out, err := runCommand(t, dataDir, "mint", testToken, testHolder, "250")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 250")

	// Balances persist across invocations
	out, err = runCommand(t, dataDir, "mint", testToken, testHolder, "50")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 300")

	out, err = runCommand(t, dataDir, "inspect", "projects", "--json")
	require.NoError(t, err)
	var projects []ledger.Project
	require.NoError(t, json.Unmarshal([]byte(out), &projects))
	assert.Empty(t, projects)

	_, err = runCommand(t, dataDir, "inspect", "project", "1")
	require.ErrorIs(t, err, ledger.ErrUnknownProject)
}

func TestMintValidation(t *testing.T) {
	dataDir := t.TempDir()
	testDefs := [][]string{
		{"mint", "nope", testHolder, "1"},
		{"mint", testToken, "nope", "1"},
		{"mint", testToken, testHolder, "-1"},
		{"mint", testToken, testHolder, "0"},
	}
	for _, args := range testDefs {
		_, err := runCommand(t, dataDir, args...)
		assert.Error(t, err, args)
	}
}

func TestArchiveCommandRequiresDest(t *testing.T) {
	_, err := runCommand(t, t.TempDir(), "archive")
	require.Error(t, err)
}

func TestArchiveCommandEmptyLedger(t *testing.T) {
	dataDir := t.TempDir()
	archiveDir := filepath.Join(dataDir, "archive")
	out, err := runCommand(t, dataDir, "archive", "--dest", "file://"+archiveDir)
	require.NoError(t, err)
	assert.Empty(t, out)
	_, err = runCommand(t, dataDir, "archive", "--dest", "file://"+archiveDir, "7")
	require.ErrorIs(t, err, ledger.ErrUnknownProject)
}
