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

package postgres

import (
	"testing"

	"github.com/blinklabs-io/stakegov/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOptionsRequiresCredentials(t *testing.T) {
	_, err := NewWithOptions()
	require.Error(t, err)

	p, err := NewWithOptions(WithDSN("postgres://u:p@db/x"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/x", p.buildDSN())
}

func TestBuildDSN(t *testing.T) {
	p, err := NewWithOptions(
		WithHost("db.internal"),
		WithPassword("secret"),
		WithPort(6543),
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		"host=db.internal user=postgres password=secret dbname=stakegov port=6543 sslmode=disable",
		p.buildDSN(),
	)
	assert.Equal(t, defaultMaxConns, p.maxConns)
}

func TestCmdlineOptionsWithoutPasswordDeferError(t *testing.T) {
	p := NewFromCmdlineOptions()
	_, isErrorPlugin := p.(*plugin.ErrorPlugin)
	assert.True(t, isErrorPlugin)
	require.Error(t, p.Start())
}
