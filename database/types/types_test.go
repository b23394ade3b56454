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

package types_test

import (
	"testing"

	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountScanValue(t *testing.T) {
	// 2^200 does not fit any SQL integer column
	big := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	testDefs := []struct {
		amount   types.Amount
		expected string
	}{
		{amount: types.Amount{}, expected: "0"},
		{amount: types.AmountFromUint64(123), expected: "123"},
		{amount: types.NewAmount(big), expected: big.Dec()},
	}
	for _, testDef := range testDefs {
		valueOut, err := testDef.amount.Value()
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, valueOut)
		var scanned types.Amount
		require.NoError(t, scanned.Scan(valueOut))
		assert.Equal(t, testDef.amount, scanned)
		// Drivers may hand back raw bytes
		var scannedBytes types.Amount
		require.NoError(t, scannedBytes.Scan([]byte(testDef.expected)))
		assert.Equal(t, testDef.amount, scannedBytes)
	}
}

func TestAmountScanInvalid(t *testing.T) {
	var a types.Amount
	require.Error(t, a.Scan("not-a-number"))
	require.Error(t, a.Scan(int64(5)))
	require.NoError(t, a.Scan(nil))
	assert.True(t, a.IsZero())
}

func TestAmountIntIsCopy(t *testing.T) {
	a := types.AmountFromUint64(10)
	v := a.Int()
	v.AddUint64(v, 5)
	assert.Equal(t, "10", a.String())
	assert.Equal(t, "15", v.Dec())
}
