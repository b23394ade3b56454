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

package types

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Amount is a 256-bit token amount stored as a decimal string. Token
// balances routinely exceed the range of the native SQL integer types.
//
//nolint:recvcheck
type Amount uint256.Int

// NewAmount returns an Amount holding a copy of the given value. A nil value
// is treated as zero.
func NewAmount(v *uint256.Int) Amount {
	if v == nil {
		return Amount{}
	}
	return Amount(*v)
}

// AmountFromUint64 returns an Amount for a small integer value
func AmountFromUint64(v uint64) Amount {
	return NewAmount(uint256.NewInt(v))
}

// Int returns a copy of the amount as a *uint256.Int
func (a Amount) Int() *uint256.Int {
	v := uint256.Int(a)
	return &v
}

// IsZero reports whether the amount is zero
func (a Amount) IsZero() bool {
	return a.Int().IsZero()
}

func (a Amount) String() string {
	return a.Int().Dec()
}

// GormDataType tells gorm which column type to use for the field
func (Amount) GormDataType() string {
	return "text"
}

func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(val any) error {
	var v string
	switch tv := val.(type) {
	case string:
		v = tv
	case []byte:
		v = string(tv)
	case nil:
		*a = Amount{}
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if v == "" {
		*a = Amount{}
		return nil
	}
	tmp, err := uint256.FromDecimal(v)
	if err != nil {
		return fmt.Errorf("failed to parse amount %q: %w", v, err)
	}
	*a = Amount(*tmp)
	return nil
}

// ErrTxnWrongType is returned when a transaction has the wrong type
var ErrTxnWrongType = errors.New("invalid transaction type")

// ErrNilTxn is returned when a nil transaction is provided where a valid transaction is required
var ErrNilTxn = errors.New("nil transaction")

// ErrTxnFinished is returned when a transaction is used after commit or rollback
var ErrTxnFinished = errors.New("transaction already finished")

// ErrNoStoreAvailable is returned when no metadata store is available
var ErrNoStoreAvailable = errors.New("no store available")

// ErrDuplicateVote is returned by the store when a vote record already exists
// for a proposal and voter
var ErrDuplicateVote = errors.New("duplicate vote record")

// Txn is a simple transaction handle for commit/rollback only.
// Database layer (Txn) coordinates store operations.
type Txn interface {
	Commit() error
	Rollback() error
}

// ErrInsufficientBalance is returned by the custody store when a debit
// exceeds the available balance
var ErrInsufficientBalance = errors.New("insufficient balance")
