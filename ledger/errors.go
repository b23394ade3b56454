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

package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a ledger operation matches exactly
// one of these with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrStateConflict     = errors.New("state conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTimingViolation   = errors.New("timing violation")
	ErrTransferFailed    = errors.New("transfer failed")
)

var errorKinds = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrUnauthorized,
	ErrStateConflict,
	ErrInsufficientFunds,
	ErrTimingViolation,
	ErrTransferFailed,
}

// Error is a specific ledger failure belonging to one error kind
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap returns the error kind so that errors.Is matches it
func (e *Error) Unwrap() error {
	return e.kind
}

// Kind returns the error kind
func (e *Error) Kind() error {
	return e.kind
}

var (
	ErrUnknownProject           = newError(ErrNotFound, "unknown project")
	ErrUnknownProposal          = newError(ErrNotFound, "unknown proposal")
	ErrEmptyGovernanceTokens    = newError(ErrInvalidInput, "governance token list is empty")
	ErrDuplicateGovernanceToken = newError(ErrInvalidInput, "duplicate governance token")
	ErrNotGovernanceToken       = newError(ErrInvalidInput, "token is not a governance token of the project")
	ErrInvalidAmount            = newError(ErrInvalidInput, "amount must be greater than zero")
	ErrInvalidQuorum            = newError(ErrInvalidInput, "invalid quorum")
	ErrNotProjectCreator        = newError(ErrUnauthorized, "caller is not the project creator")
	ErrInsufficientStake        = newError(ErrInsufficientFunds, "amount exceeds staked balance")
	ErrNoVotingWeight           = newError(ErrInsufficientFunds, "voter has no voting weight")
	ErrProjectInactive          = newError(ErrStateConflict, "project is inactive")
	ErrNoPendingUnstake         = newError(ErrStateConflict, "no pending unstake request")
	ErrProposalNotActive        = newError(ErrStateConflict, "proposal is not active")
	ErrAlreadyVoted             = newError(ErrStateConflict, "voter has already voted")
	ErrNotEligible              = newError(ErrStateConflict, "proposal did not pass")
	ErrAlreadyExecuted          = newError(ErrStateConflict, "proposal already executed")
	ErrUnstakePeriodNotElapsed  = newError(ErrTimingViolation, "unstake delay has not elapsed")
	ErrVotingNotEnded           = newError(ErrTimingViolation, "voting period has not ended")
)

// ErrorKind returns the kind of a ledger error, or nil for errors that did
// not originate from ledger validation
func ErrorKind(err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func transferError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransferFailed, err)
}
