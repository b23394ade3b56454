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

package event

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger event types. Events are published after the originating operation
// has been committed.
const (
	ProjectCreatedEventType    = EventType("project.created")
	ProjectStatusEventType     = EventType("project.status")
	ProposalCreatedEventType   = EventType("proposal.created")
	ProposalCompletedEventType = EventType("proposal.completed")
	ProposalExecutedEventType  = EventType("proposal.executed")
	StakedEventType            = EventType("stake.staked")
	UnstakeRequestedEventType  = EventType("stake.unstake_requested")
	UnstakeCompletedEventType  = EventType("stake.unstake_completed")
	VotedEventType             = EventType("vote.cast")
)

// LedgerEventTypes lists every event type published by the ledger
var LedgerEventTypes = []EventType{
	ProjectCreatedEventType,
	ProjectStatusEventType,
	ProposalCreatedEventType,
	ProposalCompletedEventType,
	ProposalExecutedEventType,
	StakedEventType,
	UnstakeRequestedEventType,
	UnstakeCompletedEventType,
	VotedEventType,
}

// ProjectEvent is emitted when a project is created or toggled active
type ProjectEvent struct {
	Creator   common.Address `json:"creator"`
	Name      string         `json:"name"`
	ProjectID uint           `json:"projectId"`
	Timestamp int64          `json:"timestamp"`
	Active    bool           `json:"active"`
}

// StakeEvent is emitted for stake, unstake request and unstake completion
type StakeEvent struct {
	Amount    *uint256.Int   `json:"amount"`
	Token     common.Address `json:"token"`
	Holder    common.Address `json:"holder"`
	ProjectID uint           `json:"projectId"`
	Timestamp int64          `json:"timestamp"`
}

// ProposalEvent is emitted when a proposal is created, reaches a final
// outcome or is executed
type ProposalEvent struct {
	Caller     common.Address `json:"caller"`
	Status     string         `json:"status"`
	ProjectID  uint           `json:"projectId"`
	ProposalID uint           `json:"proposalId"`
	Timestamp  int64          `json:"timestamp"`
}

// VoteEvent is emitted when a vote is cast
type VoteEvent struct {
	Weight     *uint256.Int   `json:"weight"`
	Voter      common.Address `json:"voter"`
	ProjectID  uint           `json:"projectId"`
	ProposalID uint           `json:"proposalId"`
	Timestamp  int64          `json:"timestamp"`
	Support    bool           `json:"support"`
}
