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

package models

import (
	"errors"

	"github.com/blinklabs-io/stakegov/database/types"
)

var ErrProposalNotFound = errors.New("proposal not found")

const (
	// ProposalOutcomeNone means the outcome has not been persisted yet. It is
	// still derived from the stored timestamps and tallies on read.
	ProposalOutcomeNone      = 0
	ProposalOutcomeCompleted = 1
	ProposalOutcomeDefeated  = 2
)

type Proposal struct {
	Title        string `gorm:"not null"`
	Description  string
	Creator      []byte       `gorm:"size:20;not null"`
	YesVotes     types.Amount `gorm:"not null"`
	NoVotes      types.Amount `gorm:"not null"`
	TotalVoted   types.Amount `gorm:"not null"`
	Quorum       types.Amount `gorm:"not null"`
	ExecutedTime *int64
	ID           uint  `gorm:"primarykey"`
	ProjectID    uint  `gorm:"index;not null"`
	StartTime    int64 `gorm:"not null"`
	EndTime      int64 `gorm:"index;not null"`
	Outcome      uint8 `gorm:"not null"`
	Executed     bool  `gorm:"not null"`
}

func (Proposal) TableName() string {
	return "proposal"
}
