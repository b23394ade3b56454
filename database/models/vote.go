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

import "github.com/blinklabs-io/stakegov/database/types"

// Vote records that a voter has voted on a proposal. The unique index on
// (proposal_id, voter) is what makes a second vote impossible.
type Vote struct {
	Voter      []byte       `gorm:"uniqueIndex:idx_vote_unique,priority:2;size:20;not null"`
	Weight     types.Amount `gorm:"not null"`
	ID         uint         `gorm:"primarykey"`
	ProposalID uint         `gorm:"uniqueIndex:idx_vote_unique,priority:1;not null"`
	AddedTime  int64        `gorm:"not null"`
	Support    bool         `gorm:"not null"`
}

func (Vote) TableName() string {
	return "vote"
}
