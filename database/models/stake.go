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

// StakePosition is the staked and pending-unstake balance of one holder for
// one governance token of one project. Rows are never deleted.
type StakePosition struct {
	Token              []byte       `gorm:"uniqueIndex:idx_stake_position,priority:2;size:20;not null"`
	Holder             []byte       `gorm:"uniqueIndex:idx_stake_position,priority:3;index;size:20;not null"`
	StakedAmount       types.Amount `gorm:"not null"`
	UnstakingAmount    types.Amount `gorm:"not null"`
	UnstakingStartTime *int64
	ID                 uint `gorm:"primarykey"`
	ProjectID          uint `gorm:"uniqueIndex:idx_stake_position,priority:1;not null"`
}

func (StakePosition) TableName() string {
	return "stake_position"
}
