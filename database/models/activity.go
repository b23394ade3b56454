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

const (
	ActivityTypeProjectCreated    = 0
	ActivityTypeProposalCreated   = 1
	ActivityTypeStaked            = 2
	ActivityTypeVoted             = 3
	ActivityTypeProposalCompleted = 4
)

// Activity is one entry of the append-only per-project activity log. The
// primary key gives the insertion order.
type Activity struct {
	User         []byte       `gorm:"size:20;not null"`
	Amount       types.Amount `gorm:"not null"`
	ProposalID   *uint
	ID           uint  `gorm:"primarykey"`
	ProjectID    uint  `gorm:"index;not null"`
	Timestamp    int64 `gorm:"not null"`
	ActivityType uint8 `gorm:"not null"`
}

func (Activity) TableName() string {
	return "activity"
}
