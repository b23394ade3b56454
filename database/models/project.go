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

var ErrProjectNotFound = errors.New("project not found")

// Project is a governed community with a fixed set of governance tokens.
// Only TotalStaked, ProposalCount and Active change after creation.
type Project struct {
	Tokens        []ProjectToken `gorm:"foreignKey:ProjectID"`
	Name          string         `gorm:"not null"`
	Bio           string
	LogoURI       string
	BackdropURI   string
	Creator       []byte       `gorm:"index;size:20;not null"`
	TotalStaked   types.Amount `gorm:"not null"`
	ID            uint         `gorm:"primarykey"`
	ProposalCount uint64       `gorm:"not null"`
	CreatedAt     int64        `gorm:"autoCreateTime:false;not null"`
	Active        bool         `gorm:"not null"`
}

func (Project) TableName() string {
	return "project"
}

// ProjectToken is a governance token accepted for staking by a project.
// Position preserves the order in which tokens were supplied at creation.
type ProjectToken struct {
	Token     []byte `gorm:"uniqueIndex:idx_project_token,priority:2;size:20;not null"`
	ID        uint   `gorm:"primarykey"`
	ProjectID uint   `gorm:"uniqueIndex:idx_project_token,priority:1;not null"`
	Position  uint   `gorm:"not null"`
}

func (ProjectToken) TableName() string {
	return "project_token"
}
