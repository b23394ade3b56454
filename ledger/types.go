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
	"fmt"

	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

type ProposalStatus uint8

const (
	ProposalStatusPending ProposalStatus = iota
	ProposalStatusActive
	ProposalStatusCompleted
	ProposalStatusExecuted
	ProposalStatusDefeated
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusPending:
		return "Pending"
	case ProposalStatusActive:
		return "Active"
	case ProposalStatusCompleted:
		return "Completed"
	case ProposalStatusExecuted:
		return "Executed"
	case ProposalStatusDefeated:
		return "Defeated"
	default:
		return fmt.Sprintf("ProposalStatus(%d)", uint8(s))
	}
}

func (s ProposalStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ProposalStatus) UnmarshalText(data []byte) error {
	for v := ProposalStatusPending; v <= ProposalStatusDefeated; v++ {
		if v.String() == string(data) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown proposal status: %q", string(data))
}

type ActivityType uint8

const (
	ActivityTypeProjectCreated    ActivityType = models.ActivityTypeProjectCreated
	ActivityTypeProposalCreated   ActivityType = models.ActivityTypeProposalCreated
	ActivityTypeStaked            ActivityType = models.ActivityTypeStaked
	ActivityTypeVoted             ActivityType = models.ActivityTypeVoted
	ActivityTypeProposalCompleted ActivityType = models.ActivityTypeProposalCompleted
)

func (t ActivityType) String() string {
	switch t {
	case ActivityTypeProjectCreated:
		return "ProjectCreated"
	case ActivityTypeProposalCreated:
		return "ProposalCreated"
	case ActivityTypeStaked:
		return "Staked"
	case ActivityTypeVoted:
		return "Voted"
	case ActivityTypeProposalCompleted:
		return "ProposalCompleted"
	default:
		return fmt.Sprintf("ActivityType(%d)", uint8(t))
	}
}

func (t ActivityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ActivityType) UnmarshalText(data []byte) error {
	for v := ActivityTypeProjectCreated; v <= ActivityTypeProposalCompleted; v++ {
		if v.String() == string(data) {
			*t = v
			return nil
		}
	}
	return fmt.Errorf("unknown activity type: %q", string(data))
}

// CreateProjectParams holds the descriptive fields and governance tokens of
// a new project
type CreateProjectParams struct {
	Name             string
	Bio              string
	LogoURI          string
	BackdropURI      string
	GovernanceTokens []common.Address
}

// Project is a read-only snapshot of a project
type Project struct {
	TotalStaked      *uint256.Int     `json:"totalStaked"`
	Name             string           `json:"name"`
	Bio              string           `json:"bio"`
	LogoURI          string           `json:"logoURI"`
	BackdropURI      string           `json:"backdropURI"`
	GovernanceTokens []common.Address `json:"governanceTokens"`
	Creator          common.Address   `json:"creator"`
	ID               uint             `json:"id"`
	ProposalCount    uint64           `json:"proposalCount"`
	CreatedAt        int64            `json:"createdAt"`
	Active           bool             `json:"active"`
}

// StakePosition is the position of a holder for one governance token
type StakePosition struct {
	StakedAmount       *uint256.Int   `json:"stakedAmount"`
	UnstakingAmount    *uint256.Int   `json:"unstakingAmount"`
	UnstakingStartTime *int64         `json:"unstakingStartTime,omitempty"`
	UnstakeReadyTime   *int64         `json:"unstakeReadyTime,omitempty"`
	Token              common.Address `json:"token"`
}

// UserStake lists the positions of a holder across every governance token
// of a project
type UserStake struct {
	VotingWeight *uint256.Int    `json:"votingWeight"`
	Positions    []StakePosition `json:"positions"`
	Holder       common.Address  `json:"holder"`
	ProjectID    uint            `json:"projectId"`
}

// Proposal is a read-only snapshot of a proposal with its status resolved
// at read time
type Proposal struct {
	YesVotes     *uint256.Int   `json:"yesVotes"`
	NoVotes      *uint256.Int   `json:"noVotes"`
	TotalVoted   *uint256.Int   `json:"totalVoted"`
	Quorum       *uint256.Int   `json:"quorum"`
	ExecutedTime *int64         `json:"executedTime,omitempty"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Creator      common.Address `json:"creator"`
	ID           uint           `json:"id"`
	ProjectID    uint           `json:"projectId"`
	StartTime    int64          `json:"startTime"`
	EndTime      int64          `json:"endTime"`
	Status       ProposalStatus `json:"status"`
}

// Vote is a recorded vote with the weight it contributed
type Vote struct {
	Weight     *uint256.Int   `json:"weight"`
	Voter      common.Address `json:"voter"`
	ProposalID uint           `json:"proposalId"`
	Timestamp  int64          `json:"timestamp"`
	Support    bool           `json:"support"`
}

// Activity is one entry of a project activity log
type Activity struct {
	Amount     *uint256.Int   `json:"amount"`
	ProposalID *uint          `json:"proposalId,omitempty"`
	User       common.Address `json:"user"`
	ID         uint           `json:"id"`
	ProjectID  uint           `json:"projectId"`
	Timestamp  int64          `json:"timestamp"`
	Type       ActivityType   `json:"type"`
}

// TokenAudit holds the stake sums of one governance token
type TokenAudit struct {
	Staked    *uint256.Int `json:"staked"`
	Unstaking *uint256.Int `json:"unstaking"`
	// LedgerTotal is the staked plus unstaking amount of the token across
	// all projects
	LedgerTotal *uint256.Int `json:"ledgerTotal"`
	// Custodied is the amount held by the custody store, when it reports one
	Custodied *uint256.Int   `json:"custodied,omitempty"`
	Token     common.Address `json:"token"`
}

// AuditReport compares the recorded project total with the positions that
// make it up
type AuditReport struct {
	TotalStaked *uint256.Int `json:"totalStaked"`
	PositionSum *uint256.Int `json:"positionSum"`
	Tokens      []TokenAudit `json:"tokens"`
	ProjectID   uint         `json:"projectId"`
	Balanced    bool         `json:"balanced"`
}

func projectFromModel(p *models.Project) Project {
	return Project{
		ID:          p.ID,
		Name:        p.Name,
		Bio:         p.Bio,
		LogoURI:     p.LogoURI,
		BackdropURI: p.BackdropURI,
		Creator:     common.BytesToAddress(p.Creator),
		GovernanceTokens: lo.Map(
			p.Tokens,
			func(t models.ProjectToken, _ int) common.Address {
				return common.BytesToAddress(t.Token)
			},
		),
		TotalStaked:   p.TotalStaked.Int(),
		ProposalCount: p.ProposalCount,
		CreatedAt:     p.CreatedAt,
		Active:        p.Active,
	}
}

func voteFromModel(v *models.Vote) Vote {
	return Vote{
		ProposalID: v.ProposalID,
		Voter:      common.BytesToAddress(v.Voter),
		Weight:     v.Weight.Int(),
		Support:    v.Support,
		Timestamp:  v.AddedTime,
	}
}

func activityFromModel(a *models.Activity) Activity {
	return Activity{
		ID:         a.ID,
		ProjectID:  a.ProjectID,
		ProposalID: a.ProposalID,
		Type:       ActivityType(a.ActivityType),
		User:       common.BytesToAddress(a.User),
		Amount:     a.Amount.Int(),
		Timestamp:  a.Timestamp,
	}
}
