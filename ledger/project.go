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
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
)

// CreateProject registers a new project owned by the caller and returns its
// ID. IDs are assigned sequentially starting at 1.
func (ls *LedgerState) CreateProject(
	ctx context.Context,
	caller common.Address,
	params CreateProjectParams,
) (uint, error) {
	var projectID uint
	err := ls.mutate(ctx, "create_project", func(o *opContext) error {
		if len(params.GovernanceTokens) == 0 {
			return ErrEmptyGovernanceTokens
		}
		if dups := lo.FindDuplicates(params.GovernanceTokens); len(dups) > 0 {
			return fmt.Errorf(
				"%w: %s",
				ErrDuplicateGovernanceToken,
				dups[0].Hex(),
			)
		}
		project := &models.Project{
			Name:        params.Name,
			Bio:         params.Bio,
			LogoURI:     params.LogoURI,
			BackdropURI: params.BackdropURI,
			Creator:     caller.Bytes(),
			CreatedAt:   o.unix(),
			Active:      true,
		}
		for i, token := range params.GovernanceTokens {
			project.Tokens = append(
				project.Tokens,
				models.ProjectToken{
					Token:    token.Bytes(),
					Position: uint(i),
				},
			)
		}
		if err := ls.db.AddProject(project, o.txn); err != nil {
			return fmt.Errorf("failed to add project: %w", err)
		}
		if err := ls.appendActivity(
			o,
			project.ID,
			nil,
			ActivityTypeProjectCreated,
			caller,
			new(uint256.Int),
		); err != nil {
			return err
		}
		projectID = project.ID
		o.emit(
			event.ProjectCreatedEventType,
			event.ProjectEvent{
				ProjectID: project.ID,
				Creator:   caller,
				Name:      project.Name,
				Timestamp: o.unix(),
				Active:    true,
			},
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	ls.metrics.projects.Inc()
	ls.config.Logger.Info(
		"created project",
		"project_id", projectID,
		"creator", caller.Hex(),
		"governance_tokens", len(params.GovernanceTokens),
	)
	return projectID, nil
}

// SetProjectActive activates or deactivates a project. Only the creator may
// do this. An inactive project accepts no new stake and no new proposals.
func (ls *LedgerState) SetProjectActive(
	ctx context.Context,
	projectID uint,
	caller common.Address,
	active bool,
) error {
	return ls.mutate(ctx, "set_project_active", func(o *opContext) error {
		project, err := ls.loadProject(projectID, o.txn)
		if err != nil {
			return err
		}
		if !bytes.Equal(project.Creator, caller.Bytes()) {
			return ErrNotProjectCreator
		}
		if project.Active == active {
			return nil
		}
		project.Active = active
		if err := ls.db.SetProjectState(project, o.txn); err != nil {
			return err
		}
		o.emit(
			event.ProjectStatusEventType,
			event.ProjectEvent{
				ProjectID: project.ID,
				Creator:   caller,
				Name:      project.Name,
				Timestamp: o.unix(),
				Active:    active,
			},
		)
		return nil
	})
}

// GetProject returns a snapshot of a project
func (ls *LedgerState) GetProject(projectID uint) (Project, error) {
	var ret Project
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		project, err := ls.loadProject(projectID, txn)
		if err != nil {
			return err
		}
		ret = projectFromModel(project)
		return nil
	})
	return ret, err
}

// ListProjects returns every project in ID order
func (ls *LedgerState) ListProjects() ([]Project, error) {
	var ret []Project
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		projects, err := ls.db.GetProjects(txn)
		if err != nil {
			return err
		}
		ret = make([]Project, 0, len(projects))
		for i := range projects {
			ret = append(ret, projectFromModel(&projects[i]))
		}
		return nil
	})
	return ret, err
}

// ProjectCount returns the number of registered projects
func (ls *LedgerState) ProjectCount() (uint64, error) {
	var ret uint64
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		var err error
		ret, err = ls.db.GetProjectCount(txn)
		return err
	})
	return ret, err
}

// ProjectGovernanceTokens returns the governance tokens of a project in the
// order they were given at creation
func (ls *LedgerState) ProjectGovernanceTokens(
	projectID uint,
) ([]common.Address, error) {
	project, err := ls.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	return project.GovernanceTokens, nil
}

// ProjectStake returns the total amount staked in a project, including
// pending unstake requests
func (ls *LedgerState) ProjectStake(projectID uint) (*uint256.Int, error) {
	project, err := ls.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	return project.TotalStaked, nil
}

// IsGovernanceToken reports whether a token may be staked in a project
func (ls *LedgerState) IsGovernanceToken(
	projectID uint,
	token common.Address,
) (bool, error) {
	var ret bool
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		project, err := ls.loadProject(projectID, txn)
		if err != nil {
			return err
		}
		ret = isGovernanceToken(project, token)
		return nil
	})
	return ret, err
}

func isGovernanceToken(project *models.Project, token common.Address) bool {
	return lo.ContainsBy(project.Tokens, func(t models.ProjectToken) bool {
		return bytes.Equal(t.Token, token.Bytes())
	})
}

func projectTokens(project *models.Project) []common.Address {
	return lo.Map(project.Tokens, func(t models.ProjectToken, _ int) common.Address {
		return common.BytesToAddress(t.Token)
	})
}
