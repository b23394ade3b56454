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

package metadata

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/plugin"
	_ "github.com/blinklabs-io/stakegov/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/stakegov/database/plugin/metadata/postgres"
	"github.com/blinklabs-io/stakegov/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

type MetadataStore interface {
	// Database
	Close() error
	Transaction() types.Txn

	// Projects
	AddProject(*models.Project, types.Txn) error
	GetProject(
		uint, // projectID
		types.Txn,
	) (*models.Project, error)
	GetProjects(types.Txn) ([]models.Project, error)
	GetProjectCount(types.Txn) (uint64, error)
	SetProjectState(*models.Project, types.Txn) error

	// Stake positions
	GetStakePosition(
		uint, // projectID
		[]byte, // token
		[]byte, // holder
		types.Txn,
	) (*models.StakePosition, error)
	GetStakePositions(
		uint, // projectID
		[]byte, // holder, empty for all holders
		types.Txn,
	) ([]models.StakePosition, error)
	SetStakePosition(*models.StakePosition, types.Txn) error

	// Proposals
	AddProposal(*models.Proposal, types.Txn) error
	GetProposal(
		uint, // proposalID
		types.Txn,
	) (*models.Proposal, error)
	GetProposals(
		uint, // projectID
		types.Txn,
	) ([]models.Proposal, error)
	SetProposal(*models.Proposal, types.Txn) error

	// Votes
	AddVote(*models.Vote, types.Txn) error
	GetVote(
		uint, // proposalID
		[]byte, // voter
		types.Txn,
	) (*models.Vote, error)
	GetVotes(
		uint, // proposalID
		types.Txn,
	) ([]models.Vote, error)

	// Activity log
	AddActivity(*models.Activity, types.Txn) error
	GetActivities(
		uint, // projectID
		types.Txn,
	) ([]models.Activity, error)
}

// New starts the named metadata store. The sqlite store receives the data
// directory, logger and metrics registry directly. Other stores are
// configured through their registered plugin options.
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	if pluginName == "" || pluginName == "sqlite" {
		return sqlite.New(dataDir, logger, promRegistry)
	}
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}
	store, ok := p.(MetadataStore)
	if !ok {
		return nil, errors.Join(
			fmt.Errorf(
				"metadata plugin '%s' does not implement the metadata store",
				pluginName,
			),
			p.Stop(),
		)
	}
	return store, nil
}
