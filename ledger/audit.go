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
	"context"
	"fmt"
	"time"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Audit checks that the recorded total stake of a project equals the sum of
// its positions. When the custody store reports its holdings, the amount
// held for each governance token must also equal the staked plus unstaking
// amount of that token across all projects.
func (ls *LedgerState) Audit(
	ctx context.Context,
	projectID uint,
) (AuditReport, error) {
	ret := AuditReport{ProjectID: projectID}
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		project, err := ls.loadProject(projectID, txn)
		if err != nil {
			return err
		}
		tokens := projectTokens(project)
		audits := make(map[common.Address]*TokenAudit, len(tokens))
		for _, token := range tokens {
			audits[token] = &TokenAudit{
				Token:       token,
				Staked:      new(uint256.Int),
				Unstaking:   new(uint256.Int),
				LedgerTotal: new(uint256.Int),
			}
		}
		positionSum := new(uint256.Int)
		projects, err := ls.db.GetProjects(txn)
		if err != nil {
			return err
		}
		for _, p := range projects {
			positions, err := ls.db.GetStakePositions(p.ID, txn)
			if err != nil {
				return err
			}
			for _, pos := range positions {
				audit, ok := audits[common.BytesToAddress(pos.Token)]
				if !ok {
					continue
				}
				staked := pos.StakedAmount.Int()
				unstaking := pos.UnstakingAmount.Int()
				audit.LedgerTotal.Add(audit.LedgerTotal, staked)
				audit.LedgerTotal.Add(audit.LedgerTotal, unstaking)
				if p.ID != projectID {
					continue
				}
				audit.Staked.Add(audit.Staked, staked)
				audit.Unstaking.Add(audit.Unstaking, unstaking)
				positionSum.Add(positionSum, staked)
				positionSum.Add(positionSum, unstaking)
			}
		}
		ret.TotalStaked = project.TotalStaked.Int()
		ret.PositionSum = positionSum
		ret.Balanced = ret.TotalStaked.Eq(positionSum)
		reporter, canReport := ls.custody.(custodyReporter)
		for _, token := range tokens {
			audit := audits[token]
			if canReport {
				held, err := reporter.Held(ctx, token)
				if err != nil {
					return fmt.Errorf(
						"failed to read custody balance of %s: %w",
						token.Hex(),
						err,
					)
				}
				audit.Custodied = held
				if !held.Eq(audit.LedgerTotal) {
					ret.Balanced = false
				}
			}
			ret.Tokens = append(ret.Tokens, *audit)
		}
		return nil
	})
	if err != nil {
		return AuditReport{}, err
	}
	if !ret.Balanced {
		ls.config.Logger.Warn(
			"ledger audit found an imbalance",
			"project_id", projectID,
			"total_staked", ret.TotalStaked.Dec(),
			"position_sum", ret.PositionSum.Dec(),
		)
	}
	return ret, nil
}
