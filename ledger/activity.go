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
	"time"

	"github.com/blinklabs-io/stakegov/database"
)

// ListActivities returns the activity log of a project, oldest first
func (ls *LedgerState) ListActivities(projectID uint) ([]Activity, error) {
	var ret []Activity
	err := ls.view(func(txn *database.Txn, _ time.Time) error {
		if _, err := ls.loadProject(projectID, txn); err != nil {
			return err
		}
		activities, err := ls.db.GetActivities(projectID, txn)
		if err != nil {
			return err
		}
		ret = make([]Activity, 0, len(activities))
		for i := range activities {
			ret = append(ret, activityFromModel(&activities[i]))
		}
		return nil
	})
	return ret, err
}
