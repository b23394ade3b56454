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

package gormstore

import (
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
)

// AddActivity appends an entry to the activity log
func (s *Store) AddActivity(
	activity *models.Activity,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if result := db.Create(activity); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetActivities retrieves the activity log of a project, oldest first
func (s *Store) GetActivities(
	projectID uint,
	txn types.Txn,
) ([]models.Activity, error) {
	var activities []models.Activity
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&activities); result.Error != nil {
		return nil, result.Error
	}
	return activities, nil
}
