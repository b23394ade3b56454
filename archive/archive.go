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

package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/stakegov/ledger"
)

// Source is the read side of the ledger needed for a project export
type Source interface {
	GetProject(projectID uint) (ledger.Project, error)
	ListProposals(projectID uint) ([]ledger.Proposal, error)
	ListActivities(projectID uint) ([]ledger.Activity, error)
}

// ExportResult describes the objects written by ExportProject
type ExportResult struct {
	Keys       []string `json:"keys"`
	ProjectID  uint     `json:"projectId"`
	Activities int      `json:"activities"`
	Proposals  int      `json:"proposals"`
}

// Exporter writes project snapshots and activity logs to a sink
type Exporter struct {
	source Source
	sink   Sink
	logger *slog.Logger
}

func NewExporter(source Source, sink Sink, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Exporter{
		source: source,
		sink:   sink,
		logger: logger.With("component", "archive"),
	}
}

// ProjectKey returns the sink key of a per-project archive object
func ProjectKey(projectID uint, name string) string {
	return fmt.Sprintf("projects/%d/%s", projectID, name)
}

// ExportProject writes the project record, its proposals and its
// activity log as JSON lines
func (e *Exporter) ExportProject(
	ctx context.Context,
	projectID uint,
) (ExportResult, error) {
	ret := ExportResult{ProjectID: projectID}
	project, err := e.source.GetProject(projectID)
	if err != nil {
		return ret, err
	}
	proposals, err := e.source.ListProposals(projectID)
	if err != nil {
		return ret, err
	}
	activities, err := e.source.ListActivities(projectID)
	if err != nil {
		return ret, err
	}
	objects := []struct {
		name  string
		items []any
	}{
		{name: "project.json", items: []any{project}},
		{name: "proposals.jsonl", items: toAny(proposals)},
		{name: "activities.jsonl", items: toAny(activities)},
	}
	for _, obj := range objects {
		data, err := encodeLines(obj.items)
		if err != nil {
			return ret, err
		}
		key := ProjectKey(projectID, obj.name)
		if err := e.sink.Put(ctx, key, data); err != nil {
			return ret, fmt.Errorf("write %s: %w", key, err)
		}
		ret.Keys = append(ret.Keys, key)
	}
	ret.Proposals = len(proposals)
	ret.Activities = len(activities)
	e.logger.Info(
		"exported project",
		"project_id", projectID,
		"proposals", ret.Proposals,
		"activities", ret.Activities,
	)
	return ret, nil
}

// ExportAll exports each of the given projects, continuing past failures
func (e *Exporter) ExportAll(
	ctx context.Context,
	projects []ledger.Project,
) ([]ExportResult, error) {
	var ret []ExportResult
	var errs []error
	for _, project := range projects {
		res, err := e.ExportProject(ctx, project.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("project %d: %w", project.ID, err))
			continue
		}
		ret = append(ret, res)
	}
	return ret, errors.Join(errs...)
}

func toAny[T any](items []T) []any {
	ret := make([]any, 0, len(items))
	for _, item := range items {
		ret = append(ret, item)
	}
	return ret
}

// encodeLines renders one JSON document per line
func encodeLines(items []any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
