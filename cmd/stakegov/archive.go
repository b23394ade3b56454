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

package main

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/stakegov/archive"
	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/spf13/cobra"
)

var archiveFlags = struct {
	dest string
}{}

func archiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive [project-id...]",
		Short: "Export project records and activity logs to an archive",
		Long: "Export project records, proposals and activity logs as JSON lines.\n" +
			"The destination is file://<dir>, gs://<bucket>[/prefix] or s3://<bucket>[/prefix].\n" +
			"All projects are exported when no project id is given.",
		RunE: archiveRun,
	}
	cmd.Flags().
		StringVar(&archiveFlags.dest, "dest", "", "archive destination, defaults to the archiveDest config value")
	return cmd
}

func archiveRun(cmd *cobra.Command, args []string) error {
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}
	dest := archiveFlags.dest
	if dest == "" {
		dest = cfg.ArchiveDest
	}
	if dest == "" {
		return errors.New("no archive destination, use --dest or set archiveDest")
	}
	projectIDs := make([]uint, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		projectIDs = append(projectIDs, id)
	}
	logger := toolLogger()
	n, err := openNode(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer n.Stop()
	sink, err := archive.NewSink(cmd.Context(), dest, archive.SinkOptions{
		Logger:          logger,
		Region:          cfg.ArchiveRegion,
		CredentialsFile: cfg.ArchiveCredentialsFile,
	})
	if err != nil {
		return err
	}
	defer sink.Close()
	exporter := archive.NewExporter(n.Ledger(), sink, logger)
	var projects []ledger.Project
	if len(projectIDs) == 0 {
		projects, err = n.Ledger().ListProjects()
		if err != nil {
			return err
		}
	} else {
		for _, id := range projectIDs {
			projects = append(projects, ledger.Project{ID: id})
		}
	}
	results, err := exporter.ExportAll(cmd.Context(), projects)
	for _, res := range results {
		fmt.Fprintf(
			cmd.OutOrStdout(),
			"project %d: %d proposals, %d activities\n",
			res.ProjectID,
			res.Proposals,
			res.Activities,
		)
	}
	return err
}
