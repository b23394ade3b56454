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
	"context"
	"log/slog"

	"github.com/blinklabs-io/stakegov"
	"github.com/blinklabs-io/stakegov/internal/config"
	"github.com/blinklabs-io/stakegov/internal/node"
	"github.com/spf13/cobra"
)

func serveRun(cfg *config.Config) error {
	logger := commonRun()

	// Run node
	if err := node.Run(cfg, logger); err != nil {
		logger.Error(err.Error())
		return err
	}
	return nil
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger with its REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCommand(cmd)
			if err != nil {
				return err
			}
			return serveRun(cfg)
		},
	}
	return cmd
}

// openNode starts the ledger without the REST API or event archive, for
// one-shot commands
func openNode(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*stakegov.Node, error) {
	opts := append(
		node.NodeOptions(cfg, logger),
		stakegov.WithApiEnabled(false),
		stakegov.WithArchive("", 0),
		stakegov.WithTracing(false),
		stakegov.WithTracingStdout(false),
	)
	n, err := stakegov.New(stakegov.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := n.Start(ctx); err != nil {
		_ = n.Stop()
		return nil, err
	}
	return n, nil
}
