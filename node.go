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

package stakegov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/stakegov/api"
	"github.com/blinklabs-io/stakegov/archive"
	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/plugin/custody"
	"github.com/blinklabs-io/stakegov/event"
	"github.com/blinklabs-io/stakegov/ledger"
)

const defaultShutdownTimeout = 30 * time.Second

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	custody       custody.CustodyStore
	ledgerState   *ledger.LedgerState
	api           *api.API
	archiveSink   archive.Sink
	archiver      *archive.EventArchiver
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Start opens storage, loads the ledger and starts the API and event
// archiver. It returns once all components are running.
func (n *Node) Start(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Open custody vault
	vault, err := custody.New(
		n.config.custodyPlugin,
		n.config.custodyDir,
		n.config.logger,
		n.config.promRegistry,
	)
	if err != nil {
		return fmt.Errorf("failed to open custody vault: %w", err)
	}
	n.custody = vault
	// Load state
	state, err := ledger.NewLedgerState(
		ledger.LedgerStateConfig{
			Database:     n.db,
			Custody:      n.custody,
			EventBus:     n.eventBus,
			Logger:       n.config.logger,
			PromRegistry: n.config.promRegistry,
			Clock:        n.config.clock,
			UnstakeDelay: n.config.unstakeDelay,
			VotingPeriod: n.config.votingPeriod,
			MinQuorumBps: n.config.minQuorumBps,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	n.ledgerState = state
	// Configure event archive
	if n.config.archiveDest != "" {
		sink, err := archive.NewSink(
			ctx,
			n.config.archiveDest,
			archive.SinkOptions{
				Logger:          n.config.logger,
				Region:          n.config.archiveRegion,
				CredentialsFile: n.config.archiveCredentialsFile,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		n.archiveSink = sink
		n.archiver, err = archive.NewEventArchiver(archive.EventArchiverConfig{
			Logger:        n.config.logger,
			EventBus:      n.eventBus,
			Sink:          sink,
			FlushInterval: n.config.archiveInterval,
		})
		if err != nil {
			return err
		}
		n.archiver.Start()
	}
	// Configure REST API
	if n.config.apiEnabled {
		n.api = api.New(n.config.apiConfig, n.ledgerState, n.config.logger)
		if err := n.api.Start(ctx); err != nil {
			return err
		}
	}
	projectCount, err := n.ledgerState.ProjectCount()
	if err != nil {
		return err
	}
	n.config.logger.Info(
		"node started",
		"component", "node",
		"projects", projectCount,
	)
	return nil
}

// Run starts the node and blocks until the context is cancelled or Stop
// is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

// Ledger returns the ledger state, which is nil until Start succeeds
func (n *Node) Ledger() *ledger.LedgerState {
	return n.ledgerState
}

// Custody returns the custody vault, which is nil until Start succeeds
func (n *Node) Custody() custody.CustodyStore {
	return n.custody
}

// API returns the REST API server, which is nil when the API is disabled
func (n *Node) API() *api.API {
	return n.api
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := defaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Flush archived events
	n.config.logger.Debug("shutdown phase 2: flushing archive")

	if n.archiver != nil {
		if stopErr := n.archiver.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("archive flush: %w", stopErr))
		}
	}
	if n.archiveSink != nil {
		if closeErr := n.archiveSink.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("archive close: %w", closeErr))
		}
	}

	// Phase 3: Close storage
	n.config.logger.Debug("shutdown phase 3: closing storage")

	if n.custody != nil {
		if stopErr := n.custody.Stop(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("custody close: %w", stopErr))
		}
	}
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
