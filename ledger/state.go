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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/stakegov/database"
	"github.com/blinklabs-io/stakegov/database/models"
	"github.com/blinklabs-io/stakegov/database/types"
	"github.com/blinklabs-io/stakegov/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultUnstakeDelay = 5 * 24 * time.Hour
	DefaultVotingPeriod = 7 * 24 * time.Hour

	// Minimum quorum is expressed in basis points of the project total stake
	maxQuorumBps = 10_000
)

// Clock supplies the current time to the ledger
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// TransferPort moves tokens between external holders and ledger custody. A
// failed call must leave no balance changed.
type TransferPort interface {
	TransferIn(
		ctx context.Context,
		token common.Address,
		from common.Address,
		amount *uint256.Int,
	) error
	TransferOut(
		ctx context.Context,
		token common.Address,
		to common.Address,
		amount *uint256.Int,
	) error
}

// custodyReporter is implemented by transfer ports that can report the
// amount of a token they hold
type custodyReporter interface {
	Held(ctx context.Context, token common.Address) (*uint256.Int, error)
}

type LedgerStateConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	Custody      TransferPort
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Clock        Clock
	UnstakeDelay time.Duration
	VotingPeriod time.Duration
	MinQuorumBps uint64
}

// LedgerState is the governance ledger engine. Every mutating operation
// holds the write lock from validation through commit, so operations are
// applied one at a time in call order.
type LedgerState struct {
	sync.RWMutex
	config  LedgerStateConfig
	db      *database.Database
	custody TransferPort
	clock   Clock
	metrics stateMetrics
}

func NewLedgerState(cfg LedgerStateConfig) (*LedgerState, error) {
	if cfg.Database == nil {
		return nil, errors.New("database must be provided")
	}
	if cfg.Custody == nil {
		return nil, errors.New("custody transfer port must be provided")
	}
	if cfg.MinQuorumBps > maxQuorumBps {
		return nil, fmt.Errorf(
			"minimum quorum of %d bps exceeds %d",
			cfg.MinQuorumBps,
			maxQuorumBps,
		)
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "ledger")
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.UnstakeDelay <= 0 {
		cfg.UnstakeDelay = DefaultUnstakeDelay
	}
	if cfg.VotingPeriod <= 0 {
		cfg.VotingPeriod = DefaultVotingPeriod
	}
	ls := &LedgerState{
		config:  cfg,
		db:      cfg.Database,
		custody: cfg.Custody,
		clock:   cfg.Clock,
	}
	ls.metrics.init(cfg.PromRegistry)
	if err := ls.loadGauges(); err != nil {
		return nil, err
	}
	return ls, nil
}

func (ls *LedgerState) loadGauges() error {
	return ls.view(func(txn *database.Txn, _ time.Time) error {
		projects, err := ls.db.GetProjects(txn)
		if err != nil {
			return fmt.Errorf("failed to load projects: %w", err)
		}
		var proposals uint64
		for _, p := range projects {
			proposals += p.ProposalCount
		}
		ls.metrics.projects.Set(float64(len(projects)))
		ls.metrics.proposals.Set(float64(proposals))
		return nil
	})
}

// UnstakeDelay returns the time an unstake request stays locked
func (ls *LedgerState) UnstakeDelay() time.Duration {
	return ls.config.UnstakeDelay
}

// VotingPeriod returns the length of the voting window of new proposals
func (ls *LedgerState) VotingPeriod() time.Duration {
	return ls.config.VotingPeriod
}

// opContext carries the state of one mutating operation
type opContext struct {
	ctx          context.Context
	txn          *database.Txn
	now          time.Time
	events       []event.Event
	compensation []func(context.Context) error
}

// emit queues an event for publication once the operation has committed
func (o *opContext) emit(eventType event.EventType, data any) {
	o.events = append(o.events, event.NewEvent(eventType, data))
}

// onAbort registers an action that reverses an external side effect if the
// operation does not commit
func (o *opContext) onAbort(fn func(context.Context) error) {
	o.compensation = append(o.compensation, fn)
}

func (o *opContext) unix() int64 {
	return o.now.Unix()
}

// mutate runs fn inside a read-write transaction under the write lock.
// Nothing fn stored is kept unless it returns nil and the commit succeeds.
// Queued events are published after the lock is released.
func (ls *LedgerState) mutate(
	ctx context.Context,
	op string,
	fn func(*opContext) error,
) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		ls.metrics.observe(op, start, err)
		return err
	}
	ls.Lock()
	o := &opContext{
		ctx: ctx,
		txn: ls.db.Transaction(true),
		now: ls.clock.Now(),
	}
	err := o.txn.Do(func(*database.Txn) error {
		return fn(o)
	})
	if err != nil {
		ls.compensate(ctx, op, o.compensation)
	}
	ls.Unlock()
	ls.metrics.observe(op, start, err)
	if err != nil {
		if ErrorKind(err) == nil {
			ls.config.Logger.Error(
				"ledger operation failed",
				"op", op,
				"error", err,
			)
		} else {
			ls.config.Logger.Debug(
				"ledger operation rejected",
				"op", op,
				"error", err,
			)
		}
		return err
	}
	if ls.config.EventBus != nil {
		for _, evt := range o.events {
			ls.config.EventBus.Publish(evt.Type, evt)
		}
	}
	return nil
}

func (ls *LedgerState) compensate(
	ctx context.Context,
	op string,
	actions []func(context.Context) error,
) {
	// The caller may have gone away, the reversal must still be attempted
	ctx = context.WithoutCancel(ctx)
	for i := len(actions) - 1; i >= 0; i-- {
		if err := actions[i](ctx); err != nil {
			ls.config.Logger.Error(
				"failed to reverse transfer of aborted operation",
				"op", op,
				"error", err,
			)
		}
	}
}

// view runs fn against a read-only transaction under the read lock
func (ls *LedgerState) view(fn func(*database.Txn, time.Time) error) error {
	ls.RLock()
	defer ls.RUnlock()
	txn := ls.db.Transaction(false)
	defer txn.Release()
	return fn(txn, ls.clock.Now())
}

func (ls *LedgerState) loadProject(
	projectID uint,
	txn *database.Txn,
) (*models.Project, error) {
	project, err := ls.db.GetProject(projectID, txn)
	if err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProject, projectID)
		}
		return nil, err
	}
	return project, nil
}

func (ls *LedgerState) loadProposal(
	proposalID uint,
	txn *database.Txn,
) (*models.Proposal, error) {
	proposal, err := ls.db.GetProposal(proposalID, txn)
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProposal, proposalID)
		}
		return nil, err
	}
	return proposal, nil
}

func (ls *LedgerState) appendActivity(
	o *opContext,
	projectID uint,
	proposalID *uint,
	activityType ActivityType,
	user common.Address,
	amount *uint256.Int,
) error {
	entry := &models.Activity{
		ProjectID:    projectID,
		ProposalID:   proposalID,
		ActivityType: uint8(activityType),
		User:         user.Bytes(),
		Amount:       types.NewAmount(amount),
		Timestamp:    o.unix(),
	}
	if err := ls.db.AddActivity(entry, o.txn); err != nil {
		return fmt.Errorf("failed to append %s activity: %w", activityType, err)
	}
	return nil
}
