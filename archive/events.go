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
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/stakegov/event"
)

const (
	DefaultEventBatchSize     = 500
	DefaultEventFlushInterval = 30 * time.Second
)

// EventArchiverConfig configures an EventArchiver
type EventArchiverConfig struct {
	Logger        *slog.Logger
	EventBus      *event.EventBus
	Sink          Sink
	BatchSize     int
	FlushInterval time.Duration
}

// EventArchiver batches ledger events and writes each batch to the sink
// as a JSON lines object
type EventArchiver struct {
	config  EventArchiverConfig
	logger  *slog.Logger
	subs    map[event.EventType]event.EventSubscriberId
	pending []eventRecord
	flushCh chan struct{}
	doneCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	seq     uint64
	stopped bool
}

type eventRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      any             `json:"data"`
	Type      event.EventType `json:"type"`
}

func NewEventArchiver(cfg EventArchiverConfig) (*EventArchiver, error) {
	if cfg.EventBus == nil {
		return nil, fmt.Errorf("event archiver: event bus not set")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("event archiver: sink not set")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEventBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultEventFlushInterval
	}
	return &EventArchiver{
		config:  cfg,
		logger:  cfg.Logger.With("component", "archive"),
		subs:    make(map[event.EventType]event.EventSubscriberId),
		flushCh: make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start subscribes to all ledger events and starts the flush loop
func (a *EventArchiver) Start() {
	for _, evtType := range event.LedgerEventTypes {
		a.subs[evtType] = a.config.EventBus.SubscribeFunc(
			evtType,
			a.handleEvent,
		)
	}
	a.wg.Add(1)
	go a.flushLoop()
}

func (a *EventArchiver) handleEvent(evt event.Event) {
	a.mu.Lock()
	a.pending = append(a.pending, eventRecord{
		Type:      evt.Type,
		Timestamp: evt.Timestamp,
		Data:      evt.Data,
	})
	full := len(a.pending) >= a.config.BatchSize
	a.mu.Unlock()
	if full {
		select {
		case a.flushCh <- struct{}{}:
		default:
		}
	}
}

func (a *EventArchiver) flushLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.doneCh:
			return
		case <-ticker.C:
		case <-a.flushCh:
		}
		if err := a.Flush(context.Background()); err != nil {
			a.logger.Error("failed to archive events", "error", err)
		}
	}
}

// Flush writes any pending events. A failed batch is kept and retried on
// the next flush.
func (a *EventArchiver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if len(a.pending) == 0 {
		a.mu.Unlock()
		return nil
	}
	batch := a.pending
	a.pending = nil
	a.seq++
	key := fmt.Sprintf(
		"events/%d-%06d.jsonl",
		batch[0].Timestamp.UnixNano(),
		a.seq,
	)
	a.mu.Unlock()
	data, err := encodeLines(toAny(batch))
	if err == nil {
		err = a.config.Sink.Put(ctx, key, data)
	}
	if err != nil {
		a.mu.Lock()
		a.pending = append(batch, a.pending...)
		a.mu.Unlock()
		return err
	}
	a.logger.Debug("archived events", "key", key, "count", len(batch))
	return nil
}

// Stop unsubscribes from the event bus and writes any remaining events
func (a *EventArchiver) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	a.mu.Unlock()
	for evtType, subId := range a.subs {
		a.config.EventBus.Unsubscribe(evtType, subId)
	}
	close(a.doneCh)
	a.wg.Wait()
	return a.Flush(ctx)
}
