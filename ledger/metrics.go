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
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	operations        *prometheus.CounterVec
	operationFailures *prometheus.CounterVec
	operationLatency  *prometheus.HistogramVec
	projects          prometheus.Gauge
	proposals         prometheus.Gauge
	votes             prometheus.Counter
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakegov_ledger_operations_total",
			Help: "total number of committed ledger operations",
		},
		[]string{"op"},
	)
	m.operationFailures = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakegov_ledger_operation_failures_total",
			Help: "total number of rejected ledger operations by error kind",
		},
		[]string{"op", "kind"},
	)
	m.operationLatency = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stakegov_ledger_operation_duration_seconds",
			Help:    "time spent applying a ledger operation",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"op"},
	)
	m.projects = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "stakegov_ledger_projects_int",
		Help: "number of registered projects",
	})
	m.proposals = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "stakegov_ledger_proposals_int",
		Help: "number of proposals across all projects",
	})
	m.votes = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "stakegov_ledger_votes_total",
		Help: "total number of votes cast",
	})
}

func (m *stateMetrics) observe(op string, start time.Time, err error) {
	m.operationLatency.WithLabelValues(op).Observe(
		time.Since(start).Seconds(),
	)
	if err == nil {
		m.operations.WithLabelValues(op).Inc()
		return
	}
	m.operationFailures.WithLabelValues(op, kindLabel(err)).Inc()
}

func kindLabel(err error) string {
	switch kind := ErrorKind(err); {
	case kind == nil:
		return "internal"
	case errors.Is(kind, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(kind, ErrNotFound):
		return "not_found"
	case errors.Is(kind, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(kind, ErrStateConflict):
		return "state_conflict"
	case errors.Is(kind, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(kind, ErrTimingViolation):
		return "timing_violation"
	default:
		return "transfer_failed"
	}
}
