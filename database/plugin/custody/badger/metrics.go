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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type vaultMetrics struct {
	transfersIn  prometheus.Counter
	transfersOut prometheus.Counter
	mints        prometheus.Counter
	failures     *prometheus.CounterVec
}

func (v *Vault) registerMetrics() {
	promautoFactory := promauto.With(v.promRegistry)
	v.metrics.transfersIn = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "custody_transfers_in_total",
			Help: "number of token transfers into custody",
		},
	)
	v.metrics.transfersOut = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "custody_transfers_out_total",
			Help: "number of token transfers out of custody",
		},
	)
	v.metrics.mints = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "custody_mints_total",
			Help: "number of holder balance credits outside of custody",
		},
	)
	v.metrics.failures = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_transfer_failures_total",
			Help: "number of rejected custody transfers",
		},
		[]string{"direction"},
	)
}

func (v *Vault) countTransfer(direction string, err error) {
	if v.promRegistry == nil {
		return
	}
	if err != nil {
		v.metrics.failures.WithLabelValues(direction).Inc()
		return
	}
	switch direction {
	case directionIn:
		v.metrics.transfersIn.Inc()
	case directionOut:
		v.metrics.transfersOut.Inc()
	case directionMint:
		v.metrics.mints.Inc()
	}
}
