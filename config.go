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
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/stakegov/api"
	"github.com/blinklabs-io/stakegov/archive"
	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry           prometheus.Registerer
	logger                 *slog.Logger
	clock                  ledger.Clock
	dataDir                string
	metadataPlugin         string
	custodyPlugin          string
	custodyDir             string
	archiveDest            string
	archiveRegion          string
	archiveCredentialsFile string
	apiConfig              api.APIConfig
	unstakeDelay           time.Duration
	votingPeriod           time.Duration
	shutdownTimeout        time.Duration
	archiveInterval        time.Duration
	minQuorumBps           uint64
	apiEnabled             bool
	tracing                bool
	tracingStdout          bool
}

func (n *Node) configValidate() error {
	if n.config.minQuorumBps > 10000 {
		return errors.New("minimum quorum must be at most 10000 basis points")
	}
	if n.config.unstakeDelay < 0 || n.config.votingPeriod < 0 {
		return errors.New("unstake delay and voting period must not be negative")
	}
	if n.config.tracingStdout && !n.config.tracing {
		return errors.New("stdout tracing requires tracing to be enabled")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new stakegov config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		apiEnabled:      true,
		archiveInterval: archive.DefaultEventFlushInterval,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithCustodyPlugin specifies the custody vault plugin to use.
func WithCustodyPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.custodyPlugin = plugin
	}
}

// WithCustodyPath specifies the data directory of the custody vault. The default is to keep balances in memory
func WithCustodyPath(dir string) ConfigOptionFunc {
	return func(c *Config) {
		c.custodyDir = dir
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithClock overrides the ledger time source
func WithClock(clock ledger.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithUnstakeDelay specifies the delay between an unstake request and its completion
func WithUnstakeDelay(delay time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.unstakeDelay = delay
	}
}

// WithVotingPeriod specifies how long proposals accept votes
func WithVotingPeriod(period time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.votingPeriod = period
	}
}

// WithMinQuorumBps specifies the smallest allowed proposal quorum as basis points of the project total stake
func WithMinQuorumBps(bps uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.minQuorumBps = bps
	}
}

// WithApiListenAddress specifies the address the REST API listens on
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiConfig.ListenAddress = address
	}
}

// WithApiEnabled controls whether Run starts the REST API
func WithApiEnabled(enabled bool) ConfigOptionFunc {
	return func(c *Config) {
		c.apiEnabled = enabled
	}
}

// WithCorsOrigins specifies the browser origins allowed to call the REST API
func WithCorsOrigins(origins []string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiConfig.CorsOrigins = origins
	}
}

// WithApiMaxRequestsPerIP caps concurrent REST API requests per client address. Zero disables the limit
func WithApiMaxRequestsPerIP(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.apiConfig.MaxRequestsPerIP = limit
	}
}

// WithArchive enables event archiving to a file://, gs:// or s3:// destination
func WithArchive(dest string, interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.archiveDest = dest
		if interval > 0 {
			c.archiveInterval = interval
		}
	}
}

// WithArchiveCredentials specifies the AWS region and GCS credentials file used by cloud archive sinks
func WithArchiveCredentials(region string, credentialsFile string) ConfigOptionFunc {
	return func(c *Config) {
		c.archiveRegion = region
		c.archiveCredentialsFile = credentialsFile
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
