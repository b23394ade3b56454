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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/stakegov"
	"github.com/blinklabs-io/stakegov/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NodeOptions maps the loaded configuration to node options
func NodeOptions(cfg *config.Config, logger *slog.Logger) []stakegov.ConfigOptionFunc {
	return []stakegov.ConfigOptionFunc{
		stakegov.WithLogger(logger),
		stakegov.WithDatabasePath(cfg.DatabasePath),
		stakegov.WithMetadataPlugin(cfg.MetadataPlugin),
		stakegov.WithCustodyPlugin(cfg.CustodyPlugin),
		stakegov.WithCustodyPath(cfg.CustodyPath),
		stakegov.WithUnstakeDelay(cfg.UnstakeDelay),
		stakegov.WithVotingPeriod(cfg.VotingPeriod),
		stakegov.WithMinQuorumBps(cfg.MinQuorumBps),
		stakegov.WithApiListenAddress(cfg.ApiListenAddress()),
		stakegov.WithCorsOrigins(cfg.CorsOrigins),
		stakegov.WithApiMaxRequestsPerIP(cfg.MaxRequestsPerIp),
		stakegov.WithArchive(cfg.ArchiveDest, cfg.ArchiveInterval),
		stakegov.WithArchiveCredentials(
			cfg.ArchiveRegion,
			cfg.ArchiveCredentialsFile,
		),
		stakegov.WithShutdownTimeout(cfg.ShutdownTimeout),
		stakegov.WithTracing(cfg.Tracing),
		stakegov.WithTracingStdout(cfg.TracingStdout),
	}
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	d, err := stakegov.New(
		stakegov.NewConfig(
			append(
				NodeOptions(cfg, logger),
				// Enable metrics with default prometheus registry
				stakegov.WithPrometheusRegistry(prometheus.DefaultRegisterer),
			)...,
		),
	)
	if err != nil {
		return err
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = config.DefaultShutdownTimeout
	}
	// Metrics and debug listener
	var metricsServer *http.Server
	metricsErrChan := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component",
			"node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErrChan <- fmt.Errorf("failed to start metrics listener: %w", err)
			}
		}()
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		errChan <- d.Run(signalCtx)
	}()

	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		// Run returns once it observes the cancelled context
		runErr = <-errChan
	case runErr = <-errChan:
		if runErr != nil {
			logger.Error("node error", "error", runErr)
		} else {
			logger.Info("node stopped")
		}
	case runErr = <-metricsErrChan:
		logger.Error("metrics listener error", "error", runErr)
		signalCtxStop()
		<-errChan
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	if err := d.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	if runErr == nil {
		logger.Info("shutdown complete")
	}
	return runErr
}
