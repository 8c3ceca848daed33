// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package main is the entry point for the timesheet sync daemon.
//
// The daemon periodically pulls time entries, the employee directory, and
// time-off requests from three upstream systems (a project/task tracker, a
// time-tracking service, and an HR platform), normalizes them into billing
// rows, and merges them idempotently into a DuckDB store. After each
// complete fetch it reconciles the store against upstream, deleting rows
// that disappeared at the source within the synced month window.
//
// # Application Architecture
//
// The daemon initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config file (Koanf v2)
//  2. Store: Open DuckDB and apply the schema
//  3. Source clients: one per enabled upstream, each with circuit breaker and rate limit
//  4. Pipeline and sync manager: scheduled per-source sync loops
//  5. HTTP server: health, metrics, run history, and manual trigger endpoints
//
// All long-running services run under a suture supervision tree.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (TRACKER_API_TOKEN, SYNC_INTERVAL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// At least one source must be enabled:
//   - Tracker: TRACKER_ENABLED=true, TRACKER_BASE_URL, TRACKER_API_TOKEN, TRACKER_WORKSPACE_ID
//   - Time tracking: TIMETRACKING_ENABLED=true, TIMETRACKING_BASE_URL, TIMETRACKING_API_KEY, TIMETRACKING_WORKSPACE_ID
//   - HR: HR_ENABLED=true, HR_BASE_URL, HR_API_KEY, HR_COMPANY_ID
//
// # Signal Handling
//
// The daemon handles graceful shutdown on SIGINT and SIGTERM: scheduling
// loops stop, in-flight sync runs finish, the HTTP server drains, and the
// store closes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/api"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/store"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/supervisor"
	syncpkg "github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors fall back to the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize logging")
	}

	logging.Info().
		Bool("tracker", cfg.Tracker.Enabled).
		Bool("timetracking", cfg.TimeTracking.Enabled).
		Bool("hr", cfg.HR.Enabled).
		Str("db_path", cfg.Database.Path).
		Dur("interval", cfg.Sync.Interval).
		Msg("Configuration loaded")

	st, err := store.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	var trackerClient syncpkg.TrackerClientInterface
	if cfg.Tracker.Enabled {
		trackerClient = syncpkg.NewTrackerClient(&cfg.Tracker, cfg.Sync.RequestTimeout, cfg.Sync.RequestsPerSecond)
	}
	var timeTrackingClient syncpkg.TimeTrackingClientInterface
	if cfg.TimeTracking.Enabled {
		timeTrackingClient = syncpkg.NewTimeTrackingClient(&cfg.TimeTracking, cfg.Sync.RequestTimeout, cfg.Sync.RequestsPerSecond)
	}
	var hrClient syncpkg.HRClientInterface
	if cfg.HR.Enabled {
		hrClient = syncpkg.NewHRClient(&cfg.HR, cfg.Sync.RequestTimeout, cfg.Sync.RequestsPerSecond)
	}

	pipeline := syncpkg.NewPipeline(cfg, st, trackerClient, timeTrackingClient, hrClient)
	manager := syncpkg.NewManager(cfg, pipeline)

	handlers := &api.Handlers{Runs: st, Syncer: manager}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.Router(handlers, cfg.Server.Timeout, cfg.Server.TriggerTimeout),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddSyncService(&supervisor.SyncService{Manager: manager})
	tree.AddAPIService(&supervisor.HTTPService{Server: httpServer})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		if err := <-errCh; err != nil && err != context.Canceled {
			logging.Error().Err(err).Msg("Supervisor tree exited with error")
		}
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logging.Fatal().Err(err).Msg("Supervisor tree failed")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
