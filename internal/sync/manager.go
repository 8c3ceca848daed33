// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/config"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
)

// Manager schedules the pipeline: one ticker loop per enabled source, an
// optional run on startup, and synchronous on-demand triggers from the
// operational API. Per-source mutexes keep a scheduled run and a manual
// trigger of the same source from overlapping in-process; the store lease
// covers overlap across processes.
type Manager struct {
	cfg      *config.Config
	pipeline *Pipeline
	sources  []models.Source

	sourceMu map[models.Source]*stdsync.Mutex

	cancel context.CancelFunc
	wg     stdsync.WaitGroup

	startOnce stdsync.Once
	stopOnce  stdsync.Once
}

// NewManager creates a manager for the enabled sources.
func NewManager(cfg *config.Config, pipeline *Pipeline) *Manager {
	var sources []models.Source
	if cfg.Tracker.Enabled {
		sources = append(sources, models.SourceTracker)
	}
	if cfg.TimeTracking.Enabled {
		sources = append(sources, models.SourceTimeTracking)
	}
	if cfg.HR.Enabled {
		sources = append(sources, models.SourceHR)
	}

	sourceMu := make(map[models.Source]*stdsync.Mutex, len(sources))
	for _, s := range sources {
		sourceMu[s] = &stdsync.Mutex{}
	}

	return &Manager{
		cfg:      cfg,
		pipeline: pipeline,
		sources:  sources,
		sourceMu: sourceMu,
	}
}

// Sources returns the enabled sources in scheduling order.
func (m *Manager) Sources() []models.Source {
	out := make([]models.Source, len(m.sources))
	copy(out, m.sources)
	return out
}

// Start launches one scheduling loop per enabled source. It returns
// immediately; loops run until Stop.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		ctx, m.cancel = context.WithCancel(ctx)

		for _, source := range m.sources {
			m.wg.Add(1)
			go m.scheduleLoop(ctx, source)
		}

		logging.Info().
			Int("sources", len(m.sources)).
			Dur("interval", m.cfg.Sync.Interval).
			Bool("initial_sync", m.cfg.Sync.InitialSync).
			Msg("Sync manager started")
	})
}

// Stop cancels the scheduling loops and waits for in-flight runs to finish.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()
		logging.Info().Msg("Sync manager stopped")
	})
}

// TriggerSync runs one source's pipeline synchronously. It returns an error
// for unknown or disabled sources and for fatal pipeline failures; partial
// failures land on the persisted run summary.
func (m *Manager) TriggerSync(ctx context.Context, source models.Source) error {
	mu, ok := m.sourceMu[source]
	if !ok {
		return fmt.Errorf("source %q is not enabled", source)
	}

	mu.Lock()
	defer mu.Unlock()
	return m.pipeline.SyncSource(ctx, source)
}

func (m *Manager) scheduleLoop(ctx context.Context, source models.Source) {
	defer m.wg.Done()

	if m.cfg.Sync.InitialSync {
		m.runScheduled(ctx, source)
	}

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runScheduled(ctx, source)
		}
	}
}

func (m *Manager) runScheduled(ctx context.Context, source models.Source) {
	mu := m.sourceMu[source]
	mu.Lock()
	defer mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err := m.pipeline.SyncSource(ctx, source); err != nil {
		logging.Error().Err(err).Str("source", string(source)).Msg("Scheduled sync failed")
	}
}
