// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	syncpkg "github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/sync"
)

// SyncService adapts the sync manager to suture.Service. Serve blocks until
// the context is canceled, then stops the manager and waits for in-flight
// runs.
type SyncService struct {
	Manager *syncpkg.Manager
}

// Serve implements suture.Service.
func (s *SyncService) Serve(ctx context.Context) error {
	s.Manager.Start(ctx)
	<-ctx.Done()
	s.Manager.Stop()
	return ctx.Err()
}

// HTTPService adapts an http.Server to suture.Service with graceful
// shutdown.
type HTTPService struct {
	Server          *http.Server
	ShutdownTimeout time.Duration
}

// Serve implements suture.Service. It blocks until the server fails or the
// context is canceled.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Server.ListenAndServe()
	}()

	logging.Info().Str("addr", s.Server.Addr).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		timeout := s.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		return ctx.Err()
	}
}
