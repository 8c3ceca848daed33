// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

// Package api exposes the operational HTTP surface: health, Prometheus
// metrics, persisted run summaries, and manual sync triggers.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the chi router over the given handler set. Read routes are
// bounded by requestTimeout; the manual sync trigger runs a full pipeline
// pass synchronously and carries its own, longer triggerTimeout so a slow
// upstream does not get cancelled mid-fetch by the request deadline.
func Router(h *Handlers, requestTimeout, triggerTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(100, time.Minute))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/healthz", h.Health)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
		r.Get("/api/v1/runs", h.ListRuns)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(triggerTimeout))

		r.Post("/api/v1/sync/{source}", h.TriggerSync)
	})

	return r
}
