// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/logging"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/metrics"
	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
)

const maxRunsLimit = 500

// RunLister reads persisted run summaries. Implemented by *store.Store.
type RunLister interface {
	ListRunSummaries(ctx context.Context, source string, limit int) ([]models.RunSummary, error)
}

// Syncer triggers on-demand pipeline runs. Implemented by *sync.Manager.
type Syncer interface {
	TriggerSync(ctx context.Context, source models.Source) error
}

// Handlers carries the API's dependencies.
type Handlers struct {
	Runs   RunLister
	Syncer Syncer
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRuns returns persisted run summaries, newest first. Optional query
// parameters: source (tracker, timetracking, hr) and limit (default 50,
// capped).
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source != "" && !models.Source(source).Valid() {
		writeError(w, r, http.StatusBadRequest, "unknown source")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}

	runs, err := h.Runs.ListRunSummaries(r.Context(), source, limit)
	if err != nil {
		logging.Error().Err(err).Msg("Run summary listing failed")
		writeError(w, r, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []models.RunSummary{}
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// TriggerSync runs one source's pipeline synchronously and reports whether
// it was accepted. Partial failures land on the persisted run summary, not
// on this response.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	source := models.Source(chi.URLParam(r, "source"))
	if !source.Valid() {
		writeError(w, r, http.StatusBadRequest, "unknown source")
		return
	}

	if err := h.Syncer.TriggerSync(r.Context(), source); err != nil {
		logging.Error().Err(err).Str("source", string(source)).Msg("Manual sync failed")
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, r, http.StatusAccepted, map[string]string{
		"status": "completed",
		"source": string(source),
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Response encoding failed")
	}
	metrics.APIRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(status)).Inc()
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}
