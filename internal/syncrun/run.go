// Timesheet Billing Manager - Time-Tracking and HR Data Synchronization
// Copyright 2026 The B Team (matthewmaday-thebteam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002

package syncrun

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewmaday-thebteam/timesheet-billing-manager-sub002/internal/models"
)

// Error type discriminators recorded on a run. Each carries enough context
// (member ID, page number) to support manual investigation.
const (
	// ErrTypeEntryPoint is a failed required non-paginated call (listing the
	// workspace, the employee directory). Fatal to the affected record set.
	ErrTypeEntryPoint = "entry_point"

	// ErrTypeSubFetch is a failed required per-item call (one member's time
	// entries, one report page). Partial-critical: the run continues but can
	// no longer claim completeness.
	ErrTypeSubFetch = "sub_fetch"

	// ErrTypeSafetyLimit marks a pagination loop that hit the hard page
	// ceiling without a natural end. Silent truncation is never acceptable.
	ErrTypeSafetyLimit = "safety_limit"

	// ErrTypeEnrichment is a failed auxiliary lookup call. Warning-class:
	// display enrichment degrades but the primary record set is unaffected.
	ErrTypeEnrichment = "enrichment"

	// ErrTypeBatchWrite is a failed upsert batch.
	ErrTypeBatchWrite = "batch_write"

	// ErrTypeLease means the run could not acquire the scope lease because
	// another run holds it.
	ErrTypeLease = "lease_held"

	// ErrTypeReconcile is a failed reconciliation delete.
	ErrTypeReconcile = "reconcile"
)

// Count keys tracked on a run and reported in the summary.
const (
	CountFetched    = "fetched"
	CountNormalized = "normalized"
	CountWritten    = "written"
	CountFailed     = "failed"
	CountDeleted    = "deleted"
)

// Run is the mutable per-execution accumulator threaded by reference through
// the fetch and normalize stages. It is safe for concurrent use so bounded
// parallel sub-fetches can record their failures with correct attribution.
//
// Seal transitions the run to an immutable view consumed by the upsert and
// reconcile stages; recording against a sealed run is a programming error.
type Run struct {
	mu            sync.Mutex
	id            string
	source        models.Source
	scopeKey      string
	window        Window
	startedAt     time.Time
	fetchComplete bool
	sealed        bool
	errors        []models.RunError
	counts        map[string]int
}

// NewRun creates a run for one pipeline execution with a fresh unique run ID.
func NewRun(source models.Source, scopeKey string, window Window) *Run {
	return &Run{
		id:            uuid.NewString(),
		source:        source,
		scopeKey:      scopeKey,
		window:        window,
		startedAt:     time.Now().UTC(),
		fetchComplete: true,
		counts:        make(map[string]int),
	}
}

// ID returns the opaque unique run identifier.
func (r *Run) ID() string { return r.id }

// Source returns the source this run ingests.
func (r *Run) Source() models.Source { return r.source }

// ScopeKey returns the logical partition the run operates over.
func (r *Run) ScopeKey() string { return r.scopeKey }

// Window returns the ingestion window.
func (r *Run) Window() Window { return r.window }

// StartedAt returns the run's start timestamp. Every row written by this run
// is stamped with it.
func (r *Run) StartedAt() time.Time { return r.startedAt }

// RecordError appends an error to the run. When critical is true the run's
// fetchComplete flag is cleared, which gates reconciliation: an incomplete
// fetch cannot distinguish "deleted upstream" from "we failed to refetch it".
func (r *Run) RecordError(errType, context, message string, critical bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic(fmt.Sprintf("syncrun: RecordError(%s) on sealed run %s", errType, r.id))
	}
	r.errors = append(r.errors, models.RunError{Type: errType, Context: context, Message: message})
	if critical {
		r.fetchComplete = false
	}
}

// AddCount increments a summary counter.
func (r *Run) AddCount(key string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic(fmt.Sprintf("syncrun: AddCount(%s) on sealed run %s", key, r.id))
	}
	r.counts[key] += n
}

// FetchComplete reports whether every sub-fetch required to know the true
// upstream state of this scope and window succeeded so far.
func (r *Run) FetchComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchComplete
}

// ErrorCount returns the number of errors recorded so far.
func (r *Run) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// Seal freezes the run and returns its immutable view. Seal may be called
// once; later stages only read. Any further mutation panics.
func (r *Run) Seal() Sealed {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic(fmt.Sprintf("syncrun: Seal called twice on run %s", r.id))
	}
	r.sealed = true

	errs := make([]models.RunError, len(r.errors))
	copy(errs, r.errors)
	counts := make(map[string]int, len(r.counts))
	for k, v := range r.counts {
		counts[k] = v
	}

	return Sealed{
		id:            r.id,
		source:        r.source,
		scopeKey:      r.scopeKey,
		window:        r.window,
		startedAt:     r.startedAt,
		fetchComplete: r.fetchComplete,
		errors:        errs,
		counts:        counts,
	}
}

// Sealed is the immutable view of a finished fetch/normalize phase. It is
// handed to the upsert engine and reconciler, which only read.
type Sealed struct {
	id            string
	source        models.Source
	scopeKey      string
	window        Window
	startedAt     time.Time
	fetchComplete bool
	errors        []models.RunError
	counts        map[string]int
}

// ID returns the run identifier.
func (s Sealed) ID() string { return s.id }

// Source returns the run's source.
func (s Sealed) Source() models.Source { return s.source }

// ScopeKey returns the run's scope key.
func (s Sealed) ScopeKey() string { return s.scopeKey }

// Window returns the run's ingestion window.
func (s Sealed) Window() Window { return s.window }

// StartedAt returns the run's start timestamp.
func (s Sealed) StartedAt() time.Time { return s.startedAt }

// FetchComplete reports whether the entire fetch phase succeeded.
func (s Sealed) FetchComplete() bool { return s.fetchComplete }

// Errors returns a copy of the accumulated error list.
func (s Sealed) Errors() []models.RunError {
	out := make([]models.RunError, len(s.errors))
	copy(out, s.errors)
	return out
}

// Summary builds the run metadata summary, merging counters recorded before
// sealing with the post-seal upsert/reconcile outcomes.
func (s Sealed) Summary(written, failed, deleted int) models.RunSummary {
	counts := make(map[string]int, len(s.counts)+3)
	for k, v := range s.counts {
		counts[k] = v
	}
	counts[CountWritten] = written
	counts[CountFailed] = failed
	counts[CountDeleted] = deleted

	return models.RunSummary{
		SyncRunID:     s.id,
		SyncRunAt:     s.startedAt,
		Source:        s.source,
		ScopeKey:      s.scopeKey,
		RangeStart:    s.window.Start,
		RangeEnd:      s.window.End,
		FetchComplete: s.fetchComplete,
		FinishedAt:    time.Now().UTC(),
		RecordCounts:  counts,
		ErrorCount:    len(s.errors),
		Errors:        s.Errors(),
	}
}
