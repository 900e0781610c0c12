package ingest

import (
	"time"

	"artify/internal/catalog"
	"artify/internal/dedup"
	"artify/internal/event"
)

// Report is the outcome of one run.
type Report struct {
	RunID      string                 `json:"run_id"`
	State      event.RunState         `json:"state"`
	DryRun     bool                   `json:"dry_run"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Sources    []event.SourceRunLog   `json:"sources"`
	Events     []event.CanonicalEvent `json:"events"`
	Groups     []event.DuplicateGroup `json:"groups"`
	Dedup      dedup.Stats            `json:"dedup"`
	Catalog    catalog.Counts         `json:"catalog"`
	Error      string                 `json:"error,omitempty"`
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedSources counts sources that ended failed or partial.
func (r *Report) FailedSources() int {
	n := 0
	for _, log := range r.Sources {
		if log.Status != event.SourceSucceeded {
			n++
		}
	}
	return n
}

// AllSourcesFailed reports whether no source succeeded even partially.
func (r *Report) AllSourcesFailed() bool {
	if len(r.Sources) == 0 {
		return false
	}
	for _, log := range r.Sources {
		if log.Status != event.SourceFailed {
			return false
		}
	}
	return true
}

// Totals sums the per-source counters.
func (r *Report) Totals() event.SourceRunLog {
	var total event.SourceRunLog
	for _, log := range r.Sources {
		total.Found += log.Found
		total.Normalized += log.Normalized
		total.Rejected += log.Rejected
		total.Merged += log.Merged
	}
	return total
}

func (r *Report) transition(next event.RunState) {
	if r.State.CanTransition(next) {
		r.State = next
	}
}
