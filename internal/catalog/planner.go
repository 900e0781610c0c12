package catalog

import (
	"context"
	"database/sql"
	"errors"

	"artify/internal/event"
	"artify/internal/services"
)

// Planner reports what SaveRun would do without writing.
type Planner struct {
	store *Store
}

// NewPlanner wraps store for read-only planning.
func NewPlanner(store *Store) *Planner {
	return &Planner{store: store}
}

// Outcome predicts the result of upserting ev.
func (p *Planner) Outcome(ctx context.Context, ev event.CanonicalEvent) (event.UpsertOutcome, error) {
	var storedHash string
	err := p.store.db.QueryRowContext(ctx, p.store.rebind("SELECT content_hash FROM events WHERE id = ?"), ev.ID).Scan(&storedHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return event.OutcomeNew, nil
	case err != nil:
		return "", services.Wrap(services.ErrCatalogUnavailable, "catalog", "plan", ev.ID, err)
	case storedHash != ContentHash(ev):
		return event.OutcomeUpdated, nil
	default:
		return event.OutcomeUnchanged, nil
	}
}

// Plan predicts the counts SaveRun would report for events, superseded
// canonical rows included.
func (p *Planner) Plan(ctx context.Context, events []event.CanonicalEvent) (Counts, error) {
	var counts Counts
	batchIDs := make(map[string]bool, len(events))
	batchKeys := make(map[event.SourceKey]bool)
	for _, ev := range events {
		outcome, err := p.Outcome(ctx, ev)
		if err != nil {
			return Counts{}, err
		}
		counts.Add(outcome)
		batchIDs[ev.ID] = true
		for _, key := range ev.SourceKeys() {
			batchKeys[key] = true
		}
	}

	checked := make(map[string]bool)
	for _, ev := range events {
		for _, key := range ev.SourceKeys() {
			previous, found, err := p.store.ResolveSource(ctx, key)
			if err != nil {
				return Counts{}, err
			}
			if !found || batchIDs[previous] || checked[previous] {
				continue
			}
			checked[previous] = true
			orphaned, err := p.orphanedBy(ctx, previous, batchKeys)
			if err != nil {
				return Counts{}, err
			}
			if orphaned {
				counts.Superseded++
			}
		}
	}
	return counts, nil
}

// orphanedBy reports whether every source record of the stored canonical id
// is claimed by the batch.
func (p *Planner) orphanedBy(ctx context.Context, id string, batchKeys map[event.SourceKey]bool) (bool, error) {
	rows, err := p.store.db.QueryContext(ctx,
		p.store.rebind("SELECT source_name, source_event_url FROM event_sources WHERE canonical_id = ?"), id)
	if err != nil {
		return false, services.Wrap(services.ErrCatalogUnavailable, "catalog", "plan", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key event.SourceKey
		if err := rows.Scan(&key.Source, &key.URL); err != nil {
			return false, services.Wrap(services.ErrCatalogUnavailable, "catalog", "plan", id, err)
		}
		if !batchKeys[key] {
			return false, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, services.Wrap(services.ErrCatalogUnavailable, "catalog", "plan", id, err)
	}
	return true, nil
}
