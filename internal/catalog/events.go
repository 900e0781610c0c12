package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"artify/internal/event"
	"artify/internal/logging"
	"artify/internal/services"
)

// Counts tallies upsert outcomes. Superseded counts stored canonical rows
// removed because every source record they held now belongs to another
// canonical event.
type Counts struct {
	New        int `json:"new"`
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
	Superseded int `json:"superseded"`
}

// Add records one outcome.
func (c *Counts) Add(outcome event.UpsertOutcome) {
	switch outcome {
	case event.OutcomeNew:
		c.New++
	case event.OutcomeUpdated:
		c.Updated++
	default:
		c.Unchanged++
	}
}

// Total returns the number of events written or confirmed.
func (c Counts) Total() int {
	return c.New + c.Updated + c.Unchanged
}

const eventColumns = "id, content_hash, payload, created_at, updated_at"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunBatch is everything one ingestion run persists.
type RunBatch struct {
	RunID  string
	Events []event.CanonicalEvent
	Groups []event.DuplicateGroup
	Logs   []event.SourceRunLog
}

// SaveRun writes a run's events, duplicate groups and run logs in one
// transaction. Nothing is written if any part fails.
func (s *Store) SaveRun(ctx context.Context, batch RunBatch) (Counts, error) {
	var counts Counts
	err := s.inTx(ctx, "save run", batch.RunID, func(tx *sql.Tx, now string) error {
		var err error
		if counts, err = s.writeEvents(ctx, tx, batch.Events, now); err != nil {
			return err
		}
		if err := s.saveGroupsTx(ctx, tx, batch.RunID, batch.Groups, now); err != nil {
			return err
		}
		return s.saveRunLogsTx(ctx, tx, batch.Logs)
	})
	if err != nil {
		return Counts{}, err
	}
	s.logger.Info("catalog run saved",
		logging.String(logging.FieldRunID, batch.RunID),
		logging.Int("events", counts.Total()),
		logging.Int("new", counts.New),
		logging.Int("updated", counts.Updated),
		logging.Int("unchanged", counts.Unchanged),
		logging.Int("superseded", counts.Superseded),
		logging.Int("groups", len(batch.Groups)),
	)
	return counts, nil
}

// Upsert writes ev keyed by its id. created_at is kept from the stored row
// and updated_at is advanced on every write.
func (s *Store) Upsert(ctx context.Context, ev event.CanonicalEvent) (event.UpsertOutcome, error) {
	var outcome event.UpsertOutcome
	err := s.inTx(ctx, "upsert", ev.ID, func(tx *sql.Tx, now string) error {
		var (
			prior []string
			err   error
		)
		if outcome, prior, err = s.upsertTx(ctx, tx, ev, now); err != nil {
			return err
		}
		_, err = s.pruneSuperseded(ctx, tx, prior, map[string]bool{ev.ID: true})
		return err
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// UpsertAll writes events in one transaction. Nothing is written if any
// event fails.
func (s *Store) UpsertAll(ctx context.Context, events []event.CanonicalEvent) (Counts, error) {
	var counts Counts
	err := s.inTx(ctx, "upsert", "", func(tx *sql.Tx, now string) error {
		var err error
		counts, err = s.writeEvents(ctx, tx, events, now)
		return err
	})
	if err != nil {
		return Counts{}, err
	}
	return counts, nil
}

// inTx runs fn in a transaction and drops cached queries once it commits.
func (s *Store) inTx(ctx context.Context, op, detail string, fn func(tx *sql.Tx, now string) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrCatalogUnavailable, "catalog", op, detail, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx, s.timestamp()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrCatalogUnavailable, "catalog", op, detail, err)
	}
	s.queries.Invalidate()
	return nil
}

// writeEvents upserts events and then removes canonical rows left without
// any source record.
func (s *Store) writeEvents(ctx context.Context, tx *sql.Tx, events []event.CanonicalEvent, now string) (Counts, error) {
	var counts Counts
	written := make(map[string]bool, len(events))
	var prior []string
	for _, ev := range events {
		outcome, previous, err := s.upsertTx(ctx, tx, ev, now)
		if err != nil {
			return Counts{}, err
		}
		counts.Add(outcome)
		written[ev.ID] = true
		prior = append(prior, previous...)
	}
	superseded, err := s.pruneSuperseded(ctx, tx, prior, written)
	if err != nil {
		return Counts{}, err
	}
	counts.Superseded = superseded
	return counts, nil
}

// pruneSuperseded deletes the candidate canonical rows that no source record
// points at anymore. Rows written in the same batch are kept.
func (s *Store) pruneSuperseded(ctx context.Context, tx *sql.Tx, candidates []string, keep map[string]bool) (int, error) {
	removed := 0
	seen := make(map[string]bool, len(candidates))
	for _, id := range candidates {
		if keep[id] || seen[id] {
			continue
		}
		seen[id] = true
		var owned int
		if err := tx.QueryRowContext(ctx, s.rebind("SELECT COUNT(1) FROM event_sources WHERE canonical_id = ?"), id).Scan(&owned); err != nil {
			return 0, services.Wrap(services.ErrCatalogUnavailable, "catalog", "prune", id, err)
		}
		if owned > 0 {
			continue
		}
		res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM events WHERE id = ?"), id)
		if err != nil {
			return 0, services.Wrap(services.ErrCatalogUnavailable, "catalog", "prune", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			removed++
			s.logger.Info("canonical event superseded",
				logging.String("event_id", id),
				logging.String(logging.FieldEventType, "event_superseded"),
			)
		}
	}
	return removed, nil
}

// upsertTx writes ev and points its source records at it. It returns the
// other canonical ids those source records pointed at before.
func (s *Store) upsertTx(ctx context.Context, tx execer, ev event.CanonicalEvent, now string) (event.UpsertOutcome, []string, error) {
	if strings.TrimSpace(ev.ID) == "" {
		return "", nil, services.Wrap(services.ErrValidation, "catalog", "upsert", "event id is empty", nil)
	}
	hash := ContentHash(ev)
	payload, err := json.Marshal(ev.NormalizedEvent)
	if err != nil {
		return "", nil, services.Wrap(services.ErrValidation, "catalog", "upsert", ev.ID, err)
	}

	var storedHash string
	err = tx.QueryRowContext(ctx, s.rebind("SELECT content_hash FROM events WHERE id = ?"), ev.ID).Scan(&storedHash)
	outcome := event.OutcomeUnchanged
	switch {
	case errors.Is(err, sql.ErrNoRows):
		outcome = event.OutcomeNew
	case err != nil:
		return "", nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "upsert", ev.ID, err)
	case storedHash != hash:
		outcome = event.OutcomeUpdated
	}

	args := []any{
		ev.Title,
		nullableString(ev.Category),
		ev.DateStart.Format(event.DateLayout),
		nullableDate(ev.DateEnd),
		ev.LocationName,
		nullableInt(ev.Arrondissement),
		nullableFloat(ev.PriceFrom),
		boolToInt(ev.IsFree),
		ev.SourceName,
		boolToInt(ev.Verified),
		hash,
		string(payload),
	}
	if outcome == event.OutcomeNew {
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO events (
            title, category, date_start, date_end, location_name, arrondissement,
            price_from, is_free, source_name, verified, content_hash, payload,
            id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			append(args, ev.ID, now, now)...)
	} else {
		_, err = tx.ExecContext(ctx, s.rebind(`UPDATE events
         SET title = ?, category = ?, date_start = ?, date_end = ?, location_name = ?,
             arrondissement = ?, price_from = ?, is_free = ?, source_name = ?,
             verified = ?, content_hash = ?, payload = ?, updated_at = ?
         WHERE id = ?`),
			append(args, now, ev.ID)...)
	}
	if err != nil {
		return "", nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "upsert", ev.ID, err)
	}

	var prior []string
	for _, key := range ev.SourceKeys() {
		previous, found, err := s.resolveSource(ctx, tx, key)
		if err != nil {
			return "", nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "upsert source", key.String(), err)
		}
		if found && previous != ev.ID {
			prior = append(prior, previous)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO event_sources (source_name, source_event_url, canonical_id, last_seen_at)
            VALUES (?, ?, ?, ?)
            ON CONFLICT (source_name, source_event_url)
            DO UPDATE SET canonical_id = excluded.canonical_id, last_seen_at = excluded.last_seen_at`),
			key.Source, key.URL, ev.ID, now); err != nil {
			return "", nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "upsert source", key.String(), err)
		}
	}
	return outcome, prior, nil
}

// Exists reports whether an event with id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(1) FROM events WHERE id = ?"), id).Scan(&count); err != nil {
		return false, services.Wrap(services.ErrCatalogUnavailable, "catalog", "exists", id, err)
	}
	return count > 0, nil
}

// Get fetches one event with its source witnesses. It returns nil when the
// id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*event.CanonicalEvent, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+eventColumns+` FROM events WHERE id = ?`), id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	sources, err := s.sourcesFor(ctx, []string{ev.ID})
	if err != nil {
		return nil, err
	}
	ev.Sources = sources[ev.ID]
	return ev, nil
}

// ResolveSource returns the canonical id a source record was merged into.
func (s *Store) ResolveSource(ctx context.Context, key event.SourceKey) (string, bool, error) {
	id, found, err := s.resolveSource(ctx, s.db, key)
	if err != nil {
		return "", false, services.Wrap(services.ErrCatalogUnavailable, "catalog", "resolve source", key.String(), err)
	}
	return id, found, nil
}

func (s *Store) resolveSource(ctx context.Context, q execer, key event.SourceKey) (string, bool, error) {
	var id string
	err := q.QueryRowContext(ctx,
		s.rebind("SELECT canonical_id FROM event_sources WHERE source_name = ? AND source_event_url = ?"),
		key.Source, key.URL,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// ListEvents returns events matching filter ordered by start date. Results
// are cached until the next write. Callers own the returned slice.
func (s *Store) ListEvents(ctx context.Context, filter Filter) ([]event.CanonicalEvent, error) {
	key := filter.key()
	if cached, ok := s.queries.Get(key); ok {
		return cloneEvents(cached), nil
	}

	where, args := filter.clause()
	query := `SELECT ` + eventColumns + ` FROM events` + where + ` ORDER BY date_start, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "list events", "", err)
	}
	defer rows.Close()

	var events []event.CanonicalEvent
	var ids []string
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
		ids = append(ids, ev.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	sources, err := s.sourcesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Sources = sources[events[i].ID]
	}
	s.queries.Set(key, cloneEvents(events))
	return events, nil
}

func cloneEvents(events []event.CanonicalEvent) []event.CanonicalEvent {
	if events == nil {
		return nil
	}
	out := make([]event.CanonicalEvent, len(events))
	for i, ev := range events {
		ev.Sources = slices.Clone(ev.Sources)
		ev.Tags = slices.Clone(ev.Tags)
		ev.DateEnd = clonePtr(ev.DateEnd)
		ev.Arrondissement = clonePtr(ev.Arrondissement)
		ev.Latitude = clonePtr(ev.Latitude)
		ev.Longitude = clonePtr(ev.Longitude)
		ev.PriceFrom = clonePtr(ev.PriceFrom)
		ev.PriceTo = clonePtr(ev.PriceTo)
		out[i] = ev
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s *Store) sourcesFor(ctx context.Context, ids []string) (map[string][]event.SourceKey, error) {
	out := make(map[string][]event.SourceKey, len(ids))
	const batch = 200
	for start := 0; start < len(ids); start += batch {
		end := min(start+batch, len(ids))
		chunk := ids[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		rows, err := s.db.QueryContext(ctx, s.rebind(
			`SELECT canonical_id, source_name, source_event_url FROM event_sources
             WHERE canonical_id IN (`+makePlaceholders(len(chunk))+`)
             ORDER BY canonical_id, source_name, source_event_url`), args...)
		if err != nil {
			return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "load sources", "", err)
		}
		for rows.Next() {
			var id string
			var key event.SourceKey
			if err := rows.Scan(&id, &key.Source, &key.URL); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan source: %w", err)
			}
			out[id] = append(out[id], key)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate sources: %w", err)
		}
	}
	return out, nil
}

func scanEvent(scanner interface{ Scan(dest ...any) error }) (*event.CanonicalEvent, error) {
	var (
		id         string
		hash       string
		payload    string
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &hash, &payload, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	ev := &event.CanonicalEvent{ID: id, ContentHash: hash}
	if err := json.Unmarshal([]byte(payload), &ev.NormalizedEvent); err != nil {
		return nil, fmt.Errorf("decode payload for %s: %w", id, err)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		ev.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		ev.UpdatedAt = updated
	}
	return ev, nil
}
