package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"artify/internal/event"
	"artify/internal/services"
)

// saveGroupsTx records the duplicate groups of a run. Saving the same run
// twice replaces its rows.
func (s *Store) saveGroupsTx(ctx context.Context, tx *sql.Tx, runID string, groups []event.DuplicateGroup, now string) error {
	for _, group := range groups {
		members, err := json.Marshal(group.Members)
		if err != nil {
			return services.Wrap(services.ErrValidation, "catalog", "save groups", group.CanonicalID, err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO duplicate_groups (run_id, canonical_id, date_start, size, members, created_at)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT (run_id, canonical_id)
            DO UPDATE SET date_start = excluded.date_start, size = excluded.size, members = excluded.members`),
			runID, group.CanonicalID, group.DateStart.Format(event.DateLayout), group.Size(), string(members), now,
		); err != nil {
			return services.Wrap(services.ErrCatalogUnavailable, "catalog", "save groups", group.CanonicalID, err)
		}
	}
	return nil
}

// Groups returns the duplicate groups recorded for runID.
func (s *Store) Groups(ctx context.Context, runID string) ([]event.DuplicateGroup, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT canonical_id, date_start, members FROM duplicate_groups WHERE run_id = ? ORDER BY date_start, canonical_id`), runID)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "list groups", runID, err)
	}
	defer rows.Close()

	var groups []event.DuplicateGroup
	for rows.Next() {
		var (
			group   event.DuplicateGroup
			dateRaw string
			members string
		)
		if err := rows.Scan(&group.CanonicalID, &dateRaw, &members); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		group.RunID = runID
		if date, err := time.Parse(event.DateLayout, dateRaw); err == nil {
			group.DateStart = date
		}
		if err := json.Unmarshal([]byte(members), &group.Members); err != nil {
			return nil, fmt.Errorf("decode group members: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// saveRunLogsTx appends per-source run logs. A log already stored for the
// same run and source is kept.
func (s *Store) saveRunLogsTx(ctx context.Context, tx *sql.Tx, logs []event.SourceRunLog) error {
	for _, log := range logs {
		var reasons any
		if len(log.RejectReasons) > 0 {
			data, err := json.Marshal(log.RejectReasons)
			if err != nil {
				return services.Wrap(services.ErrValidation, "catalog", "save run logs", log.Source, err)
			}
			reasons = string(data)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO run_logs (
            run_id, source, started_at, finished_at, found, normalized, rejected, merged,
            status, error_message, reject_reasons
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (run_id, source) DO NOTHING`),
			log.RunID,
			log.Source,
			log.StartedAt.UTC().Format(time.RFC3339Nano),
			log.FinishedAt.UTC().Format(time.RFC3339Nano),
			log.Found,
			log.Normalized,
			log.Rejected,
			log.Merged,
			string(log.Status),
			nullableString(log.Error),
			reasons,
		); err != nil {
			return services.Wrap(services.ErrCatalogUnavailable, "catalog", "save run logs", log.Source, err)
		}
	}
	return nil
}

// LatestRunLogs returns the most recent run log of every source.
func (s *Store) LatestRunLogs(ctx context.Context) (map[string]event.SourceRunLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, source, started_at, finished_at, found, normalized,
        rejected, merged, status, error_message, reject_reasons
        FROM run_logs ORDER BY source, started_at DESC`)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "list run logs", "", err)
	}
	defer rows.Close()

	latest := make(map[string]event.SourceRunLog)
	for rows.Next() {
		var (
			log         event.SourceRunLog
			startedRaw  string
			finishedRaw string
			status      string
			errMessage  sql.NullString
			reasons     sql.NullString
		)
		if err := rows.Scan(&log.RunID, &log.Source, &startedRaw, &finishedRaw, &log.Found, &log.Normalized,
			&log.Rejected, &log.Merged, &status, &errMessage, &reasons); err != nil {
			return nil, fmt.Errorf("scan run log: %w", err)
		}
		if _, seen := latest[log.Source]; seen {
			continue
		}
		log.Status = event.SourceStatus(status)
		log.Error = errMessage.String
		if started, err := parseTimeString(startedRaw); err == nil {
			log.StartedAt = started
		}
		if finished, err := parseTimeString(finishedRaw); err == nil {
			log.FinishedAt = finished
		}
		if reasons.Valid && reasons.String != "" {
			if err := json.Unmarshal([]byte(reasons.String), &log.RejectReasons); err != nil {
				return nil, fmt.Errorf("decode reject reasons: %w", err)
			}
		}
		latest[log.Source] = log
	}
	return latest, rows.Err()
}
