// Package catalog persists canonical events, their source witnesses, duplicate
// groups, and per-source run logs.
//
// Two SQL dialects share one schema: SQLite (modernc.org/sqlite, the default)
// and PostgreSQL (lib/pq). Canonical ids and (source_name, source_event_url)
// pairs are the idempotency keys, so writing the same run twice yields the
// same rows. Planner answers the same questions without writing, for dry runs.
package catalog
