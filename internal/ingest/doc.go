// Package ingest runs the event ingestion pipeline.
//
// A Runner scrapes the selected sources in parallel under a bounded worker
// pool, pushes every record through normalization, classification and ticket
// resolution, pools the survivors, deduplicates the pool once, and hands the
// canonical events to the catalog. A failing source is recorded in its run
// log and never stops its siblings; only an unreachable catalog fails the run.
package ingest
