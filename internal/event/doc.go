// Package event defines the records that flow through the ingestion pipeline:
// raw scrape results, normalized events, canonical catalog entries, duplicate
// groups, and per-source run logs.
package event
