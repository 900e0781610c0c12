// Package services defines shared utilities consumed by the ingestion pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, source names, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent source statuses (failed vs partial) and operator hints.
//
// Use these helpers when wiring new pipeline stages so operational behaviour
// (error handling, observability) stays uniform across sources.
package services
