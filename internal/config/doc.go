// Package config loads, normalizes, and validates artify configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as OPENROUTER_API_KEY and ARTIFY_CATALOG_DSN. The Config type
// centralizes every knob the ingestion pipeline and CLI need, including the
// list of configured sources.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
