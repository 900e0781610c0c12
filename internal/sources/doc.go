// Package sources adapts external event listings into raw records.
//
// Each adapter kind implements Scraper and is registered in a static table
// keyed by kind. A configured source names its kind; the Registry resolves it.
// Adapters return whatever records they collected even when they fail part
// way through.
package sources
