// Command artify runs event ingestion and inspects the resulting catalog.
//
// Exit codes: 0 on success, 1 on a fatal error (bad configuration, held run
// lock, unreachable catalog), 2 when some sources failed but a canonical set
// was still produced, and 3 when every selected source failed.
package main
