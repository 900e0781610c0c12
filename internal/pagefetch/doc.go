// Package pagefetch loads event pages over plain HTTP or through headless
// Chrome and extracts the pieces the rest of the pipeline reads from them:
// outbound links and embedded JSON-LD blocks.
package pagefetch
