package testsupport

import (
	"path/filepath"
	"testing"

	"artify/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The catalog is a SQLite file under the temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Catalog.Driver = "sqlite"
	cfgVal.Catalog.DSN = filepath.Join(base, "data", "catalog.db")
	cfgVal.Ticket.Enabled = false
	cfgVal.Ingest.Workers = 2
	cfgVal.Ingest.SourceTimeoutSeconds = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSource appends a source declaration. Empty locales default to fr.
func WithSource(src config.Source) ConfigOption {
	return func(b *configBuilder) {
		if src.Locale == "" {
			src.Locale = "fr"
		}
		b.cfg.Sources = append(b.cfg.Sources, src)
	}
}

// WithFixtureSource writes records as a YAML fixture file and declares a
// fixture source reading it.
func WithFixtureSource(name string, records []map[string]any) ConfigOption {
	return func(b *configBuilder) {
		path := WriteFixture(b.t, filepath.Join(b.baseDir, "fixtures"), name, records)
		WithSource(config.Source{Name: name, Kind: "fixture", Path: path})(b)
	}
}

// WithFixtureDoc declares a fixture source backed by a full fixture document.
func WithFixtureDoc(name string, doc map[string]any) ConfigOption {
	return func(b *configBuilder) {
		path := WriteFixtureDoc(b.t, filepath.Join(b.baseDir, "fixtures"), name, doc)
		WithSource(config.Source{Name: name, Kind: "fixture", Path: path})(b)
	}
}

// WithTrustedSources marks sources as official venues for canonical election.
func WithTrustedSources(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dedup.TrustedSources = append(b.cfg.Dedup.TrustedSources, names...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
