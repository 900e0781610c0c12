package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"artify/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"OPENROUTER_API_KEY", "ARTIFY_LLM_API_KEY", "ARTIFY_CATALOG_DSN", "DATABASE_URL", "CHROME_BIN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(home)
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(home, ".local", "share", "artify")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Catalog.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Catalog.Driver)
	}
	if cfg.Catalog.DSN != filepath.Join(wantData, "catalog.db") {
		t.Fatalf("unexpected catalog dsn: %q", cfg.Catalog.DSN)
	}
	if cfg.Dedup.TitleThreshold != 0.85 || cfg.Dedup.LocationThreshold != 0.75 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Dedup)
	}
	if cfg.Ticket.MaxRedirects != 3 {
		t.Fatalf("expected 3 max redirects, got %d", cfg.Ticket.MaxRedirects)
	}
	if cfg.Classifier.Mode != "rules" {
		t.Fatalf("expected rules classifier, got %q", cfg.Classifier.Mode)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPathWithSources(t *testing.T) {
	isolateEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "artify.toml")

	type source struct {
		Name    string `toml:"name"`
		Kind    string `toml:"kind"`
		Path    string `toml:"path,omitempty"`
		URL     string `toml:"url,omitempty"`
		Trusted bool   `toml:"trusted"`
	}
	type payload struct {
		Ingest struct {
			Workers int `toml:"workers"`
		} `toml:"ingest"`
		Dedup struct {
			TrustedSources []string `toml:"trusted_sources"`
		} `toml:"dedup"`
		Sources []source `toml:"sources"`
	}
	custom := payload{}
	custom.Ingest.Workers = 8
	custom.Dedup.TrustedSources = []string{"opera", " opera ", ""}
	custom.Sources = []source{
		{Name: "fixtures", Kind: "FIXTURE", Path: filepath.Join(tempDir, "events.yaml")},
		{Name: "philharmonie", Kind: "jsonld", URL: "https://example.com/agenda", Trusted: true},
	}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Ingest.Workers != 8 {
		t.Fatalf("expected 8 workers, got %d", cfg.Ingest.Workers)
	}
	if len(cfg.Dedup.TrustedSources) != 1 {
		t.Fatalf("expected trusted sources deduplicated, got %v", cfg.Dedup.TrustedSources)
	}
	if cfg.Sources[0].Kind != "fixture" || cfg.Sources[0].Locale != "fr" {
		t.Fatalf("expected kind and locale normalized, got %+v", cfg.Sources[0])
	}
	trusted := cfg.TrustedSources()
	if !trusted["opera"] || !trusted["philharmonie"] || trusted["fixtures"] {
		t.Fatalf("unexpected trusted set: %v", trusted)
	}
	if got := cfg.SourceTimeout(cfg.Sources[1]).Seconds(); got != 120 {
		t.Fatalf("expected default source timeout, got %v", got)
	}
}

func TestDotEnvSuppliesAPIKey(t *testing.T) {
	isolateEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "artify.toml")
	if err := os.WriteFile(configPath, []byte("[classifier]\nmode = \"llm\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("OPENROUTER_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("OPENROUTER_API_KEY") })

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "from-dotenv" {
		t.Fatalf("expected api key from .env, got %q", cfg.LLM.APIKey)
	}
}

func TestEnvVarDoesNotOverrideConfigFileKey(t *testing.T) {
	isolateEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "artify.toml")
	if err := os.WriteFile(configPath, []byte("[llm]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Fatalf("expected file key to win, got %q", cfg.LLM.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"postgres without dsn", func(c *config.Config) { c.Catalog.Driver = "postgres"; c.Catalog.DSN = "" }, "catalog.dsn"},
		{"unknown driver", func(c *config.Config) { c.Catalog.Driver = "mysql" }, "catalog.driver"},
		{"title threshold", func(c *config.Config) { c.Dedup.TitleThreshold = 1.5 }, "dedup.title_threshold"},
		{"scorer", func(c *config.Config) { c.Dedup.Scorer = "levenshtein" }, "dedup.scorer"},
		{"llm without key", func(c *config.Config) { c.Classifier.Mode = "llm" }, "llm.api_key"},
		{"workers", func(c *config.Config) { c.Ingest.Workers = 0 }, "ingest.workers"},
		{"duplicate source", func(c *config.Config) {
			c.Sources = []config.Source{
				{Name: "a", Kind: "fixture", Path: "/tmp/a.yaml", Locale: "fr"},
				{Name: "a", Kind: "fixture", Path: "/tmp/b.yaml", Locale: "fr"},
			}
		}, "declared more than once"},
		{"unknown kind", func(c *config.Config) {
			c.Sources = []config.Source{{Name: "a", Kind: "rss", Locale: "fr"}}
		}, "sources[0].kind"},
		{"jsonld without url", func(c *config.Config) {
			c.Sources = []config.Source{{Name: "a", Kind: "jsonld", Locale: "fr"}}
		}, "sources[0].url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Catalog.DSN = "catalog.db"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	isolateEnv(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.EnabledSources()) != 1 {
		t.Fatalf("expected one enabled sample source, got %d", len(cfg.EnabledSources()))
	}
}
