package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Catalog selects the storage backend for canonical events.
type Catalog struct {
	Driver          string `toml:"driver"`
	DSN             string `toml:"dsn"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
	CacheSize       int    `toml:"cache_size"`
}

// Ingest contains orchestrator settings.
type Ingest struct {
	Workers              int    `toml:"workers"`
	SourceTimeoutSeconds int    `toml:"source_timeout_seconds"`
	DryRun               bool   `toml:"dry_run"`
	Timezone             string `toml:"timezone"`
}

// Dedup contains the similarity thresholds used to merge records.
type Dedup struct {
	TitleThreshold    float64  `toml:"title_threshold"`
	LocationThreshold float64  `toml:"location_threshold"`
	Scorer            string   `toml:"scorer"`
	TrustedSources    []string `toml:"trusted_sources"`
}

// Ticket contains ticket link resolution settings.
type Ticket struct {
	Enabled         bool   `toml:"enabled"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxRedirects    int    `toml:"max_redirects"`
	UserAgent       string `toml:"user_agent"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// Browser configures the headless Chrome fetcher used by sources that render
// their listings client-side.
type Browser struct {
	ExecPath       string `toml:"exec_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SettleMillis   int    `toml:"settle_millis"`
}

// Classifier selects the category assignment strategy.
type Classifier struct {
	Mode      string `toml:"mode"`
	RulesPath string `toml:"rules_path"`
}

// LLM contains shared LLM connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains Prometheus export settings.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Source declares one source adapter instance.
type Source struct {
	Name           string   `toml:"name"`
	Kind           string   `toml:"kind"`
	URL            string   `toml:"url"`
	Path           string   `toml:"path"`
	Disabled       bool     `toml:"disabled"`
	Trusted        bool     `toml:"trusted"`
	RenderJS       bool     `toml:"render_js"`
	Locale         string   `toml:"locale"`
	DateLayouts    []string `toml:"date_layouts"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Config encapsulates all configuration values for artify.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Catalog: storage driver, DSN, and query cache
//   - Ingest: worker pool size, per-source timeout, dry-run default
//   - Dedup: similarity thresholds and trusted sources
//   - Ticket: outbound ticket link resolution
//   - Browser: headless Chrome for JS-rendered sources
//   - Classifier / LLM: category assignment
//   - Logging, Metrics: observability
//   - Sources: the configured source adapters
type Config struct {
	Paths      Paths      `toml:"paths"`
	Catalog    Catalog    `toml:"catalog"`
	Ingest     Ingest     `toml:"ingest"`
	Dedup      Dedup      `toml:"dedup"`
	Ticket     Ticket     `toml:"ticket"`
	Browser    Browser    `toml:"browser"`
	Classifier Classifier `toml:"classifier"`
	LLM        LLM        `toml:"llm"`
	Logging    Logging    `toml:"logging"`
	Metrics    Metrics    `toml:"metrics"`
	Sources    []Source   `toml:"sources"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the config file or in the
// working directory is loaded first so its values act as environment fallbacks.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(configDir string) error {
	candidates := []string{".env"}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("artify.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "artify.lock")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "artify.log")
}

// SourceTimeout returns the effective timeout for the named source.
func (c *Config) SourceTimeout(src Source) time.Duration {
	if src.TimeoutSeconds > 0 {
		return time.Duration(src.TimeoutSeconds) * time.Second
	}
	return time.Duration(c.Ingest.SourceTimeoutSeconds) * time.Second
}

// EnabledSources returns configured sources that are not disabled, in file order.
func (c *Config) EnabledSources() []Source {
	out := make([]Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Disabled {
			continue
		}
		out = append(out, src)
	}
	return out
}

// TrustedSources merges dedup.trusted_sources with sources flagged trusted.
func (c *Config) TrustedSources() map[string]bool {
	out := make(map[string]bool, len(c.Dedup.TrustedSources)+len(c.Sources))
	for _, name := range c.Dedup.TrustedSources {
		out[name] = true
	}
	for _, src := range c.Sources {
		if src.Trusted {
			out[src.Name] = true
		}
	}
	return out
}

// Location resolves ingest.timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ingest.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains common LLM settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
