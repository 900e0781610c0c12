package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeDedup()
	c.normalizeTicket()
	if err := c.normalizeClassifier(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeLogging()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	return c.normalizeSources()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() error {
	c.Catalog.Driver = strings.ToLower(strings.TrimSpace(c.Catalog.Driver))
	switch c.Catalog.Driver {
	case "", "sqlite", "sqlite3":
		c.Catalog.Driver = "sqlite"
	case "postgresql", "pg":
		c.Catalog.Driver = "postgres"
	}
	c.Catalog.DSN = strings.TrimSpace(c.Catalog.DSN)
	if c.Catalog.DSN == "" {
		if value, ok := os.LookupEnv("ARTIFY_CATALOG_DSN"); ok {
			c.Catalog.DSN = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DATABASE_URL"); ok && c.Catalog.Driver == "postgres" {
			c.Catalog.DSN = strings.TrimSpace(value)
		}
	}
	if c.Catalog.Driver == "sqlite" {
		if c.Catalog.DSN == "" {
			c.Catalog.DSN = filepath.Join(c.Paths.DataDir, "catalog.db")
		} else if !strings.HasPrefix(c.Catalog.DSN, "file:") && c.Catalog.DSN != ":memory:" {
			expanded, err := expandPath(c.Catalog.DSN)
			if err != nil {
				return fmt.Errorf("catalog.dsn: %w", err)
			}
			c.Catalog.DSN = expanded
		}
	}
	if c.Catalog.CacheTTLSeconds < 0 {
		c.Catalog.CacheTTLSeconds = 0
	}
	if c.Catalog.CacheSize <= 0 {
		c.Catalog.CacheSize = defaultCatalogCacheSize
	}
	return nil
}

func (c *Config) normalizeIngest() {
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = defaultIngestWorkers
	}
	if c.Ingest.SourceTimeoutSeconds <= 0 {
		c.Ingest.SourceTimeoutSeconds = defaultSourceTimeoutSeconds
	}
	c.Ingest.Timezone = strings.TrimSpace(c.Ingest.Timezone)
	if c.Ingest.Timezone == "" {
		c.Ingest.Timezone = defaultTimezone
	}
}

func (c *Config) normalizeDedup() {
	c.Dedup.Scorer = strings.ToLower(strings.TrimSpace(c.Dedup.Scorer))
	if c.Dedup.Scorer == "" {
		c.Dedup.Scorer = defaultScorer
	}
	trusted := make([]string, 0, len(c.Dedup.TrustedSources))
	seen := make(map[string]struct{}, len(c.Dedup.TrustedSources))
	for _, name := range c.Dedup.TrustedSources {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		trusted = append(trusted, name)
	}
	c.Dedup.TrustedSources = trusted
}

func (c *Config) normalizeTicket() {
	if c.Ticket.TimeoutSeconds <= 0 {
		c.Ticket.TimeoutSeconds = defaultTicketTimeoutSeconds
	}
	if c.Ticket.MaxRedirects < 0 {
		c.Ticket.MaxRedirects = 0
	}
	c.Ticket.UserAgent = strings.TrimSpace(c.Ticket.UserAgent)
	if c.Ticket.UserAgent == "" {
		c.Ticket.UserAgent = defaultTicketUserAgent
	}
	if c.Ticket.CacheTTLSeconds < 0 {
		c.Ticket.CacheTTLSeconds = 0
	}
	if c.Browser.TimeoutSeconds <= 0 {
		c.Browser.TimeoutSeconds = defaultBrowserTimeout
	}
	if c.Browser.SettleMillis < 0 {
		c.Browser.SettleMillis = 0
	}
	if value, ok := os.LookupEnv("CHROME_BIN"); ok && strings.TrimSpace(c.Browser.ExecPath) == "" {
		c.Browser.ExecPath = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeClassifier() error {
	c.Classifier.Mode = strings.ToLower(strings.TrimSpace(c.Classifier.Mode))
	if c.Classifier.Mode == "" {
		c.Classifier.Mode = defaultClassifierMode
	}
	if strings.TrimSpace(c.Classifier.RulesPath) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Classifier.RulesPath))
		if err != nil {
			return fmt.Errorf("classifier.rules_path: %w", err)
		}
		c.Classifier.RulesPath = expanded
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("ARTIFY_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() error {
	c.Metrics.Textfile = strings.TrimSpace(c.Metrics.Textfile)
	if c.Metrics.Textfile == "" {
		return nil
	}
	expanded, err := expandPath(c.Metrics.Textfile)
	if err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	c.Metrics.Textfile = expanded
	return nil
}

func (c *Config) normalizeSources() error {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Name = strings.TrimSpace(src.Name)
		src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
		src.URL = strings.TrimSpace(src.URL)
		src.Locale = strings.ToLower(strings.TrimSpace(src.Locale))
		if src.Locale == "" {
			src.Locale = defaultSourceLocale
		}
		if strings.TrimSpace(src.Path) != "" {
			expanded, err := expandPath(strings.TrimSpace(src.Path))
			if err != nil {
				return fmt.Errorf("sources[%d].path: %w", i, err)
			}
			src.Path = expanded
		}
		layouts := src.DateLayouts[:0]
		for _, layout := range src.DateLayouts {
			if layout = strings.TrimSpace(layout); layout != "" {
				layouts = append(layouts, layout)
			}
		}
		src.DateLayouts = layouts
	}
	return nil
}
