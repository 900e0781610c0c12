package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var knownSourceKinds = map[string]struct{}{
	"fixture": {},
	"jsonld":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateDedup(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateSources()
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Driver {
	case "sqlite":
	case "postgres":
		if c.Catalog.DSN == "" {
			return errors.New("catalog.dsn must be set when catalog.driver is postgres (or set ARTIFY_CATALOG_DSN)")
		}
	default:
		return fmt.Errorf("catalog.driver: unsupported value %q (want sqlite or postgres)", c.Catalog.Driver)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if err := ensurePositiveMap(map[string]int{
		"ingest.workers":                c.Ingest.Workers,
		"ingest.source_timeout_seconds": c.Ingest.SourceTimeoutSeconds,
		"ticket.timeout_seconds":        c.Ticket.TimeoutSeconds,
		"browser.timeout_seconds":       c.Browser.TimeoutSeconds,
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Ingest.Timezone); err != nil {
		return fmt.Errorf("ingest.timezone: %w", err)
	}
	if c.Ticket.MaxRedirects > 10 {
		return errors.New("ticket.max_redirects must be at most 10")
	}
	return nil
}

func (c *Config) validateDedup() error {
	if c.Dedup.TitleThreshold <= 0 || c.Dedup.TitleThreshold > 1 {
		return errors.New("dedup.title_threshold must be between 0 and 1")
	}
	if c.Dedup.LocationThreshold <= 0 || c.Dedup.LocationThreshold > 1 {
		return errors.New("dedup.location_threshold must be between 0 and 1")
	}
	switch c.Dedup.Scorer {
	case "fuzzy", "cosine":
	default:
		return fmt.Errorf("dedup.scorer: unsupported value %q (want fuzzy or cosine)", c.Dedup.Scorer)
	}
	return nil
}

func (c *Config) validateClassifier() error {
	switch c.Classifier.Mode {
	case "rules":
	case "llm":
		if c.LLM.APIKey == "" {
			return errors.New("llm.api_key must be set when classifier.mode is llm (or set OPENROUTER_API_KEY)")
		}
	default:
		return fmt.Errorf("classifier.mode: unsupported value %q (want rules or llm)", c.Classifier.Mode)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name must be set", i)
		}
		if _, ok := seen[src.Name]; ok {
			return fmt.Errorf("sources[%d].name %q is declared more than once", i, src.Name)
		}
		seen[src.Name] = struct{}{}
		if _, ok := knownSourceKinds[src.Kind]; !ok {
			return fmt.Errorf("sources[%d].kind: unsupported value %q (want one of %s)", i, src.Kind, strings.Join(sourceKindNames(), ", "))
		}
		switch src.Kind {
		case "fixture":
			if src.Path == "" {
				return fmt.Errorf("sources[%d].path must be set for fixture sources", i)
			}
		case "jsonld":
			if src.URL == "" {
				return fmt.Errorf("sources[%d].url must be set for jsonld sources", i)
			}
		}
		switch src.Locale {
		case "fr", "en":
		default:
			return fmt.Errorf("sources[%d].locale: unsupported value %q (want fr or en)", i, src.Locale)
		}
		if src.TimeoutSeconds < 0 {
			return fmt.Errorf("sources[%d].timeout_seconds must be >= 0", i)
		}
	}
	return nil
}

func sourceKindNames() []string {
	return []string{"fixture", "jsonld"}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
