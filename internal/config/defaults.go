package config

const (
	defaultConfigPath           = "~/.config/artify/config.toml"
	defaultDataDir              = "~/.local/share/artify"
	defaultLogDir               = "~/.local/share/artify/logs"
	defaultCatalogDriver        = "sqlite"
	defaultCatalogCacheTTL      = 300
	defaultCatalogCacheSize     = 256
	defaultIngestWorkers        = 4
	defaultSourceTimeoutSeconds = 120
	defaultTimezone             = "Europe/Paris"
	defaultTitleThreshold       = 0.85
	defaultLocationThreshold    = 0.75
	defaultScorer               = "fuzzy"
	defaultTicketTimeoutSeconds = 10
	defaultTicketMaxRedirects   = 3
	defaultTicketUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTicketCacheTTL       = 3600
	defaultBrowserTimeout       = 60
	defaultBrowserSettleMillis  = 2000
	defaultClassifierMode       = "rules"
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-3-flash-preview"
	defaultLLMTitle             = "Artify Event Classifier"
	defaultLLMTimeoutSeconds    = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultSourceLocale         = "fr"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Catalog: Catalog{
			Driver:          defaultCatalogDriver,
			CacheTTLSeconds: defaultCatalogCacheTTL,
			CacheSize:       defaultCatalogCacheSize,
		},
		Ingest: Ingest{
			Workers:              defaultIngestWorkers,
			SourceTimeoutSeconds: defaultSourceTimeoutSeconds,
			Timezone:             defaultTimezone,
		},
		Dedup: Dedup{
			TitleThreshold:    defaultTitleThreshold,
			LocationThreshold: defaultLocationThreshold,
			Scorer:            defaultScorer,
		},
		Ticket: Ticket{
			Enabled:         true,
			TimeoutSeconds:  defaultTicketTimeoutSeconds,
			MaxRedirects:    defaultTicketMaxRedirects,
			UserAgent:       defaultTicketUserAgent,
			CacheTTLSeconds: defaultTicketCacheTTL,
		},
		Browser: Browser{
			TimeoutSeconds: defaultBrowserTimeout,
			SettleMillis:   defaultBrowserSettleMillis,
		},
		Classifier: Classifier{
			Mode: defaultClassifierMode,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
