package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"artify/internal/cache"
	"artify/internal/config"
	"artify/internal/event"
	"artify/internal/logging"
	"artify/internal/services"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configures Open.
type Options struct {
	Driver    string
	DSN       string
	CacheTTL  time.Duration
	CacheSize int
	// Now overrides the clock used for created_at/updated_at.
	Now    func() time.Time
	Logger *slog.Logger
}

// Store is the catalog backed by SQLite or PostgreSQL.
type Store struct {
	db      *sql.DB
	driver  string
	now     func() time.Time
	queries *cache.TTL[string, []event.CanonicalEvent]
	logger  *slog.Logger
}

// Open connects to the catalog and ensures the schema exists. Connection
// failures are reported as services.ErrCatalogUnavailable.
func Open(ctx context.Context, opts Options) (*Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "open", fmt.Sprintf("unsupported driver %q", driver), nil)
	}
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "open", "dsn is empty", nil)
	}
	if driver == DriverSQLite && opts.DSN != ":memory:" && !strings.HasPrefix(opts.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(opts.DSN), 0o755); err != nil {
			return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "open", "create database directory", err)
		}
	}

	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "open", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
			}
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	store := &Store{
		db:      db,
		driver:  driver,
		now:     now,
		queries: cache.New[string, []event.CanonicalEvent](opts.CacheSize, opts.CacheTTL),
		logger:  logging.NewComponentLogger(opts.Logger, "catalog"),
	}
	if err := store.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrCatalogUnavailable, "catalog", "schema", "", err)
	}
	return store, nil
}

// OpenConfig opens the catalog described by cfg.Catalog.
func OpenConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	return Open(ctx, Options{
		Driver:    cfg.Catalog.Driver,
		DSN:       cfg.Catalog.DSN,
		CacheTTL:  time.Duration(cfg.Catalog.CacheTTLSeconds) * time.Second,
		CacheSize: cfg.Catalog.CacheSize,
		Logger:    logger,
	})
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver returns the SQL dialect in use.
func (s *Store) Driver() string {
	return s.driver
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return services.Wrap(services.ErrCatalogUnavailable, "catalog", "ping", s.driver, err)
	}
	return nil
}

// rebind rewrites ? placeholders into the dialect's form.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
