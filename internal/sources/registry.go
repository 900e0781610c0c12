package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"artify/internal/config"
	"artify/internal/event"
	"artify/internal/logging"
	"artify/internal/pagefetch"
	"artify/internal/services"
)

// Scraper produces raw records for one configured source. Implementations
// return the records collected so far alongside any error.
type Scraper interface {
	Scrape(ctx context.Context, src config.Source) ([]event.RawRecord, error)
}

// ScraperFunc adapts a function to Scraper.
type ScraperFunc func(ctx context.Context, src config.Source) ([]event.RawRecord, error)

func (f ScraperFunc) Scrape(ctx context.Context, src config.Source) ([]event.RawRecord, error) {
	return f(ctx, src)
}

// Deps are the shared collaborators handed to adapter factories.
type Deps struct {
	HTTP    pagefetch.Fetcher
	Browser pagefetch.Fetcher
	Logger  *slog.Logger
}

// Factory builds a Scraper for an adapter kind.
type Factory func(Deps) Scraper

var factories = map[string]Factory{
	KindFixture: func(d Deps) Scraper { return NewFixture(d.Logger) },
	KindJSONLD:  func(d Deps) Scraper { return NewJSONLD(d.HTTP, d.Browser, d.Logger) },
}

// Kinds lists the registered adapter kinds.
func Kinds() []string {
	kinds := make([]string, 0, len(factories))
	for kind := range factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Registry resolves configured sources to scrapers.
type Registry struct {
	scrapers map[string]Scraper
}

// NewRegistry instantiates every registered adapter kind with deps.
func NewRegistry(deps Deps) *Registry {
	deps.Logger = logging.NewComponentLogger(deps.Logger, "sources")
	r := &Registry{scrapers: make(map[string]Scraper, len(factories))}
	for kind, factory := range factories {
		r.scrapers[kind] = factory(deps)
	}
	return r
}

// Register installs or replaces the scraper for kind.
func (r *Registry) Register(kind string, scraper Scraper) {
	r.scrapers[kind] = scraper
}

// For returns the scraper serving src.
func (r *Registry) For(src config.Source) (Scraper, error) {
	scraper, ok := r.scrapers[src.Kind]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "scrape", src.Name, fmt.Sprintf("no adapter for kind %q", src.Kind), nil)
	}
	return scraper, nil
}
