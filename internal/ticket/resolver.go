package ticket

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"artify/internal/cache"
	"artify/internal/event"
	"artify/internal/logging"
	"artify/internal/pagefetch"
)

// DefaultMaxRedirects bounds redirect following from the elected link.
const DefaultMaxRedirects = 3

// Method values reported in Result.
const (
	MethodAdapter = "adapter"
	MethodPage    = "page"
	MethodNone    = "none"
)

// Redirector resolves a URL through at most maxHops redirects.
type Redirector interface {
	FollowRedirects(ctx context.Context, start string, maxHops int) (string, int, error)
}

// Options configures a Resolver.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	CacheTTL     time.Duration
	CacheSize    int
}

// Result is the outcome of resolving one event.
type Result struct {
	URL       string
	Score     int
	Redirects int
	Method    string
}

// Found reports whether a ticket link was resolved.
func (r Result) Found() bool {
	return r.URL != ""
}

// Apply records r on ev. An unresolved result clears the direct ticket flag.
func (r Result) Apply(ev *event.NormalizedEvent) {
	ev.TicketURL = r.URL
	ev.HasDirectTicketButton = r.Found()
}

// Resolver derives direct ticket purchase links from event pages.
type Resolver struct {
	fetcher      pagefetch.Fetcher
	redirects    Redirector
	timeout      time.Duration
	maxRedirects int
	pages        *cache.TTL[string, []pagefetch.Link]
	logger       *slog.Logger
}

// NewResolver builds a Resolver. redirects may be nil, in which case the
// elected link is recorded as found.
func NewResolver(fetcher pagefetch.Fetcher, redirects Redirector, opts Options, logger *slog.Logger) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRedirects < 0 {
		opts.MaxRedirects = 0
	}
	if opts.MaxRedirects > DefaultMaxRedirects {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	return &Resolver{
		fetcher:      fetcher,
		redirects:    redirects,
		timeout:      opts.Timeout,
		maxRedirects: opts.MaxRedirects,
		pages:        cache.New[string, []pagefetch.Link](opts.CacheSize, opts.CacheTTL),
		logger:       logging.NewComponentLogger(logger, "ticket"),
	}
}

// Resolve returns the ticket link for ev. It never fails: network errors
// are logged and produce an empty Result.
func (r *Resolver) Resolve(ctx context.Context, ev event.NormalizedEvent) Result {
	if existing := strings.TrimSpace(ev.TicketURL); existing != "" && !Blocked(existing, ev.SourceEventURL) {
		return r.follow(ctx, Result{URL: existing, Method: MethodAdapter}, ev)
	}
	pageURL := strings.TrimSpace(ev.SourceEventURL)
	if pageURL == "" || r.fetcher == nil {
		return Result{Method: MethodNone}
	}

	links, err := r.links(ctx, pageURL)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "ticket page fetch failed", "ticket_fetch_failed",
				logging.EventURL(pageURL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "event stored without ticket link"),
			)
		}
		return Result{Method: MethodNone}
	}

	best, bestScore := "", 0
	for _, link := range links {
		if score := Score(link, pageURL); score > bestScore {
			best, bestScore = link.Href, score
		}
	}
	if bestScore == 0 {
		return Result{Method: MethodNone}
	}
	return r.follow(ctx, Result{URL: best, Score: bestScore, Method: MethodPage}, ev)
}

func (r *Resolver) links(ctx context.Context, pageURL string) ([]pagefetch.Link, error) {
	if cached, ok := r.pages.Get(pageURL); ok {
		return cached, nil
	}
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	page, err := r.fetcher.Fetch(fetchCtx, pageURL)
	if err != nil {
		return nil, err
	}
	links := pagefetch.Links(page)
	r.pages.Set(pageURL, links)
	return links, nil
}

func (r *Resolver) follow(ctx context.Context, res Result, ev event.NormalizedEvent) Result {
	if r.redirects == nil || r.maxRedirects == 0 {
		return res
	}
	followCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	final, hops, err := r.redirects.FollowRedirects(followCtx, res.URL, r.maxRedirects)
	if err != nil {
		r.logger.Debug("ticket redirect not followed",
			logging.EventURL(ev.SourceEventURL),
			logging.String("ticket_url", res.URL),
			logging.Error(err),
		)
		return res
	}
	if final == "" || Blocked(final, ev.SourceEventURL) {
		return res
	}
	res.URL = final
	res.Redirects = hops
	return res
}

// Invalidate drops cached page links.
func (r *Resolver) Invalidate() {
	r.pages.Invalidate()
}
