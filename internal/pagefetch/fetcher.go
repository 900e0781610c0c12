package pagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"artify/internal/services"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultMaxBytes  = 8 << 20
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Page is a fetched document.
type Page struct {
	// URL is the final address after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher loads a page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// HTTPOptions configures an HTTP fetcher.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Client    *http.Client
}

// HTTP fetches pages with net/http.
type HTTP struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTP constructs an HTTP fetcher.
func NewHTTP(opts HTTPOptions) *HTTP {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &HTTP{client: client, userAgent: ua, maxBytes: maxBytes}
}

// Fetch GETs pageURL. Non-2xx responses are errors tagged for status mapping:
// 404 as not found, 408/429/5xx as transient, anything else as external.
func (h *HTTP) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := h.newRequest(ctx, http.MethodGet, pageURL)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "fetch", "read body", pageURL, err)
	}
	page := &Page{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return page, statusError(pageURL, resp.StatusCode)
	}
	return page, nil
}

// FollowRedirects walks at most maxHops redirects from start and returns the
// last URL reached. HEAD is tried first; servers that reject HEAD are retried
// with GET. Reaching the hop limit is not an error.
func (h *HTTP) FollowRedirects(ctx context.Context, start string, maxHops int) (string, int, error) {
	client := *h.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	current := start
	for hop := 0; hop < maxHops; hop++ {
		resp, err := h.step(ctx, &client, current)
		if err != nil {
			return current, hop, err
		}
		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			return current, hop, nil
		}
		location := resp.Header.Get("Location")
		if location == "" {
			return current, hop, nil
		}
		next, err := resolveReference(current, location)
		if err != nil {
			return current, hop, services.Wrap(services.ErrExternal, "fetch", "redirect", location, err)
		}
		current = next
	}
	return current, maxHops, nil
}

func (h *HTTP) step(ctx context.Context, client *http.Client, target string) (*http.Response, error) {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := h.newRequest(ctx, method, target)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, classifyTransportError(target, err)
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		if method == http.MethodHead && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
			continue
		}
		return resp, nil
	}
	return nil, services.Wrap(services.ErrExternal, "fetch", "redirect", target, errors.New("no usable response"))
}

func (h *HTTP) newRequest(ctx context.Context, method, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "fetch", "build request", target, err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")
	return req, nil
}

func statusError(target string, code int) error {
	msg := fmt.Sprintf("http %d", code)
	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		return services.Wrap(services.ErrNotFound, "fetch", target, msg, nil)
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "fetch", target, msg, nil)
	default:
		return services.Wrap(services.ErrExternal, "fetch", target, msg, nil)
	}
}

func classifyTransportError(target string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "fetch", "request", target, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "fetch", "request", target, err)
	}
	return services.Wrap(services.ErrTransient, "fetch", "request", target, err)
}

func resolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
