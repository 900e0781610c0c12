package pagefetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"artify/internal/services"
)

// BrowserOptions configures the headless Chrome fetcher.
type BrowserOptions struct {
	ExecPath  string
	Timeout   time.Duration
	Settle    time.Duration
	UserAgent string
}

// Browser renders pages in headless Chrome for listings built client-side.
// One browser process is started on first use and shared by all fetches.
type Browser struct {
	opts BrowserOptions

	once        sync.Once
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc
}

// NewBrowser constructs a Browser. Chrome is not launched until Fetch.
func NewBrowser(opts BrowserOptions) *Browser {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	if strings.TrimSpace(opts.ExecPath) == "" {
		opts.ExecPath = FindChrome()
	}
	return &Browser{opts: opts}
}

func (b *Browser) start() {
	b.once.Do(func() {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.UserAgent(b.opts.UserAgent),
		)
		if b.opts.ExecPath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(b.opts.ExecPath))
		}
		b.allocCtx, b.cancelAlloc = chromedp.NewExecAllocator(context.Background(), allocOpts...)
		b.browserCtx, b.cancelTab = chromedp.NewContext(b.allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	})
}

// Fetch navigates to pageURL, waits for the page to settle, and returns the
// rendered HTML.
func (b *Browser) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	b.start()
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.opts.Timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html, location string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(b.opts.Settle),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if tabCtx.Err() == context.DeadlineExceeded {
			return nil, services.Wrap(services.ErrTimeout, "fetch", "browser", pageURL, err)
		}
		return nil, services.Wrap(services.ErrExternal, "fetch", "browser", pageURL, fmt.Errorf("chromedp: %w", err))
	}
	if location == "" {
		location = pageURL
	}
	return &Page{URL: location, StatusCode: 200, ContentType: "text/html", Body: []byte(html)}, nil
}

// Close stops the Chrome process if one was started.
func (b *Browser) Close() {
	if b.cancelTab != nil {
		b.cancelTab()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
}

// FindChrome locates a Chrome or Chromium binary. CHROME_BIN wins; an empty
// result lets chromedp search on its own.
func FindChrome() string {
	if bin := strings.TrimSpace(os.Getenv("CHROME_BIN")); bin != "" {
		return bin
	}
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, path := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
