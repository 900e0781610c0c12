package pagefetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"artify/internal/pagefetch"
	"artify/internal/services"
)

func TestHTTPFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "artify-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	mux.HandleFunc("/gone", http.NotFound)
	mux.HandleFunc("/busy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := pagefetch.NewHTTP(pagefetch.HTTPOptions{UserAgent: "artify-test"})

	page, err := fetcher.Fetch(context.Background(), server.URL+"/moved")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.URL != server.URL+"/ok" || string(page.Body) != "<html><body>hello</body></html>" {
		t.Fatalf("unexpected page %+v", page)
	}

	tests := []struct {
		path   string
		marker error
	}{
		{"/gone", services.ErrNotFound},
		{"/busy", services.ErrTransient},
		{"/forbidden", services.ErrExternal},
	}
	for _, tt := range tests {
		_, err := fetcher.Fetch(context.Background(), server.URL+tt.path)
		if !errors.Is(err, tt.marker) {
			t.Fatalf("Fetch(%s) error = %v, want %v", tt.path, err, tt.marker)
		}
	}
}

func TestFollowRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/r1", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/r2", http.StatusFound) })
	mux.HandleFunc("/r2", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/r3", http.StatusMovedPermanently) })
	mux.HandleFunc("/r3", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/final", http.StatusFound) })
	mux.HandleFunc("/r4", func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/r1", http.StatusFound) })
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/nohead", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := pagefetch.NewHTTP(pagefetch.HTTPOptions{})

	final, hops, err := fetcher.FollowRedirects(context.Background(), server.URL+"/r1", 3)
	if err != nil {
		t.Fatalf("FollowRedirects: %v", err)
	}
	if final != server.URL+"/final" || hops != 3 {
		t.Fatalf("got %s after %d hops", final, hops)
	}

	final, hops, err = fetcher.FollowRedirects(context.Background(), server.URL+"/r4", 3)
	if err != nil {
		t.Fatalf("FollowRedirects: %v", err)
	}
	if final != server.URL+"/r3" || hops != 3 {
		t.Fatalf("expected to stop at hop limit on /r3, got %s after %d hops", final, hops)
	}

	final, _, err = fetcher.FollowRedirects(context.Background(), server.URL+"/nohead", 3)
	if err != nil {
		t.Fatalf("FollowRedirects: %v", err)
	}
	if final != server.URL+"/final" {
		t.Fatalf("expected GET fallback to follow redirect, got %s", final)
	}
}

func TestLinks(t *testing.T) {
	page := &pagefetch.Page{
		URL: "https://venue.example/agenda/jazz",
		Body: []byte(`<html><body>
			<a href="/billetterie/jazz-123" class="btn btn-primary"> Réserver <span>maintenant</span></a>
			<a href="https://venue.example/agenda">Agenda</a>
			<a href="mailto:info@venue.example">Contact</a>
			<a href="#top">Haut</a>
			<a href="../tickets" title="Buy tickets"><img alt="ticket icon"></a>
			<a name="anchor-without-href">ignored</a>
		</body></html>`),
	}
	links := pagefetch.Links(page)
	want := []pagefetch.Link{
		{Href: "https://venue.example/billetterie/jazz-123", Text: "Réserver maintenant", Class: "btn btn-primary"},
		{Href: "https://venue.example/agenda", Text: "Agenda"},
		{Href: "mailto:info@venue.example", Text: "Contact"},
		{Href: "#top", Text: "Haut"},
		{Href: "https://venue.example/tickets", Text: "ticket icon Buy tickets"},
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %+v", len(want), len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("link %d = %+v, want %+v", i, links[i], want[i])
		}
	}
}

func TestJSONLD(t *testing.T) {
	page := &pagefetch.Page{
		URL: "https://venue.example/",
		Body: []byte(`<html><head>
			<script type="application/ld+json">{"@type":"Event","name":"Jazz"}</script>
			<script type="application/ld+json">[{"@type":"Event","name":"Rock"},{"@type":"Place"}]</script>
			<script type="application/ld+json">{"@context":"https://schema.org","@graph":[{"@type":"MusicEvent","name":"Opera"}]}</script>
			<script type="application/ld+json">{broken</script>
			<script>var x = {"@type":"Event"};</script>
		</head></html>`),
	}
	objects := pagefetch.JSONLD(page)
	var names []string
	for _, obj := range objects {
		if name, ok := obj["name"].(string); ok {
			names = append(names, name)
		}
	}
	if len(objects) != 4 || len(names) != 3 || names[0] != "Jazz" || names[1] != "Rock" || names[2] != "Opera" {
		t.Fatalf("unexpected JSON-LD objects %v", objects)
	}
}

func TestFindChromePrefersEnv(t *testing.T) {
	t.Setenv("CHROME_BIN", "/opt/custom/chrome")
	if got := pagefetch.FindChrome(); got != "/opt/custom/chrome" {
		t.Fatalf("FindChrome() = %q", got)
	}
}
