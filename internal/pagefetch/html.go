package pagefetch

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Link is an anchor found on a page.
type Link struct {
	// Href is the anchor target resolved against the page URL. Unresolvable
	// and non-HTTP targets are kept verbatim.
	Href string
	// Text is the visible anchor text plus its title and aria-label.
	Text string
	// Class is the anchor's class attribute.
	Class string
}

// Links returns every <a href> of page in document order.
func Links(page *Page) []Link {
	doc, err := html.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(page.URL)
	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := attr(n, "href"); ok {
				links = append(links, Link{
					Href:  resolveHref(base, href),
					Text:  anchorText(n),
					Class: attrOrEmpty(n, "class"),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

// JSONLD returns the decoded objects of every application/ld+json script on
// the page. Top-level arrays and @graph containers are flattened.
func JSONLD(page *Page) []map[string]any {
	doc, err := html.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}
	var out []map[string]any
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			if typ, _ := attr(n, "type"); strings.EqualFold(strings.TrimSpace(typ), "application/ld+json") {
				out = append(out, decodeJSONLD(textContent(n))...)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func decodeJSONLD(raw string) []map[string]any {
	var value any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &value); err != nil {
		return nil
	}
	var out []map[string]any
	var collect func(any)
	collect = func(v any) {
		switch t := v.(type) {
		case []any:
			for _, item := range t {
				collect(item)
			}
		case map[string]any:
			if graph, ok := t["@graph"]; ok {
				collect(graph)
				return
			}
			out = append(out, t)
		}
	}
	collect(value)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func attrOrEmpty(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func anchorText(n *html.Node) string {
	parts := []string{textContent(n)}
	for _, key := range []string{"title", "aria-label"} {
		if v, ok := attr(n, key); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case html.ElementNode:
			if n.DataAtom == atom.Img {
				if alt, ok := attr(n, "alt"); ok {
					b.WriteString(alt)
					b.WriteByte(' ')
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	if ref.Scheme != "" && ref.Scheme != "http" && ref.Scheme != "https" {
		return href
	}
	if strings.HasPrefix(href, "#") {
		return href
	}
	return base.ResolveReference(ref).String()
}
