package ticket

import (
	"net/url"
	"regexp"
	"strings"

	"artify/internal/pagefetch"
	"artify/internal/textutil"
)

// Score weights. Any URL signal outranks any text signal.
const (
	scoreTicketHost = 12
	scoreTicketPath = 10
	scoreStrongText = 6
	scoreWeakText   = 4
	scoreClassHint  = 2
)

var ticketHosts = []string{
	"billetweb", "fnacspectacles", "ticketmaster", "eventbrite",
	"weezevent", "seetickets", "digitick", "francebillet",
}

var ticketPathPattern = regexp.MustCompile(`/(?:billet|ticket|resa|reserv|book|achat|checkout|paiement|payment|inscription|register)`)

var strongTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bach(?:eter|at)\b.*\bbillets?\b`),
	regexp.MustCompile(`\bbilletterie\b`),
	regexp.MustCompile(`\bbillets?\b`),
	regexp.MustCompile(`\bje reserve\b`),
	regexp.MustCompile(`\breserv(?:er|ation)\b`),
	regexp.MustCompile(`\bprendre\b.*\bplaces?\b`),
	regexp.MustCompile(`\b(?:buy|get|book|purchase)\b.*\btickets?\b`),
	regexp.MustCompile(`\b(?:book|reserve)\b.*\bnow\b`),
}

var weakTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bs'?\s?inscrire\b`),
	regexp.MustCompile(`\binscription\b`),
	regexp.MustCompile(`\bregister\b`),
	regexp.MustCompile(`\bsign\b.*\bup\b`),
	regexp.MustCompile(`\btickets?\b`),
	regexp.MustCompile(`\bbooking\b`),
}

var blockedPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/concerts?/?$`),
	regexp.MustCompile(`/events?/?$`),
	regexp.MustCompile(`/agenda/?$`),
	regexp.MustCompile(`/spectacles?/?$`),
	regexp.MustCompile(`/programme/?$`),
	regexp.MustCompile(`/saison/?$`),
	regexp.MustCompile(`/categor(?:y|ies)/`),
	regexp.MustCompile(`/artistes?/`),
	regexp.MustCompile(`/artists?/`),
	regexp.MustCompile(`/venue/`),
	regexp.MustCompile(`/lieu/`),
	regexp.MustCompile(`/about`),
	regexp.MustCompile(`/contact`),
	regexp.MustCompile(`/faq`),
}

// Blocked reports whether href can never be a ticket link: non-HTTP schemes,
// fragments, bare domains, listing and category pages, and the event page
// itself.
func Blocked(href, pageURL string) bool {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "#"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return true
	}
	path := strings.ToLower(u.EscapedPath())
	if path == "" || path == "/" {
		return true
	}
	for _, pattern := range blockedPathPatterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	if pageURL != "" && sameDocument(href, pageURL) {
		return true
	}
	return false
}

func sameDocument(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	ua.Fragment, ub.Fragment = "", ""
	return strings.TrimSuffix(ua.String(), "/") == strings.TrimSuffix(ub.String(), "/")
}

// Score rates link as a ticket candidate for the page at pageURL. Blocked
// links score zero.
func Score(link pagefetch.Link, pageURL string) int {
	if Blocked(link.Href, pageURL) {
		return 0
	}
	score := urlScore(link.Href) + textScore(link.Text)
	if score > 0 && classHint(link.Class) {
		score += scoreClassHint
	}
	return score
}

func urlScore(href string) int {
	u, err := url.Parse(href)
	if err != nil {
		return 0
	}
	host := strings.ToLower(u.Hostname())
	for _, name := range ticketHosts {
		if strings.Contains(host, name) {
			return scoreTicketHost
		}
	}
	if ticketPathPattern.MatchString(strings.ToLower(u.EscapedPath())) {
		return scoreTicketPath
	}
	return 0
}

func textScore(text string) int {
	clean := strings.ToLower(textutil.StripAccents(textutil.CollapseSpace(text)))
	if clean == "" {
		return 0
	}
	for _, pattern := range strongTextPatterns {
		if pattern.MatchString(clean) {
			return scoreStrongText
		}
	}
	for _, pattern := range weakTextPatterns {
		if pattern.MatchString(clean) {
			return scoreWeakText
		}
	}
	return 0
}

func classHint(class string) bool {
	class = strings.ToLower(class)
	return strings.Contains(class, "ticket") || strings.Contains(class, "booking") ||
		strings.Contains(class, "reserv") || strings.Contains(class, "billet")
}
