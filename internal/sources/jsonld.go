package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"artify/internal/config"
	"artify/internal/event"
	"artify/internal/pagefetch"
	"artify/internal/services"
	"artify/internal/textutil"
)

// eventTypeCategories maps schema.org Event subtypes to category labels the
// normalizer understands.
var eventTypeCategories = map[string]string{
	"MusicEvent":      "concert",
	"TheaterEvent":    "theatre",
	"ExhibitionEvent": "exposition",
	"ComedyEvent":     "humour",
	"DanceEvent":      "danse",
	"SportsEvent":     "sport",
	"FoodEvent":       "gastronomie",
	"ScreeningEvent":  "cinema",
	"EducationEvent":  "atelier",
	"LiteraryEvent":   "lecture",
}

// JSONLD reads schema.org Event objects embedded in a listing page.
type JSONLD struct {
	http    pagefetch.Fetcher
	browser pagefetch.Fetcher
	logger  *slog.Logger
}

// NewJSONLD constructs the JSON-LD adapter. browser may be nil; sources that
// ask for JavaScript rendering then fail with a configuration error.
func NewJSONLD(http, browser pagefetch.Fetcher, logger *slog.Logger) *JSONLD {
	return &JSONLD{http: http, browser: browser, logger: logger}
}

// Scrape fetches src.URL and maps every embedded event.
func (j *JSONLD) Scrape(ctx context.Context, src config.Source) ([]event.RawRecord, error) {
	fetcher := j.http
	if src.RenderJS {
		fetcher = j.browser
	}
	if fetcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "scrape", src.Name, "no page fetcher available", nil)
	}
	page, err := fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	var records []event.RawRecord
	for _, obj := range pagefetch.JSONLD(page) {
		for _, item := range expandItems(obj) {
			types := typeNames(item["@type"])
			if !isEventType(types) {
				continue
			}
			records = append(records, mapEvent(src.Name, page.URL, item, types))
		}
	}
	j.logger.Debug("json-ld page mapped",
		slog.String("source", src.Name),
		slog.String("url", page.URL),
		slog.Int("records", len(records)),
	)
	return records, nil
}

// expandItems unwraps ItemList containers into their element objects.
func expandItems(obj map[string]any) []map[string]any {
	if !hasType(typeNames(obj["@type"]), "ItemList") {
		return []map[string]any{obj}
	}
	var items []map[string]any
	for _, entry := range asList(obj["itemListElement"]) {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if inner, ok := m["item"].(map[string]any); ok {
			m = inner
		}
		items = append(items, m)
	}
	return items
}

func mapEvent(source, pageURL string, item map[string]any, types []string) event.RawRecord {
	rec := event.RawRecord{
		SourceName:  source,
		Title:       str(item["name"]),
		Description: str(item["description"]),
		DateText:    str(item["startDate"]),
		DateEndText: str(item["endDate"]),
		ImageURL:    image(item["image"]),
		Organizer:   name(item["organizer"]),
		Tags:        keywords(item["keywords"]),
	}
	rec.SourceEventURL = str(item["url"])
	if rec.SourceEventURL == "" {
		rec.SourceEventURL = pageURL + "#" + slug(rec.Title+" "+rec.DateText)
	}
	for _, t := range types {
		if category, ok := eventTypeCategories[t]; ok {
			rec.RawCategory = category
			break
		}
	}
	mapLocation(&rec, item["location"])
	mapOffers(&rec, item["offers"])
	if free, ok := item["isAccessibleForFree"].(bool); ok && free && rec.PriceText == "" {
		rec.PriceText = "gratuit"
	}
	return rec
}

func mapLocation(rec *event.RawRecord, value any) {
	for _, entry := range asList(value) {
		switch place := entry.(type) {
		case string:
			if rec.LocationName == "" {
				rec.LocationName = place
			}
		case map[string]any:
			if rec.LocationName == "" {
				rec.LocationName = str(place["name"])
			}
			if rec.Address == "" {
				rec.Address = address(place["address"])
			}
			if geo, ok := place["geo"].(map[string]any); ok && rec.Latitude == nil {
				rec.Latitude = number(geo["latitude"])
				rec.Longitude = number(geo["longitude"])
			}
		}
	}
}

func address(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		parts := make([]string, 0, 3)
		for _, key := range []string{"streetAddress", "postalCode", "addressLocality"} {
			if s := str(v[key]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func mapOffers(rec *event.RawRecord, value any) {
	var low, high *float64
	for _, entry := range asList(value) {
		offer, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"price", "lowPrice"} {
			if p := number(offer[key]); p != nil && (low == nil || *p < *low) {
				low = p
			}
		}
		for _, key := range []string{"price", "highPrice"} {
			if p := number(offer[key]); p != nil && (high == nil || *p > *high) {
				high = p
			}
		}
		if rec.TicketURL == "" {
			if u := str(offer["url"]); u != "" {
				rec.TicketURL = u
				rec.HasTicketButton = true
			}
		}
	}
	switch {
	case low == nil:
	case *low == 0 && (high == nil || *high == 0):
		rec.PriceText = "gratuit"
	case high != nil && *high > *low:
		rec.PriceText = fmt.Sprintf("%s - %s €", formatPrice(*low), formatPrice(*high))
	default:
		rec.PriceText = formatPrice(*low) + " €"
	}
}

func formatPrice(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

func typeNames(value any) []string {
	var names []string
	for _, entry := range asList(value) {
		if s, ok := entry.(string); ok {
			s = strings.TrimPrefix(s, "schema:")
			s = strings.TrimPrefix(s, "https://schema.org/")
			s = strings.TrimPrefix(s, "http://schema.org/")
			names = append(names, s)
		}
	}
	return names
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func isEventType(types []string) bool {
	for _, t := range types {
		if t == "Event" || t == "Festival" || strings.HasSuffix(t, "Event") {
			return true
		}
	}
	return false
}

func asList(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

func str(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func name(value any) string {
	for _, entry := range asList(value) {
		switch v := entry.(type) {
		case string:
			return strings.TrimSpace(v)
		case map[string]any:
			if n := str(v["name"]); n != "" {
				return n
			}
		}
	}
	return ""
}

func image(value any) string {
	for _, entry := range asList(value) {
		switch v := entry.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if s := str(v["url"]); s != "" {
				return s
			}
			if s := str(v["contentUrl"]); s != "" {
				return s
			}
		}
	}
	return ""
}

func keywords(value any) []string {
	var tags []string
	for _, entry := range asList(value) {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tags = append(tags, part)
			}
		}
	}
	return tags
}

func number(value any) *float64 {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(v), ",", ".", 1), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func slug(text string) string {
	folded := textutil.Fold(text)
	var b strings.Builder
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
