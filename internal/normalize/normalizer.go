package normalize

import (
	"strings"
	"time"

	"artify/internal/classify"
	"artify/internal/event"
)

// Options configures a Normalizer.
type Options struct {
	// Reference anchors dates written without a year. Ingestion runs pass
	// their start time so every record in a run resolves the same way.
	Reference time.Time
	// Location is used for custom date layouts that carry a zone-less time.
	Location *time.Location
	// Locale is "fr" (day-first numeric dates) or "en" (month-first).
	Locale string
	// DateLayouts are Go time layouts tried before the built-in formats.
	DateLayouts []string
}

// Normalizer converts RawRecords into NormalizedEvents.
type Normalizer struct {
	dates dateParser
}

// New constructs a Normalizer.
func New(opts Options) *Normalizer {
	ref := opts.Reference
	if ref.IsZero() {
		ref = time.Now()
	}
	if opts.Location != nil {
		ref = ref.In(opts.Location)
	}
	locale := strings.ToLower(strings.TrimSpace(opts.Locale))
	if locale == "" {
		locale = "fr"
	}
	return &Normalizer{dates: dateParser{
		reference: ref,
		location:  opts.Location,
		locale:    locale,
		layouts:   append([]string(nil), opts.DateLayouts...),
	}}
}

// ForSource returns a copy of n using a source's locale and date layouts.
// Empty values keep n's settings.
func (n *Normalizer) ForSource(locale string, layouts []string) *Normalizer {
	clone := *n
	if locale = strings.ToLower(strings.TrimSpace(locale)); locale != "" {
		clone.dates.locale = locale
	}
	if len(layouts) > 0 {
		clone.dates.layouts = append([]string(nil), layouts...)
	}
	return &clone
}

// Reference returns the date year-less listings are resolved against.
func (n *Normalizer) Reference() time.Time {
	return n.dates.reference
}

// Normalize parses raw into a NormalizedEvent. It fails with
// *IncompleteRecordError when the title or venue is empty and with
// *MalformedDateError when no start date can be read. The result is never
// verified; verification happens after deduplication.
func (n *Normalizer) Normalize(raw event.RawRecord) (event.NormalizedEvent, error) {
	source := strings.TrimSpace(raw.SourceName)
	url := strings.TrimSpace(raw.SourceEventURL)

	title := CleanText(raw.Title)
	if title == "" {
		return event.NormalizedEvent{}, &IncompleteRecordError{Source: source, URL: url, Field: "title"}
	}
	venue := CleanText(raw.LocationName)
	if venue == "" {
		return event.NormalizedEvent{}, &IncompleteRecordError{Source: source, URL: url, Field: "location_name"}
	}

	start, rangeEnd, ok := n.dates.parseRange(raw.DateText)
	if !ok {
		return event.NormalizedEvent{}, &MalformedDateError{Source: source, URL: url, Text: strings.TrimSpace(raw.DateText)}
	}
	end := rangeEnd
	if strings.TrimSpace(raw.DateEndText) != "" {
		if parsed, ok := n.dates.parse(raw.DateEndText); ok {
			end = &parsed
		}
	}
	if end != nil && end.Before(start) {
		end = nil
	}

	startText, endText := raw.TimeText, raw.TimeEndText
	if strings.TrimSpace(endText) == "" {
		startText, endText = splitTimeRange(raw.TimeText)
	}
	if strings.TrimSpace(startText) == "" {
		startText = isoClock(raw.DateText)
	}
	if strings.TrimSpace(endText) == "" {
		endText = isoClock(raw.DateEndText)
	}
	timeStart, hour, hasStart := parseClock(startText)
	timeEnd, _, _ := parseClock(endText)

	address := NormalizeAddress(raw.Address)
	var arrondissement *int
	if arr, ok := Arrondissement(address); ok {
		arrondissement = &arr
	} else if arr, ok := Arrondissement(venue); ok {
		arrondissement = &arr
	}

	price := ParsePrice(raw.PriceText)

	normalized := event.NormalizedEvent{
		Title:                 title,
		Description:           CleanText(raw.Description),
		Tags:                  CleanTags(raw.Tags),
		DateStart:             start,
		DateEnd:               end,
		TimeStart:             timeStart,
		TimeEnd:               timeEnd,
		TimeOfDay:             timeOfDay(hour, hasStart),
		LocationName:          venue,
		Address:               address,
		Arrondissement:        arrondissement,
		Latitude:              validCoordinate(raw.Latitude, 90),
		Longitude:             validCoordinate(raw.Longitude, 180),
		PriceFrom:             price.From,
		PriceTo:               price.To,
		IsFree:                price.Free,
		Currency:              DefaultCurrency,
		ImageURL:              strings.TrimSpace(raw.ImageURL),
		Organizer:             CleanText(raw.Organizer),
		SourceName:            source,
		SourceEventURL:        url,
		TicketURL:             strings.TrimSpace(raw.TicketURL),
		HasDirectTicketButton: raw.HasTicketButton,
	}
	if category, ok := classify.CategoryForAlias(raw.RawCategory); ok {
		normalized.Category = category
	}
	return normalized, nil
}
