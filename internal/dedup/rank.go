package dedup

import (
	"unicode/utf8"

	"artify/internal/event"
)

// outranks reports whether a should be preferred over b as a group's
// canonical record. Criteria in order: direct ticket button, image,
// description length, trusted source, then source_event_url and
// source_name ascending.
func outranks(a, b event.NormalizedEvent, trusted map[string]bool) bool {
	if c := compareQuality(a, b, trusted); c != 0 {
		return c > 0
	}
	if a.SourceEventURL != b.SourceEventURL {
		return a.SourceEventURL < b.SourceEventURL
	}
	return a.SourceName < b.SourceName
}

// compareQuality compares the non-identifying ranking criteria. A positive
// result means a ranks higher.
func compareQuality(a, b event.NormalizedEvent, trusted map[string]bool) int {
	if c := compareBool(a.HasDirectTicketButton, b.HasDirectTicketButton); c != 0 {
		return c
	}
	if c := compareBool(a.ImageURL != "", b.ImageURL != ""); c != 0 {
		return c
	}
	la, lb := utf8.RuneCountInString(a.Description), utf8.RuneCountInString(b.Description)
	if la != lb {
		if la > lb {
			return 1
		}
		return -1
	}
	return compareBool(trusted[a.SourceName], trusted[b.SourceName])
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
