package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"time"

	"artify/internal/event"
	"artify/internal/textutil"
)

// CanonicalID derives the stable identifier of an event from its folded
// title, start date, and folded venue.
func CanonicalID(title string, date time.Time, venue string) string {
	sum := sha256.Sum256([]byte(textutil.Fold(title) + "|" + date.Format(event.DateLayout) + "|" + textutil.Fold(venue)))
	return hex.EncodeToString(sum[:8])
}

// backfill copies optional fields the canonical record lacks from the first
// witness, in rank order, that has them. Tags are unioned.
func backfill(canonical event.NormalizedEvent, witnesses []event.NormalizedEvent) event.NormalizedEvent {
	merged := canonical
	merged.Tags = slices.Clone(canonical.Tags)
	for _, w := range witnesses {
		if merged.Description == "" && w.Description != "" {
			merged.Description = w.Description
		}
		if merged.Category == "" && w.Category != "" {
			merged.Category = w.Category
			merged.SubCategory = w.SubCategory
			merged.ClassifierConfidence = w.ClassifierConfidence
		}
		if merged.SubCategory == "" && w.SubCategory != "" && w.Category == merged.Category {
			merged.SubCategory = w.SubCategory
		}
		if merged.DateEnd == nil && w.DateEnd != nil {
			end := *w.DateEnd
			merged.DateEnd = &end
		}
		if merged.TimeStart == "" && w.TimeStart != "" {
			merged.TimeStart = w.TimeStart
			merged.TimeOfDay = w.TimeOfDay
		}
		if merged.TimeEnd == "" && w.TimeEnd != "" {
			merged.TimeEnd = w.TimeEnd
		}
		if merged.Address == "" && w.Address != "" {
			merged.Address = w.Address
		}
		if merged.Arrondissement == nil && w.Arrondissement != nil {
			merged.Arrondissement = copyInt(w.Arrondissement)
		}
		if (merged.Latitude == nil || merged.Longitude == nil) && w.Latitude != nil && w.Longitude != nil {
			merged.Latitude = copyFloat(w.Latitude)
			merged.Longitude = copyFloat(w.Longitude)
		}
		if merged.PriceFrom == nil && w.PriceFrom != nil {
			merged.PriceFrom = copyFloat(w.PriceFrom)
			merged.PriceTo = copyFloat(w.PriceTo)
			merged.IsFree = w.IsFree
		}
		if merged.ImageURL == "" && w.ImageURL != "" {
			merged.ImageURL = w.ImageURL
		}
		if merged.Organizer == "" && w.Organizer != "" {
			merged.Organizer = w.Organizer
		}
		if merged.TicketURL == "" && w.TicketURL != "" {
			merged.TicketURL = w.TicketURL
			merged.HasDirectTicketButton = true
		}
		merged.Tags = append(merged.Tags, w.Tags...)
	}
	if len(merged.Tags) > 0 {
		slices.Sort(merged.Tags)
		merged.Tags = slices.Compact(merged.Tags)
	}
	return merged
}

// verified reports whether the merged record is structurally valid and no
// witness contradicts its price or end date.
func verified(merged event.NormalizedEvent, witnesses []event.NormalizedEvent) bool {
	if merged.DateStart.IsZero() || merged.Title == "" || merged.LocationName == "" {
		return false
	}
	for _, w := range witnesses {
		if merged.PriceFrom != nil && w.PriceFrom != nil && *merged.PriceFrom != *w.PriceFrom {
			return false
		}
		if merged.PriceFrom != nil && w.PriceFrom != nil && merged.IsFree != w.IsFree {
			return false
		}
		if merged.DateEnd != nil && w.DateEnd != nil && !merged.DateEnd.Equal(*w.DateEnd) {
			return false
		}
	}
	return true
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
