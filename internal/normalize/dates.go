package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"artify/internal/textutil"
)

// yearRollover is how far before the reference date a year-less date may fall
// before it is read as next year's occurrence.
const yearRollover = 60 * 24 * time.Hour

var monthNames = map[string]time.Month{
	"janvier": time.January, "janv": time.January, "jan": time.January, "january": time.January,
	"fevrier": time.February, "fevr": time.February, "fev": time.February, "february": time.February, "feb": time.February,
	"mars": time.March, "mar": time.March, "march": time.March,
	"avril": time.April, "avr": time.April, "april": time.April, "apr": time.April,
	"mai": time.May, "may": time.May,
	"juin": time.June, "june": time.June, "jun": time.June,
	"juillet": time.July, "juil": time.July, "july": time.July, "jul": time.July,
	"aout": time.August, "aou": time.August, "august": time.August, "aug": time.August,
	"septembre": time.September, "sept": time.September, "sep": time.September, "september": time.September,
	"octobre": time.October, "oct": time.October, "october": time.October,
	"novembre": time.November, "nov": time.November, "november": time.November,
	"decembre": time.December, "dec": time.December, "december": time.December,
}

var weekdayNames = map[string]struct{}{
	"lundi": {}, "mardi": {}, "mercredi": {}, "jeudi": {}, "vendredi": {}, "samedi": {}, "dimanche": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {}, "saturday": {}, "sunday": {},
	"lun": {}, "mer": {}, "jeu": {}, "ven": {}, "sam": {}, "dim": {},
	"mon": {}, "tue": {}, "wed": {}, "thu": {}, "fri": {}, "sat": {}, "sun": {},
}

var (
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:[t ](\d{2}):(\d{2}))?`)
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`)
	dayMonthPattern    = regexp.MustCompile(`\b(\d{1,2})(?:er|st|nd|rd|th)?\s+([a-z]+)\.?(?:\s+(\d{4}))?`)
	monthDayPattern    = regexp.MustCompile(`\b([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?(?:\s+(\d{4}))?\b`)
	dayRangePattern    = regexp.MustCompile(`\b(\d{1,2})(?:er)?\s*(?:au|-|to)\s*(\d{1,2})(?:er)?\s+([a-z]+)\.?(?:\s+(\d{4}))?`)
)

type dateParser struct {
	reference time.Time
	location  *time.Location
	locale    string
	layouts   []string
}

// civil returns midnight of the given calendar day, or false when the day
// does not exist.
func (p dateParser) civil(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// yearless resolves a day and month against the reference date.
func (p dateParser) yearless(month time.Month, day int) (time.Time, bool) {
	ref := time.Date(p.reference.Year(), p.reference.Month(), p.reference.Day(), 0, 0, 0, 0, time.UTC)
	t, ok := p.civil(ref.Year(), month, day)
	if !ok {
		return p.civil(ref.Year()+1, month, day)
	}
	if ref.Sub(t) > yearRollover {
		return p.civil(ref.Year()+1, month, day)
	}
	return t, true
}

func (p dateParser) withYear(yearText string, month time.Month, day int) (time.Time, bool) {
	if yearText == "" {
		return p.yearless(month, day)
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	return p.civil(year, month, day)
}

// cleanDateText lowercases, strips accents, and drops weekday names so the
// remaining text is a day, a month, and maybe a year.
func cleanDateText(text string) string {
	text = strings.ToLower(textutil.StripAccents(CleanText(text)))
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ','
	})
	kept := fields[:0]
	for _, field := range fields {
		if _, ok := weekdayNames[strings.TrimSuffix(field, ".")]; ok {
			continue
		}
		if field == "le" || field == "du" || field == "the" || field == "on" {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

// parse returns the first date found in text.
func (p dateParser) parse(text string) (time.Time, bool) {
	start, _, ok := p.parseRange(text)
	return start, ok
}

// parseRange returns the start date in text and, for "14 au 16 mars" style
// ranges, the end date.
func (p dateParser) parseRange(text string) (time.Time, *time.Time, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return time.Time{}, nil, false
	}
	for _, layout := range p.layouts {
		if t, err := time.ParseInLocation(layout, raw, p.loc()); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil, true
		}
	}

	clean := cleanDateText(raw)

	if m := isoDatePattern.FindStringSubmatch(clean); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if t, ok := p.civil(year, time.Month(month), day); ok {
			return t, nil, true
		}
	}

	if m := numericDatePattern.FindStringSubmatch(clean); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		day, month := first, second
		if p.locale == "en" {
			day, month = second, first
		}
		if t, ok := p.withYear(m[3], time.Month(month), day); ok {
			return t, nil, true
		}
	}

	if m := dayRangePattern.FindStringSubmatch(clean); m != nil {
		if month, ok := monthNames[m[3]]; ok {
			first, _ := strconv.Atoi(m[1])
			last, _ := strconv.Atoi(m[2])
			start, okStart := p.withYear(m[4], month, first)
			end, okEnd := p.withYear(m[4], month, last)
			if okStart && okEnd && !end.Before(start) {
				return start, &end, true
			}
		}
	}

	for _, m := range dayMonthPattern.FindAllStringSubmatch(clean, -1) {
		month, ok := monthNames[m[2]]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		if t, ok := p.withYear(m[3], month, day); ok {
			return t, nil, true
		}
	}

	for _, m := range monthDayPattern.FindAllStringSubmatch(clean, -1) {
		month, ok := monthNames[m[1]]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[2])
		if t, ok := p.withYear(m[3], month, day); ok {
			return t, nil, true
		}
	}

	return time.Time{}, nil, false
}

func (p dateParser) loc() *time.Location {
	if p.location == nil {
		return time.UTC
	}
	return p.location
}

// isoClock extracts the wall-clock part of an ISO date-time, if present.
func isoClock(text string) string {
	m := isoDatePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if m == nil || m[4] == "" {
		return ""
	}
	return m[4] + ":" + m[5]
}
