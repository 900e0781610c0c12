package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"artify/internal/event"
	"artify/internal/textutil"
)

var (
	timePrefixPattern = regexp.MustCompile(`^(?:a partir de|a|at|from|de|des|starts?)\s+`)
	hourMinutePattern = regexp.MustCompile(`\b(\d{1,2})\s*h\s*(\d{2})\b`)
	colonTimePattern  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::\d{2})?\s*(am|pm)?\b`)
	hourOnlyPattern   = regexp.MustCompile(`\b(\d{1,2})\s*h\b`)
	meridiemPattern   = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	timeRangeSplit    = regexp.MustCompile(`\s*(?:-|–|—|\ba\b|\bau\b|\bto\b|\bjusqu'a\b)\s*`)
)

// parseClock returns the first wall-clock time in text as HH:MM.
func parseClock(text string) (string, int, bool) {
	clean := strings.ToLower(textutil.StripAccents(CleanText(text)))
	clean = timePrefixPattern.ReplaceAllString(clean, "")
	if clean == "" {
		return "", 0, false
	}

	if m := hourMinutePattern.FindStringSubmatch(clean); m != nil {
		return formatClock(m[1], m[2], "")
	}
	if m := colonTimePattern.FindStringSubmatch(clean); m != nil {
		return formatClock(m[1], m[2], m[3])
	}
	if m := hourOnlyPattern.FindStringSubmatch(clean); m != nil {
		return formatClock(m[1], "00", "")
	}
	if m := meridiemPattern.FindStringSubmatch(clean); m != nil {
		return formatClock(m[1], "00", m[2])
	}
	return "", 0, false
}

func formatClock(hourText, minuteText, meridiem string) (string, int, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return "", 0, false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil {
		return "", 0, false
	}
	switch meridiem {
	case "pm":
		if hour > 12 {
			return "", 0, false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return "", 0, false
		}
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return "", 0, false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), hour, true
}

// splitTimeRange separates "19h - 22h" into its start and end halves. Text
// without a range separator is returned whole as the start.
func splitTimeRange(text string) (string, string) {
	clean := strings.ToLower(textutil.StripAccents(CleanText(text)))
	clean = timePrefixPattern.ReplaceAllString(clean, "")
	parts := timeRangeSplit.Split(clean, 2)
	if len(parts) != 2 || parts[0] == "" {
		return text, ""
	}
	return parts[0], parts[1]
}

// timeOfDay buckets a start hour. Events without a start time count as evening.
func timeOfDay(hour int, ok bool) event.TimeOfDay {
	if !ok {
		return event.TimeOfDayEvening
	}
	return event.TimeOfDayForHour(hour)
}
