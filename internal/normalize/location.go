package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"artify/internal/textutil"
)

var (
	postcodePattern = regexp.MustCompile(`\b75(?:0(\d{2})|116)\b`)
	ordinalPattern  = regexp.MustCompile(`\b(\d{1,2})\s*(?:er|e|eme|ieme)\b(?:\s*arr(?:ondissement)?\b)?`)
	parisPattern    = regexp.MustCompile(`\bparis\s*(\d{1,2})\b`)
)

// Arrondissement extracts a Paris arrondissement (1-20) from an address or
// venue name. Postcodes win over ordinals, which win over "Paris 11".
func Arrondissement(text string) (int, bool) {
	clean := strings.ToLower(textutil.StripAccents(CleanText(text)))
	if clean == "" {
		return 0, false
	}
	if m := postcodePattern.FindStringSubmatch(clean); m != nil {
		if m[1] == "" {
			return 16, true
		}
		return checkArrondissement(m[1])
	}
	for _, pattern := range []*regexp.Regexp{ordinalPattern, parisPattern} {
		for _, m := range pattern.FindAllStringSubmatch(clean, -1) {
			if n, ok := checkArrondissement(m[1]); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func checkArrondissement(text string) (int, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > 20 {
		return 0, false
	}
	return n, true
}

// NormalizeAddress cleans an address and appends the city when the address
// names an arrondissement but not Paris itself.
func NormalizeAddress(address string) string {
	address = CleanText(address)
	if address == "" {
		return ""
	}
	if _, ok := Arrondissement(address); ok && !strings.Contains(strings.ToLower(address), "paris") {
		address += ", Paris"
	}
	return address
}

// validCoordinate returns v when it is a finite value inside limit.
func validCoordinate(v *float64, limit float64) *float64 {
	if v == nil || *v != *v || *v < -limit || *v > limit {
		return nil
	}
	out := *v
	return &out
}
