package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"artify/internal/textutil"
)

// DefaultCurrency is applied to every parsed price.
const DefaultCurrency = "EUR"

var (
	freePattern   = regexp.MustCompile(`\bgratuit|\bfree\b|\bentree libre\b|\blibre\b|(?:^|[^\d.,])0\s*(?:€|eur\b|euros?\b)`)
	amountPattern = regexp.MustCompile(`\d+(?:[.,]\d{1,2})?`)
)

// Price is the parsed form of a free-text price.
type Price struct {
	From *float64
	To   *float64
	Free bool
}

// ParsePrice reads a listing's price text. Free markers yield From=0. Several
// amounts yield the lowest and highest, a single amount fills both bounds, and
// text without amounts leaves the price unknown.
func ParsePrice(text string) Price {
	clean := strings.ToLower(textutil.StripAccents(CleanText(text)))
	if clean == "" {
		return Price{}
	}
	if freePattern.MatchString(clean) {
		zero := 0.0
		return Price{From: &zero, Free: true}
	}

	matches := amountPattern.FindAllString(clean, -1)
	amounts := make([]float64, 0, len(matches))
	for _, match := range matches {
		value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
		if err != nil {
			continue
		}
		amounts = append(amounts, value)
	}
	if len(amounts) == 0 {
		return Price{}
	}
	sort.Float64s(amounts)
	low, high := amounts[0], amounts[len(amounts)-1]
	return Price{From: &low, To: &high, Free: low == 0}
}
