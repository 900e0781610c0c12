package textutil

import (
	"sort"
	"strings"
)

// Ratio is the normalized longest-common-subsequence similarity of a and b:
// 2*LCS / (len(a)+len(b)), measured in runes.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	if a == b {
		return 1
	}
	return 2 * float64(lcs(ra, rb)) / float64(total)
}

// PartialRatio is the best Ratio between the shorter string and every
// same-length window of the longer one.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	short := string(ra)
	if strings.Contains(string(rb), short) {
		return 1
	}
	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		score := Ratio(short, string(rb[start:start+len(ra)]))
		if score > best {
			best = score
			if best == 1 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares a and b after sorting their tokens.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the shared tokens of a and b against each side's
// remainder. A string whose tokens are a subset of the other's scores 1.
func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var shared, onlyA, onlyB []string
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared = append(shared, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range setB {
		if _, ok := setA[token]; !ok {
			onlyB = append(onlyB, token)
		}
	}
	if len(shared) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 1
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := Ratio(withA, withB)
	if base != "" {
		best = max(best, Ratio(base, withA), Ratio(base, withB))
	}
	return best
}

// WeightedRatio blends the four ratios: 0.2 plain, 0.3 partial, 0.2 token
// sort, 0.3 token set.
func WeightedRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return 0.2*Ratio(a, b) +
		0.3*PartialRatio(a, b) +
		0.2*TokenSortRatio(a, b) +
		0.3*TokenSetRatio(a, b)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	tokens := strings.Fields(s)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func lcs(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
