package normalize

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"artify/internal/textutil"
)

// CleanText applies NFKC normalization and collapses whitespace.
func CleanText(s string) string {
	return textutil.CollapseSpace(norm.NFKC.String(s))
}

// CleanTags trims, deduplicates, and sorts tags.
func CleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(CleanText(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
