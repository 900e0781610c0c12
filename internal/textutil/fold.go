package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are dropped before matching. Generic event nouns and the city name
// appear in most titles and venues and carry no identifying signal.
var stopwords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "l": {}, "de": {}, "du": {}, "des": {}, "d": {},
	"un": {}, "une": {}, "et": {}, "a": {}, "au": {}, "aux": {}, "en": {},
	"dans": {}, "sur": {}, "par": {}, "pour": {},
	"the": {}, "an": {}, "and": {}, "of": {},
	"concert": {}, "spectacle": {}, "exposition": {}, "atelier": {}, "soiree": {},
	"paris": {}, "france": {},
}

var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "oe",
	"æ", "ae", "Æ", "ae",
	"ß", "ss",
)

// StripAccents removes combining marks after canonical decomposition.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, ligatures.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// CollapseSpace trims s and replaces every whitespace run with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold lowercases s, strips accents, and turns every non-alphanumeric rune
// into a separator.
func Fold(s string) string {
	s = strings.ToLower(StripAccents(norm.NFKC.String(s)))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return CollapseSpace(b.String())
}

// MatchKey folds s and removes stopwords. If every token is a stopword the
// folded text is returned unchanged so short titles still compare.
func MatchKey(s string) string {
	folded := Fold(s)
	tokens := strings.Fields(folded)
	kept := tokens[:0]
	for _, token := range tokens {
		if _, ok := stopwords[token]; ok {
			continue
		}
		kept = append(kept, token)
	}
	if len(kept) == 0 {
		return folded
	}
	return strings.Join(kept, " ")
}
