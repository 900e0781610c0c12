// Package textutil provides the text folding and similarity measures used to
// compare event titles and venues.
//
// Text is folded before comparison: lowercased, stripped of accents and
// punctuation, and (for matching) cleared of common French and English
// stopwords. Two scorers are available behind the Scorer interface:
//   - Fuzzy: a blend of edit-distance ratios (plain, partial, token-sort,
//     token-set) that tolerates reordered words and extra qualifiers.
//   - Cosine: term-frequency vectors compared by cosine similarity.
//
// All scores are in [0, 1].
package textutil
