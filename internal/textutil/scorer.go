package textutil

import "fmt"

// Scorer measures how similar two free-text values are, in [0, 1].
type Scorer interface {
	Score(a, b string) float64
}

// FuzzyScorer applies WeightedRatio to the match keys of its inputs.
type FuzzyScorer struct{}

func (FuzzyScorer) Score(a, b string) float64 {
	return WeightedRatio(MatchKey(a), MatchKey(b))
}

// CosineScorer compares term-frequency fingerprints of the match keys.
type CosineScorer struct{}

func (CosineScorer) Score(a, b string) float64 {
	return CosineSimilarity(NewFingerprint(MatchKey(a)), NewFingerprint(MatchKey(b)))
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// ScorerByName resolves the dedup.scorer setting.
func ScorerByName(name string) (Scorer, error) {
	switch name {
	case "", "fuzzy":
		return FuzzyScorer{}, nil
	case "cosine":
		return CosineScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}
