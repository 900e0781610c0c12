package textutil

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 0},
		{"abc", "", 0},
		{"abc", "abc", 1},
		{"sunset", "sunset sunside", 0.6},
		{"abcd", "abce", 0.75},
	}
	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); !approx(got, tt.want) {
			t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestPartialRatio(t *testing.T) {
	if got := PartialRatio("sunset", "sunset sunside"); got != 1 {
		t.Fatalf("expected substring to score 1, got %v", got)
	}
	if got := PartialRatio("sunside", "sunset"); got <= 0 || got >= 1 {
		t.Fatalf("expected partial overlap, got %v", got)
	}
	if got := PartialRatio("", "x"); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestTokenRatios(t *testing.T) {
	if got := TokenSortRatio("quartet jazz", "jazz quartet"); got != 1 {
		t.Fatalf("expected reordered tokens to score 1, got %v", got)
	}
	if got := TokenSetRatio("jazz quartet", "jazz quartet live"); got != 1 {
		t.Fatalf("expected subset to score 1, got %v", got)
	}
	if got := TokenSetRatio("rock", "opera"); got >= 0.5 {
		t.Fatalf("expected disjoint tokens to score low, got %v", got)
	}
}

func TestWeightedRatioVenueVariants(t *testing.T) {
	got := WeightedRatio("sunset", "sunset sunside")
	if !approx(got, 0.84) {
		t.Fatalf("WeightedRatio = %v, want 0.84", got)
	}
	if got := WeightedRatio("", "sunset"); got != 0 {
		t.Fatalf("expected 0 for empty side, got %v", got)
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Théâtre   du Châtelet ", "theatre du chatelet"},
		{"L'Œuvre — Acte II!", "l oeuvre acte ii"},
		{"Ｐａｒｉｓ", "paris"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchKeyDropsStopwords(t *testing.T) {
	if got := MatchKey("Concert: Les Nuits de Jazz à Paris"); got != "nuits jazz" {
		t.Fatalf("unexpected match key %q", got)
	}
	if got := MatchKey("Le Spectacle"); got != "le spectacle" {
		t.Fatalf("expected all-stopword title kept, got %q", got)
	}
}

func TestFuzzyScorerIgnoresStopwordsAndAccents(t *testing.T) {
	s := FuzzyScorer{}
	if got := s.Score("Jazz Night - Sunset", "JAZZ NIGHT Sunset"); got != 1 {
		t.Fatalf("expected identical match keys to score 1, got %v", got)
	}
	if got := s.Score("Le Sunset", "Sunset Sunside"); got < 0.75 {
		t.Fatalf("expected venue variant above location threshold, got %v", got)
	}
	if got := s.Score("Orchestre de Paris", "Ballet de l'Opéra"); got >= 0.85 {
		t.Fatalf("expected distinct titles below threshold, got %v", got)
	}
}
