package classify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"artify/internal/event"
	"artify/internal/services"
	"artify/internal/textutil"
)

// RuleFile is the YAML shape of a rules extension file. Every list extends the
// built-in table for its category.
//
//	keywords:
//	  musique: [guinguette, fanfare]
//	sub_categories:
//	  musique: [baroque]
type RuleFile struct {
	Keywords      map[string][]string `yaml:"keywords"`
	SubCategories map[string][]string `yaml:"sub_categories"`
}

// Rules is the keyword classifier. Keywords are matched as substrings of the
// folded title, description, and venue; the category with the most hits wins
// and ties go to the earlier entry of Categories.
type Rules struct {
	keywords map[string][]string
	subs     map[string][]string
}

// NewRules returns a classifier using the built-in tables.
func NewRules() *Rules {
	r := &Rules{
		keywords: make(map[string][]string, len(keywords)),
		subs:     make(map[string][]string, len(subCategories)),
	}
	for category, words := range keywords {
		r.addKeywords(category, words)
	}
	for category, subs := range subCategories {
		r.subs[category] = append([]string(nil), subs...)
	}
	return r
}

// LoadRules reads a YAML rules file and merges it over the built-in tables.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "load rules", path, err)
	}
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "parse rules", path, err)
	}
	r := NewRules()
	if err := r.Extend(file); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "classify", "apply rules", path, err)
	}
	return r, nil
}

// Extend merges file into r. Unknown categories are rejected.
func (r *Rules) Extend(file RuleFile) error {
	for category, words := range file.Keywords {
		if !Valid(category) {
			return fmt.Errorf("keywords: %w %q", ErrUnknownCategory, category)
		}
		r.addKeywords(category, words)
	}
	for category, subs := range file.SubCategories {
		if !Valid(category) {
			return fmt.Errorf("sub_categories: %w %q", ErrUnknownCategory, category)
		}
		for _, sub := range subs {
			if sub = strings.TrimSpace(strings.ToLower(sub)); sub != "" {
				r.subs[category] = append(r.subs[category], sub)
			}
		}
	}
	return nil
}

func (r *Rules) addKeywords(category string, words []string) {
	for _, word := range words {
		if folded := textutil.Fold(word); folded != "" {
			r.keywords[category] = append(r.keywords[category], folded)
		}
	}
}

// Classify never fails. An event already carrying a valid category from its
// source keeps it.
func (r *Rules) Classify(_ context.Context, ev event.NormalizedEvent) (Result, error) {
	text := textutil.Fold(ev.Title + " " + ev.Description + " " + ev.LocationName)
	if Valid(ev.Category) {
		return Result{
			Category:    ev.Category,
			SubCategory: r.SubCategoryFor(ev.Category, text),
			Confidence:  0.9,
			Method:      MethodSource,
		}, nil
	}

	best, bestScore := "", 0
	for _, category := range Categories {
		score := 0
		for _, keyword := range r.keywords[category] {
			if strings.Contains(text, keyword) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = category, score
		}
	}
	if bestScore == 0 {
		return Result{Category: DefaultCategory, Confidence: 0.3, Method: MethodRules}, nil
	}
	confidence := 0.5 + 0.1*float64(bestScore)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return Result{
		Category:    best,
		SubCategory: r.SubCategoryFor(best, text),
		Confidence:  confidence,
		Method:      MethodRules,
	}, nil
}

// SubCategoryFor returns the first sub-category of category named in the
// folded text.
func (r *Rules) SubCategoryFor(category, foldedText string) string {
	for _, sub := range r.subs[category] {
		if strings.Contains(foldedText, strings.ReplaceAll(sub, "_", " ")) {
			return sub
		}
	}
	return ""
}
