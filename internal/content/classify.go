package content

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

// Taxonomy is the data-driven category vocabulary the classifier scores
// against. It is loaded from a JSON file at construction, never hard-coded,
// so the vocabulary can change without a rebuild.
type Taxonomy struct {
	Categories map[string]Category `json:"categories"`
}

// Category is one taxonomy entry: the substring terms that signal it and an
// optional collection identifier used when publishing upstream.
type Category struct {
	Terms      []string `json:"terms"`
	Collection string   `json:"collection,omitempty"`
}

// LoadTaxonomy reads a taxonomy file. A missing file yields an empty
// taxonomy, which classifies everything as unmatched.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return &Taxonomy{Categories: map[string]Category{}}, nil
		}
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	var t Taxonomy
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}
	if t.Categories == nil {
		t.Categories = map[string]Category{}
	}
	return &t, nil
}

// Classification scores one taxonomy category against a piece of text.
type Classification struct {
	Category     string   `json:"category"`
	Collection   string   `json:"collection,omitempty"`
	Confidence   float64  `json:"confidence"`
	MatchedTerms []string `json:"matched_terms"`
}

// Classify scores text against every taxonomy category by case-insensitive
// substring match. Confidence is the matched-term count normalised against
// an expected budget of max(3, 30% of the category's terms), capped at 1.
// Categories with zero matches are omitted. Results are sorted by confidence
// descending, category name breaking ties so ordering is stable.
func (t *Taxonomy) Classify(text string) []Classification {
	lower := strings.ToLower(text)

	var matches []Classification
	for name, cat := range t.Categories {
		var matched []string
		for _, term := range cat.Terms {
			if strings.Contains(lower, strings.ToLower(term)) {
				matched = append(matched, term)
			}
		}
		if len(matched) == 0 {
			continue
		}
		budget := math.Max(3, float64(len(cat.Terms))*0.3)
		confidence := math.Min(1, float64(len(matched))/budget)
		matches = append(matches, Classification{
			Category:     name,
			Collection:   cat.Collection,
			Confidence:   math.Round(confidence*1000) / 1000,
			MatchedTerms: matched,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Category < matches[j].Category
	})
	return matches
}
