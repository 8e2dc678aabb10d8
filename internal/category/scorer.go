// Package category proposes an expense category from receipt text. The
// scorer is a deterministic keyword classifier: no model calls, so intake
// stays fast and its suggestions are reproducible for the same receipt.
package category

import "strings"

// Category pairs a catalog entry with the keywords that vote for it.
// The catalog is configuration data; order matters for tie-breaking.
type Category struct {
	Name     string
	Keywords []string
}

// Suggestion is a proposed category value with the scorer's confidence.
type Suggestion struct {
	Value      string
	Confidence float64
}

// Scoring constants. A single keyword hit lands well below the review
// threshold so a suggestion alone never looks extraction-certain.
const (
	baseScore = 0.35
	perHit    = 0.12
	maxScore  = 0.9

	// FallbackConfidence marks a suggestion with no keyword support.
	FallbackConfidence = 0.25
)

// Scorer scores receipt text against a fixed ordered catalog.
type Scorer struct {
	catalog  []Category
	fallback string
}

// Option configures the Scorer.
type Option func(*Scorer)

// WithCatalog replaces the default catalog.
func WithCatalog(catalog []Category) Option {
	return func(s *Scorer) {
		if len(catalog) > 0 {
			s.catalog = catalog
		}
	}
}

// WithFallback replaces the default fallback category name.
func WithFallback(name string) Option {
	return func(s *Scorer) {
		if name != "" {
			s.fallback = name
		}
	}
}

// NewScorer builds a scorer over the default catalog.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		catalog:  DefaultCatalog(),
		fallback: FallbackCategory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest classifies the concatenated merchant text, raw extracted text, and
// optional note. Each keyword occurrence (substring match on the normalized
// text) counts one hit; a category scores min(0.9, 0.35 + 0.12*hits) and
// zero-hit categories are not candidates. Ties keep the first-seen category
// in catalog order. With no hits anywhere the fallback category is returned
// at exactly FallbackConfidence.
func (s *Scorer) Suggest(merchant, rawText, note string) Suggestion {
	text := normalize(merchant) + " " + normalize(rawText) + " " + normalize(note)

	best := Suggestion{Value: s.fallback, Confidence: FallbackConfidence}
	haveCandidate := false
	for _, cat := range s.catalog {
		hits := 0
		for _, kw := range cat.Keywords {
			hits += strings.Count(text, kw)
		}
		if hits == 0 {
			continue
		}
		score := baseScore + perHit*float64(hits)
		if score > maxScore {
			score = maxScore
		}
		// Strictly-greater comparison keeps the earlier catalog entry on
		// a score tie.
		if !haveCandidate || score > best.Confidence {
			best = Suggestion{Value: cat.Name, Confidence: score}
			haveCandidate = true
		}
	}
	return best
}

// ShouldApply reports whether a suggestion may replace the existing category
// value. An already-meaningful value from extraction is never overwritten;
// only an empty value or the uncategorized sentinel (case-insensitive) is.
func (s *Scorer) ShouldApply(existing string) bool {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return true
	}
	return strings.EqualFold(existing, s.fallback) || strings.EqualFold(existing, FallbackCategory)
}

// normalize case-folds, collapses interior whitespace, and trims.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
