package schema

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

// DefaultFuzzyThreshold is the minimum similarity score a fuzzy match must
// reach before it is trusted.
const DefaultFuzzyThreshold = 0.6

// Matcher resolves a loosely specified column reference (from an agent's
// objective or a failed query) to an actual column of the dataset.
type Matcher struct {
	taxonomy  *Taxonomy
	threshold float64
	jw        *metrics.JaroWinkler
}

// NewMatcher creates a matcher with the given fuzzy similarity threshold.
// A threshold outside (0, 1] falls back to the default.
func NewMatcher(taxonomy *Taxonomy, threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	return &Matcher{
		taxonomy:  taxonomy,
		threshold: threshold,
		jw:        metrics.NewJaroWinkler(),
	}
}

// Match resolves target against the available columns. Resolution order:
//
//  1. Exact match, case-insensitive.
//  2. Best fuzzy match at or above the similarity threshold.
//  3. Semantic fallback: classify the target and return the first column of
//     the same category.
//
// Returns "" when nothing resolves; callers must treat that as "column does
// not exist", never guess.
func (m *Matcher) Match(target string, columns []string) string {
	if target == "" || len(columns) == 0 {
		return ""
	}

	lowerTarget := strings.ToLower(target)
	for _, col := range columns {
		if strings.ToLower(col) == lowerTarget {
			return col
		}
	}

	best := ""
	bestScore := 0.0
	for _, col := range columns {
		score := strutil.Similarity(lowerTarget, strings.ToLower(col), m.jw)
		if score > bestScore {
			best = col
			bestScore = score
		}
	}
	if bestScore >= m.threshold {
		return best
	}

	if cat := m.taxonomy.Classify(target); cat != models.CategoryOther {
		for _, col := range columns {
			if m.taxonomy.Classify(col) == cat {
				return col
			}
		}
	}

	return ""
}
