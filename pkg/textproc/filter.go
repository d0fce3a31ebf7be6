package textproc

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultTokenBudget is the reduction target when no configuration is
// supplied: documents at or under it pass through untouched.
const DefaultTokenBudget = 8000

// minSectionLength skips fragments too short to score meaningfully.
const minSectionLength = 50

// phraseMatchBonus rewards a section containing the query verbatim.
const phraseMatchBonus = 5

// regulatoryKeywords get a relevance bonus regardless of the query; the
// documents under analysis are regulatory filings and these terms mark the
// operative sections.
var regulatoryKeywords = []string{
	"clinical trial", "approval", "requirement", "timeline", "compliance",
	"safety", "regulation", "permission", "licence", "drug", "pharmaceutical",
}

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// RelevanceFilter selects the document sections most relevant to a query,
// up to a token budget.
type RelevanceFilter struct {
	budget  int
	counter *TokenCounter
}

// NewRelevanceFilter creates a filter. A non-positive budget falls back to
// the default.
func NewRelevanceFilter(budget int, counter *TokenCounter) *RelevanceFilter {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &RelevanceFilter{budget: budget, counter: counter}
}

// Budget returns the filter's token budget.
func (f *RelevanceFilter) Budget() int {
	return f.budget
}

// Filter returns the highest-scoring sections that fit the budget, joined
// with horizontal rules. With no query the text passes through unchanged.
// When nothing scores, the result is the text truncated to the budget
// rather than an empty document.
func (f *RelevanceFilter) Filter(text, query string) string {
	if query == "" {
		return text
	}

	keywords := queryKeywords(query)
	queryLower := strings.ToLower(query)

	type scoredSection struct {
		score   int
		section string
	}
	var scored []scoredSection

	for _, section := range SplitSections(text) {
		if len(strings.TrimSpace(section)) < minSectionLength {
			continue
		}
		sectionLower := strings.ToLower(section)

		score := 0
		for _, kw := range keywords {
			if strings.Contains(sectionLower, kw) {
				score++
			}
		}
		if strings.Contains(sectionLower, queryLower) {
			score += phraseMatchBonus
		}
		for _, kw := range regulatoryKeywords {
			if strings.Contains(sectionLower, kw) {
				score++
			}
		}

		if score > 0 {
			scored = append(scored, scoredSection{score: score, section: section})
		}
	}

	// Stable sort keeps document order among equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	var selected []string
	total := 0
	for _, s := range scored {
		tokens := f.counter.Count(s.section)
		if total+tokens > f.budget {
			break
		}
		selected = append(selected, strings.TrimSpace(s.section))
		total += tokens
	}

	if len(selected) == 0 {
		return f.counter.Truncate(text, f.budget)
	}
	return strings.Join(selected, "\n\n---\n\n")
}

// queryKeywords extracts the query's meaningful words: lowercased, longer
// than three characters.
func queryKeywords(query string) []string {
	var keywords []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if len(w) > 3 {
			keywords = append(keywords, w)
		}
	}
	return keywords
}
