package planner

import (
	"regexp"
)

// EntityExtractor pulls candidate entity names (products, registered brands)
// out of a free-text objective.
type EntityExtractor interface {
	Extract(objective string) []string
}

// UppercaseTokenExtractor treats runs of two or more uppercase letters and
// digits as entity names. Registry exports conventionally uppercase brand
// and product names, so "TIAROTEC" in a question is almost always a product.
type UppercaseTokenExtractor struct{}

var uppercaseTokenPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+\b`)

// Extract implements EntityExtractor.
func (UppercaseTokenExtractor) Extract(objective string) []string {
	return uppercaseTokenPattern.FindAllString(objective, -1)
}
