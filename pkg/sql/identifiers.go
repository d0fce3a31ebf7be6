package sql

import (
	"regexp"
)

var quotedIdentPattern = regexp.MustCompile(`"((?:[^"]|"")+)"`)

// ExtractQuotedIdentifiers returns every double-quoted identifier in the
// query, in order of appearance, with duplicates removed. Used during
// error recovery to work out which referenced column does not exist.
func ExtractQuotedIdentifiers(query string) []string {
	matches := quotedIdentPattern.FindAllStringSubmatch(query, -1)
	seen := make(map[string]bool, len(matches))
	var idents []string
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		idents = append(idents, name)
	}
	return idents
}
