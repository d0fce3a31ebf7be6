package sql

import (
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a string literal that tripped the
// injection detector.
type InjectionCheckResult struct {
	IsSQLi      bool
	Fingerprint string
	Literal     string
}

// ScreenLiterals runs libinjection over every single-quoted literal in the
// query. The query text itself is legitimate SQL by construction; what we
// screen are the embedded values, which is where a quoting breakout would
// live. Returns a result per flagged literal, empty when clean.
func ScreenLiterals(query string) []InjectionCheckResult {
	var results []InjectionCheckResult
	for _, lit := range extractStringLiterals(query) {
		isSQLi, fingerprint := libinjection.IsSQLi(lit)
		if isSQLi {
			results = append(results, InjectionCheckResult{
				IsSQLi:      true,
				Fingerprint: string(fingerprint),
				Literal:     lit,
			})
		}
	}
	return results
}

// extractStringLiterals returns the contents of each single-quoted literal,
// with SQL standard doubled quotes ('') collapsed back to a single quote.
func extractStringLiterals(query string) []string {
	var literals []string
	var current strings.Builder
	inString := false

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if !inString {
			if ch == '\'' {
				inString = true
				current.Reset()
			}
			continue
		}
		if ch == '\'' {
			// Doubled quote is an escaped quote inside the literal.
			if i+1 < len(runes) && runes[i+1] == '\'' {
				current.WriteRune('\'')
				i++
				continue
			}
			literals = append(literals, current.String())
			inString = false
			continue
		}
		current.WriteRune(ch)
	}

	return literals
}
