package logging

import (
	"regexp"
)

const (
	// MaxTextLogLength is the maximum length of document or query text to log.
	MaxTextLogLength = 200
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// Matches bearer tokens (Supabase service keys are JWTs).
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.?[A-Za-z0-9-_.]*`)

	// Matches API key assignments in URLs or error text.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)
)

// SanitizeError sanitizes error text that may echo request headers or URLs
// containing credentials. Use before logging errors from HTTP collaborators.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := bearerPattern.ReplaceAllString(err.Error(), "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return sanitized
}

// TruncateText bounds free-form text (document chunks, SQL, objectives) for
// log fields so a single request cannot flood the log stream.
func TruncateText(text string) string {
	if len(text) <= MaxTextLogLength {
		return text
	}
	return text[:MaxTextLogLength] + "..."
}
