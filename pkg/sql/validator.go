// Package sql validates queries before they reach the dataset session.
// Queries arrive from an outside agent and are only ever allowed to read.
package sql

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMultipleStatements indicates the query contains more than one SQL
	// statement.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

	// ErrNotReadOnly indicates the query is not a read query.
	ErrNotReadOnly = errors.New("only SELECT queries are permitted")

	// ErrEmptyQuery indicates an empty or whitespace-only query.
	ErrEmptyQuery = errors.New("query is empty")
)

// ValidateAndNormalize prepares an agent-supplied query for execution.
//
// The validation order is:
//  1. Strip trailing semicolon and whitespace (normalize)
//  2. Check for multiple statements (any remaining semicolons outside string literals)
//  3. Require the statement to start with SELECT or WITH
func ValidateAndNormalize(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	normalized := stripTrailingSemicolon(query)

	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}

	if err := ensureReadOnly(normalized); err != nil {
		return "", err
	}

	return normalized, nil
}

// ensureReadOnly accepts only statements whose leading keyword is SELECT or
// WITH. SQLite has no data-modifying CTEs, so a WITH prefix is safe here.
func ensureReadOnly(query string) error {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ErrEmptyQuery
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return nil
	default:
		return fmt.Errorf("%w (got %q)", ErrNotReadOnly, fields[0])
	}
}

// hasSemicolonOutsideStrings returns true if the query contains any
// semicolon outside of string literals.
func hasSemicolonOutsideStrings(query string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range query {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Handle both backslash escape (\') and SQL standard escape ('').
			// A doubled quote exits and immediately re-enters the string,
			// which keeps the scan correct.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

// stripTrailingSemicolon removes a trailing semicolon and surrounding
// whitespace.
func stripTrailingSemicolon(query string) string {
	query = strings.TrimRight(query, " \t\n\r")
	if strings.HasSuffix(query, ";") {
		query = strings.TrimRight(strings.TrimSuffix(query, ";"), " \t\n\r")
	}
	return query
}
