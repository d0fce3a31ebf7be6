// Package jsonutil handles JSON values whose concrete type varies by
// producer. Row payloads cross the executor boundary as JSON, and the same
// logical value may arrive as a number, a string, or a boolean depending on
// the database driver's scan type.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling
// values serialized as numbers or booleans instead of strings. Returns an
// empty string for null/empty input.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return strconv.FormatInt(int64(numVal), 10)
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	return string(raw)
}

// FlexibleInt64Value extracts an integer from a json.RawMessage that may be
// encoded as a JSON number or a numeric string. The second return value
// reports whether a usable integer was found. Fractional numbers are
// truncated toward zero, matching SQL COUNT semantics where a count is
// always whole.
func FlexibleInt64Value(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return int64(numVal), true
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		if n, err := strconv.ParseInt(strVal, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(strVal, 64); err == nil {
			return int64(f), true
		}
	}

	return 0, false
}
