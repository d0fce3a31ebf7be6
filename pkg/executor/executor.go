// Package executor runs query plans against a loaded dataset session,
// validates each step's result, and synthesizes a markdown report. Step
// failures never abort the run: every step executes, and problems are
// collected into the report instead.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/adapters/sqlite"
	"github.com/dataquill-ai/dataquill-engine/pkg/jsonutil"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
	"github.com/dataquill-ai/dataquill-engine/pkg/schema"
)

// maxListedItems caps how many rows a list finding renders before
// collapsing the tail into a "+N more" line.
const maxListedItems = 10

// Executor executes query plans. The matcher powers column-name recovery
// suggestions when a step references a column that does not exist.
type Executor struct {
	matcher *schema.Matcher
	logger  *zap.Logger
}

// New creates an executor.
func New(matcher *schema.Matcher, logger *zap.Logger) *Executor {
	return &Executor{
		matcher: matcher,
		logger:  logger.Named("plan_executor"),
	}
}

// Execute runs every step of the plan in order and returns the report.
// The session is assumed to be loaded; setup failures are the caller's to
// report. Success in the returned report stays true regardless of step
// failures.
func (e *Executor) Execute(ctx context.Context, session *sqlite.Session, plan *models.QueryPlan) *models.ExecutionReport {
	report := &models.ExecutionReport{
		Objective: plan.Objective,
		Success:   true,
	}

	// Column order per step, for deterministic rendering during synthesis.
	stepColumns := make([][]string, len(plan.Steps))

	for i, step := range plan.Steps {
		result := models.StepResult{
			StepNumber:         i + 1,
			Description:        step.Description,
			Query:              step.Query,
			ExecutionSucceeded: true,
			ValidationPassed:   true,
		}

		cols, rows, err := session.Query(ctx, step.Query)
		if err != nil {
			result.ExecutionSucceeded = false
			result.ResultPayload = fmt.Sprintf("Error: %v", err)
			result.ValidationPassed = false
			result.Feedback = fmt.Sprintf("SQL execution failed: %v", err)
			report.Errors = append(report.Errors, fmt.Sprintf("Step %d failed: %v", i+1, err))

			if suggestion := e.suggestColumn(err, step.Query, session.Columns()); suggestion != "" {
				report.Warnings = append(report.Warnings, suggestion)
			}

			e.logger.Warn("plan step failed",
				zap.Int("step", i+1),
				zap.Error(err))
			report.StepsExecuted = append(report.StepsExecuted, result)
			continue
		}

		result.ResultPayload = marshalRows(rows)
		stepColumns[i] = cols

		ok, feedback := validateStepResult(step.Description, result.ResultPayload, step.ValidationHint)
		result.ValidationPassed = ok
		result.Feedback = feedback
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Step %d validation failed: %s", i+1, feedback))
		}

		report.StepsExecuted = append(report.StepsExecuted, result)
	}

	report.FinalAnswer = synthesizeAnswer(report, stepColumns)
	return report
}

var (
	quotedColumnInError = regexp.MustCompile(`"([^"]+)"`)
	noSuchColumnPattern = regexp.MustCompile(`no such column:?\s+(.+)$`)
	// Driver errors carry a trailing result code like " (1)".
	resultCodeSuffix = regexp.MustCompile(`\s*\(\d+\)$`)
)

// suggestColumn turns a missing-column error into a "did you mean"
// warning. SQLite reports `no such column: X`; the matcher resolves X
// against the real columns.
func (e *Executor) suggestColumn(err error, query string, columns []string) string {
	msg := err.Error()
	if !strings.Contains(strings.ToLower(msg), "no such column") &&
		!strings.Contains(strings.ToLower(msg), "not found") {
		return ""
	}

	var failed string
	if m := quotedColumnInError.FindStringSubmatch(msg); m != nil {
		failed = m[1]
	} else if m := noSuchColumnPattern.FindStringSubmatch(msg); m != nil {
		failed = strings.TrimSpace(resultCodeSuffix.ReplaceAllString(m[1], ""))
	}
	if failed == "" {
		return ""
	}

	if suggested := e.matcher.Match(failed, columns); suggested != "" && suggested != failed {
		return fmt.Sprintf("Column '%s' not found. Did you mean '%s'?", failed, suggested)
	}
	return ""
}

func marshalRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return string(data)
}

// validateStepResult checks a step's JSON payload against its hint. Hints
// are free text; only the substrings "count" and "list" carry meaning.
func validateStepResult(description, payload, hint string) (bool, string) {
	if !strings.HasPrefix(payload, "[") && !strings.HasPrefix(payload, "{") {
		if strings.Contains(strings.ToLower(payload), "error") {
			return false, fmt.Sprintf("Query failed: %s", payload)
		}
		if strings.TrimSpace(payload) != "" {
			return true, "Query returned data"
		}
		return false, "Query returned empty result"
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		return false, fmt.Sprintf("Error validating result: %v", err)
	}

	if len(rows) == 0 {
		return false, fmt.Sprintf("Query returned empty result for: %s", description)
	}

	hintLower := strings.ToLower(hint)
	if strings.Contains(hintLower, "count") {
		if len(rows) == 1 && hasCountKey(rows[0]) {
			return true, "Count query successful"
		}
		return false, fmt.Sprintf("Expected count result, got %d rows", len(rows))
	}
	if strings.Contains(hintLower, "list") {
		return true, fmt.Sprintf("List query returned %d items", len(rows))
	}

	return true, "Query executed successfully"
}

func hasCountKey(row map[string]json.RawMessage) bool {
	for key := range row {
		if strings.Contains(strings.ToLower(key), "count") {
			return true
		}
	}
	return false
}

// synthesizeAnswer renders the report as markdown: findings from the
// successful validated steps, a Final Answer line for counting objectives,
// then any issues and warnings.
func synthesizeAnswer(report *models.ExecutionReport, stepColumns [][]string) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("## Analysis Results for: %s\n", report.Objective))

	var successful []int
	for i, step := range report.StepsExecuted {
		if step.ExecutionSucceeded && step.ValidationPassed {
			successful = append(successful, i)
		}
	}

	if len(successful) > 0 {
		parts = append(parts, "### Key Findings:\n")
		for _, i := range successful {
			step := report.StepsExecuted[i]
			parts = append(parts, fmt.Sprintf("**%s:**", step.Description))
			parts = append(parts, renderFinding(step.ResultPayload, stepColumns[i])...)
			parts = append(parts, "")
		}
	}

	if strings.Contains(strings.ToLower(report.Objective), "how many") {
		if count, ok := findCountValue(report, successful); ok {
			parts = append(parts, fmt.Sprintf("### Final Answer: **%d** companies", count))
		}
	}

	if len(report.Errors) > 0 {
		parts = append(parts, "### Issues Encountered:")
		for _, e := range report.Errors {
			parts = append(parts, fmt.Sprintf("- ❌ %s", e))
		}
		parts = append(parts, "")
	}

	if len(report.Warnings) > 0 {
		parts = append(parts, "### Warnings:")
		for _, w := range report.Warnings {
			parts = append(parts, fmt.Sprintf("- ⚠️ %s", w))
		}
	}

	return strings.Join(parts, "\n")
}

// renderFinding renders one step's payload: a lone count row becomes a bold
// scalar, anything else becomes a bulleted list keyed by the first
// projected column.
func renderFinding(payload string, cols []string) []string {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &rows); err != nil || len(rows) == 0 {
		return []string{fmt.Sprintf("- %s", payload)}
	}

	if len(rows) == 1 && hasCountKey(rows[0]) {
		for key, raw := range rows[0] {
			if strings.Contains(strings.ToLower(key), "count") {
				return []string{fmt.Sprintf("- Count: **%s**", jsonutil.FlexibleStringValue(raw))}
			}
		}
	}

	lines := []string{fmt.Sprintf("- Found %d records:", len(rows))}
	for i, row := range rows {
		if i == maxListedItems {
			lines = append(lines, fmt.Sprintf("  - ... and %d more", len(rows)-maxListedItems))
			break
		}
		lines = append(lines, fmt.Sprintf("  - %s", displayValue(row, cols)))
	}
	return lines
}

// displayValue picks the first projected column's value for display.
func displayValue(row map[string]json.RawMessage, cols []string) string {
	if len(cols) > 0 {
		if raw, ok := row[cols[0]]; ok {
			return jsonutil.FlexibleStringValue(raw)
		}
	}
	for _, raw := range row {
		return jsonutil.FlexibleStringValue(raw)
	}
	return ""
}

// findCountValue pulls the count out of the first successful step whose
// description mentions counting.
func findCountValue(report *models.ExecutionReport, successful []int) (int64, bool) {
	for _, i := range successful {
		step := report.StepsExecuted[i]
		if !strings.Contains(strings.ToLower(step.Description), "count") {
			continue
		}
		var rows []map[string]json.RawMessage
		if err := json.Unmarshal([]byte(step.ResultPayload), &rows); err != nil || len(rows) == 0 {
			continue
		}
		for key, raw := range rows[0] {
			if !strings.Contains(strings.ToLower(key), "count") {
				continue
			}
			if n, ok := jsonutil.FlexibleInt64Value(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}
