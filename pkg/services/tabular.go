package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/adapters/sqlite"
	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
	"github.com/dataquill-ai/dataquill-engine/pkg/dataset"
	"github.com/dataquill-ai/dataquill-engine/pkg/executor"
	"github.com/dataquill-ai/dataquill-engine/pkg/logging"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
	"github.com/dataquill-ai/dataquill-engine/pkg/planner"
	"github.com/dataquill-ai/dataquill-engine/pkg/schema"
	sqlvalidate "github.com/dataquill-ai/dataquill-engine/pkg/sql"
	"github.com/dataquill-ai/dataquill-engine/pkg/storage"
)

// TabularService answers questions over tabular files, either by planning
// queries from a natural-language objective or by running a single
// agent-written SQL query. Output is always markdown.
type TabularService struct {
	store    storage.ObjectStore
	bucket   string
	analyzer *schema.Analyzer
	matcher  *schema.Matcher
	planner  *planner.Planner
	executor *executor.Executor
	logger   *zap.Logger
}

// NewTabularService wires the tabular analysis pipeline.
func NewTabularService(
	store storage.ObjectStore,
	bucket string,
	analyzer *schema.Analyzer,
	matcher *schema.Matcher,
	p *planner.Planner,
	e *executor.Executor,
	logger *zap.Logger,
) *TabularService {
	return &TabularService{
		store:    store,
		bucket:   bucket,
		analyzer: analyzer,
		matcher:  matcher,
		planner:  p,
		executor: e,
		logger:   logger.Named("tabular_service"),
	}
}

// Query runs the objective-driven or direct-SQL path depending on which
// argument is supplied. An objective wins when both are present only if no
// SQL was given; this mirrors how agents actually call the tool.
func (s *TabularService) Query(ctx context.Context, fileID, sqlQuery, objective string) (string, error) {
	switch {
	case objective != "" && sqlQuery == "":
		return s.queryByObjective(ctx, fileID, objective)
	case sqlQuery != "":
		return s.queryDirect(ctx, fileID, sqlQuery)
	default:
		return "", apperrors.ErrNoQueryProvided
	}
}

func (s *TabularService) queryByObjective(ctx context.Context, fileID, objective string) (string, error) {
	s.logger.Info("planning analysis",
		zap.String("file_id", fileID),
		zap.String("objective", logging.TruncateText(objective)))

	_, info, session, err := s.loadDataset(ctx, fileID)
	if err != nil {
		// Setup failures are terminal: report them instead of executing.
		report := &models.ExecutionReport{
			Objective:   objective,
			Success:     false,
			Errors:      []string{fmt.Sprintf("Critical error in query plan execution: %v", err)},
			FinalAnswer: fmt.Sprintf("Error: Could not execute analysis - %v", err),
		}
		return s.renderObjectiveResults(fileID, objective, nil, report), err
	}
	defer session.Close()

	plan := s.planner.Plan(objective, info)
	s.logger.Debug("query plan created", zap.Int("steps", len(plan.Steps)))

	report := s.executor.Execute(ctx, session, plan)
	return s.renderObjectiveResults(fileID, objective, info, report), nil
}

func (s *TabularService) queryDirect(ctx context.Context, fileID, sqlQuery string) (string, error) {
	normalized, err := sqlvalidate.ValidateAndNormalize(sqlQuery)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrQueryRejected, err)
	}
	if flagged := sqlvalidate.ScreenLiterals(normalized); len(flagged) > 0 {
		s.logger.Warn("query rejected by injection screen",
			zap.String("fingerprint", flagged[0].Fingerprint))
		return "", fmt.Errorf("%w: suspicious pattern in query literal (fingerprint %s)",
			apperrors.ErrQueryRejected, flagged[0].Fingerprint)
	}

	ds, _, session, err := s.loadDataset(ctx, fileID)
	if err != nil {
		return "", err
	}
	defer session.Close()

	_, rows, err := session.Query(ctx, normalized)
	if err != nil {
		return s.renderQueryError(fileID, normalized, err, session.Columns()), nil
	}

	return renderDirectResults(fileID, normalized, ds, rows), nil
}

// loadDataset fetches, parses, analyzes, and loads the file into an
// in-memory session. Any failure here is a setup failure.
func (s *TabularService) loadDataset(ctx context.Context, fileID string) (*dataset.Dataset, *models.SchemaInfo, *sqlite.Session, error) {
	data, err := s.store.Fetch(ctx, s.bucket, fileID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch tabular file %q: %w", fileID, err)
	}

	ds, err := dataset.ParseCSV(data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse tabular file %q: %w", fileID, err)
	}

	info, err := s.analyzer.Analyze(ds)
	if err != nil {
		return nil, nil, nil, err
	}

	session, err := sqlite.NewSession(ctx, ds)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load dataset %q: %w", fileID, err)
	}

	return ds, info, session, nil
}

// renderObjectiveResults produces the full markdown answer for the
// objective path: schema overview, step statuses, then the executor's
// synthesized findings.
func (s *TabularService) renderObjectiveResults(fileID, objective string, info *models.SchemaInfo, report *models.ExecutionReport) string {
	var out []string
	out = append(out, "## Tabular Analysis Results")
	out = append(out, fmt.Sprintf("**File:** %s", fileID))
	out = append(out, fmt.Sprintf("**Objective:** %s", objective))
	if info != nil {
		out = append(out, fmt.Sprintf("**Schema:** %d columns, %d rows", len(info.Columns), info.RowCount))
		out = append(out, "")
		out = append(out, "### Schema Information:")
		out = append(out, "**Columns by Category:**")
		cats := append(append([]models.ColumnCategory(nil), models.CategoryPriority...), models.CategoryOther)
		for _, cat := range cats {
			if cols := info.KeyColumns[cat]; len(cols) > 0 {
				out = append(out, fmt.Sprintf("- **%s:** %s", titleCase(string(cat)), strings.Join(cols, ", ")))
			}
		}
	}
	out = append(out, "")

	if len(report.StepsExecuted) > 0 {
		out = append(out, "### Query Execution Steps:")
		for _, step := range report.StepsExecuted {
			icon := "✅"
			if !step.ExecutionSucceeded || !step.ValidationPassed {
				icon = "❌"
			}
			out = append(out, fmt.Sprintf("%s **Step %d:** %s", icon, step.StepNumber, step.Description))
			if !step.ExecutionSucceeded {
				out = append(out, fmt.Sprintf("   Error: %s", step.Feedback))
			}
		}
		out = append(out, "")
	}

	out = append(out, report.FinalAnswer)

	if len(report.Errors) > 0 || len(report.Warnings) > 0 {
		out = append(out, "\n### Technical Details:")
		if len(report.Errors) > 0 {
			out = append(out, "**Errors:**")
			for _, e := range report.Errors {
				out = append(out, fmt.Sprintf("- %s", e))
			}
		}
		if len(report.Warnings) > 0 {
			out = append(out, "**Warnings:**")
			for _, w := range report.Warnings {
				out = append(out, fmt.Sprintf("- %s", w))
			}
		}
	}

	return strings.Join(out, "\n")
}

// renderDirectResults wraps a raw result set with context the agent needs
// to interpret it.
func renderDirectResults(fileID, query string, ds *dataset.Dataset, rows []map[string]any) string {
	payload := "[]"
	if len(rows) > 0 {
		if data, err := json.MarshalIndent(rows, "", "  "); err == nil {
			payload = string(data)
		}
	}

	var out []string
	out = append(out, "## Query Results")
	out = append(out, fmt.Sprintf("**File:** %s (%d rows, %d columns)", fileID, ds.RowCount(), len(ds.Columns)))
	out = append(out, fmt.Sprintf("**Query:** `%s`", query))
	out = append(out, fmt.Sprintf("**Results:** %d records found", len(rows)))
	out = append(out, "")
	out = append(out, "### Data:")
	out = append(out, "```json")
	out = append(out, payload)
	out = append(out, "```")
	out = append(out, "")
	out = append(out, fmt.Sprintf("**Available Columns:** %s", strings.Join(ds.Columns, ", ")))
	return strings.Join(out, "\n")
}

// renderQueryError reports a failed direct query with a column suggestion
// when the failure looks like a column-name mistake.
func (s *TabularService) renderQueryError(fileID, query string, err error, columns []string) string {
	msg := fmt.Sprintf("SQL Error executing query `%s` on file '%s': %v", query, fileID, err)

	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "no such column") || strings.Contains(errLower, "not found") {
		for _, ident := range sqlvalidate.ExtractQuotedIdentifiers(query) {
			if containsColumn(columns, ident) {
				continue
			}
			if suggested := s.matcher.Match(ident, columns); suggested != "" {
				msg += fmt.Sprintf("\n\n💡 **Suggestion:** Column '%s' not found. Did you mean '%s'?", ident, suggested)
				break
			}
		}
	}

	msg += fmt.Sprintf("\n\n**Available Columns:** %s", strings.Join(columns, ", "))
	return msg
}

func containsColumn(columns []string, name string) bool {
	for _, col := range columns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
