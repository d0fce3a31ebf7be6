package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
	"github.com/dataquill-ai/dataquill-engine/pkg/logging"
)

// RegisterQueryTableTool adds the query_table tool: schema-aware analysis
// of a tabular file driven by either a natural-language objective or a
// single SQL query.
func RegisterQueryTableTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"query_table",
		mcp.WithDescription(
			"Analyze a tabular data file of unknown schema. "+
				"Provide 'objective' for natural-language analysis (the engine discovers the schema, plans queries, and synthesizes an answer) "+
				"or 'sql_query' to run a single read-only SELECT against the table named 'dataset'. "+
				"Example: query_table(file_id='registry.csv', objective='How many companies have registered TIAROTEC?')",
		),
		mcp.WithString(
			"file_id",
			mcp.Required(),
			mcp.Description("Path of the tabular file in the storage bucket"),
		),
		mcp.WithString(
			"sql_query",
			mcp.Description("A single read-only SELECT statement against the 'dataset' table"),
		),
		mcp.WithString(
			"objective",
			mcp.Description("Natural-language research question to answer from the file"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileID, err := req.RequireString("file_id")
		if err != nil {
			return nil, err
		}
		fileID = trimString(fileID)
		if fileID == "" {
			return NewErrorResult("invalid_parameters", "parameter 'file_id' cannot be empty"), nil
		}

		sqlQuery := trimString(req.GetString("sql_query", ""))
		objective := trimString(req.GetString("objective", ""))

		deps.Logger.Info("query_table called",
			zap.String("file_id", fileID),
			zap.Bool("has_sql", sqlQuery != ""),
			zap.String("objective", logging.TruncateText(objective)))

		result, err := deps.Tabular.Query(ctx, fileID, sqlQuery, objective)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrNoQueryProvided):
				return NewErrorResult("invalid_parameters",
					"either 'sql_query' or 'objective' must be provided"), nil
			case errors.Is(err, apperrors.ErrQueryRejected):
				return NewErrorResult("query_rejected", err.Error()), nil
			case errors.Is(err, apperrors.ErrNotFound):
				return NewErrorResult("file_not_found",
					fmt.Sprintf("tabular file '%s' not found", fileID)), nil
			case errors.Is(err, apperrors.ErrEmptyDataset):
				return NewErrorResult("empty_dataset",
					fmt.Sprintf("tabular file '%s' contains no data rows", fileID)), nil
			default:
				return nil, fmt.Errorf("query_table failed: %w", err)
			}
		}

		return mcp.NewToolResultText(result), nil
	})
}
