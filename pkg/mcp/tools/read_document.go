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

// RegisterReadDocumentTool adds the read_document tool: fetch a long
// document and reduce it to a token budget, optionally focused on a query.
func RegisterReadDocumentTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"read_document",
		mcp.WithDescription(
			"Read a document from storage, reduced to fit a token budget. "+
				"Small documents are returned verbatim. Large documents are filtered to the sections relevant to 'query' "+
				"and, when still too large, chunked and summarized section by section. "+
				"Example: read_document(file_id='ct-rules.txt', query='clinical trial approval timeline')",
		),
		mcp.WithString(
			"file_id",
			mcp.Required(),
			mcp.Description("Path of the document in the storage bucket"),
		),
		mcp.WithString(
			"query",
			mcp.Description("Optional question to focus filtering and summarization on"),
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

		query := trimString(req.GetString("query", ""))

		deps.Logger.Info("read_document called",
			zap.String("file_id", fileID),
			zap.String("query", logging.TruncateText(query)))

		report, err := deps.Documents.Read(ctx, fileID, query)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
				return NewErrorResult("file_not_found",
					fmt.Sprintf("document '%s' not found", fileID)), nil
			case errors.Is(err, apperrors.ErrNoTextExtracted):
				return NewErrorResult("no_text_extracted",
					fmt.Sprintf("no text could be extracted from document '%s'", fileID)), nil
			default:
				return nil, fmt.Errorf("read_document failed: %w", err)
			}
		}

		deps.Logger.Debug("document reduced",
			zap.String("strategy", string(report.Strategy)),
			zap.Int("original_tokens", report.OriginalTokens),
			zap.Int("final_tokens", report.FinalTokens))

		return mcp.NewToolResultText(report.Text), nil
	})
}
