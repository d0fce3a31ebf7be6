// Package tools registers the engine's analysis tools on an MCP server.
package tools

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

// TabularAnalyzer answers questions over tabular files.
type TabularAnalyzer interface {
	Query(ctx context.Context, fileID, sqlQuery, objective string) (string, error)
}

// DocumentReader reduces documents to a token budget.
type DocumentReader interface {
	Read(ctx context.Context, fileID, query string) (*models.ReductionReport, error)
}

// Deps carries everything the analysis tools need.
type Deps struct {
	Tabular   TabularAnalyzer
	Documents DocumentReader
	Logger    *zap.Logger
}

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}
