// Package handlers exposes the analysis services over plain HTTP for
// clients that do not speak MCP. The MCP tool surface in pkg/mcp/tools
// remains the primary interface; these endpoints mirror its semantics.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

// TabularAnalyzer answers questions over tabular files.
type TabularAnalyzer interface {
	Query(ctx context.Context, fileID, sqlQuery, objective string) (string, error)
}

// DocumentReader reduces documents to fit a token budget.
type DocumentReader interface {
	Read(ctx context.Context, fileID, query string) (*models.ReductionReport, error)
}

// TableQueryRequest is the body of POST /api/table/query.
type TableQueryRequest struct {
	FileID    string `json:"file_id"`
	SQLQuery  string `json:"sql_query,omitempty"`
	Objective string `json:"objective,omitempty"`
}

// TableQueryResponse carries the rendered analysis for a tabular query.
type TableQueryResponse struct {
	RequestID string `json:"request_id"`
	FileID    string `json:"file_id"`
	Result    string `json:"result"`
}

// DocumentReadRequest is the body of POST /api/document/read.
type DocumentReadRequest struct {
	FileID string `json:"file_id"`
	Query  string `json:"query,omitempty"`
}

// DocumentReadResponse carries the reduced document text plus the token
// accounting that produced it.
type DocumentReadResponse struct {
	RequestID      string `json:"request_id"`
	FileID         string `json:"file_id"`
	Strategy       string `json:"strategy"`
	OriginalTokens int    `json:"original_tokens"`
	FinalTokens    int    `json:"final_tokens"`
	Text           string `json:"text"`
}

// AnalysisHandler handles the tabular query and document read endpoints.
type AnalysisHandler struct {
	tabular   TabularAnalyzer
	documents DocumentReader
	logger    *zap.Logger
}

// NewAnalysisHandler creates an AnalysisHandler backed by the given services.
func NewAnalysisHandler(tabular TabularAnalyzer, documents DocumentReader, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{tabular: tabular, documents: documents, logger: logger}
}

// RegisterRoutes registers the analysis endpoints on the given mux.
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/table/query", h.QueryTable)
	mux.HandleFunc("POST /api/document/read", h.ReadDocument)
}

// QueryTable handles POST /api/table/query requests.
func (h *AnalysisHandler) QueryTable(w http.ResponseWriter, r *http.Request) {
	var req TableQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if req.FileID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_parameters", "file_id is required")
		return
	}

	requestID := uuid.NewString()
	result, err := h.tabular.Query(r.Context(), req.FileID, req.SQLQuery, req.Objective)
	if err != nil {
		h.logger.Warn("Table query failed",
			zap.String("request_id", requestID),
			zap.String("file_id", req.FileID),
			zap.Error(err),
		)
		h.writeTabularError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, TableQueryResponse{
		RequestID: requestID,
		FileID:    req.FileID,
		Result:    result,
	}); err != nil {
		h.logger.Error("Failed to encode table query response", zap.Error(err))
	}
}

// ReadDocument handles POST /api/document/read requests.
func (h *AnalysisHandler) ReadDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if req.FileID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_parameters", "file_id is required")
		return
	}

	requestID := uuid.NewString()
	report, err := h.documents.Read(r.Context(), req.FileID, req.Query)
	if err != nil {
		h.logger.Warn("Document read failed",
			zap.String("request_id", requestID),
			zap.String("file_id", req.FileID),
			zap.Error(err),
		)
		h.writeDocumentError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, DocumentReadResponse{
		RequestID:      requestID,
		FileID:         req.FileID,
		Strategy:       string(report.Strategy),
		OriginalTokens: report.OriginalTokens,
		FinalTokens:    report.FinalTokens,
		Text:           report.Text,
	}); err != nil {
		h.logger.Error("Failed to encode document read response", zap.Error(err))
	}
}

func (h *AnalysisHandler) writeTabularError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNoQueryProvided):
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_parameters", "either sql_query or objective is required")
	case errors.Is(err, apperrors.ErrQueryRejected):
		_ = ErrorResponse(w, http.StatusBadRequest, "query_rejected", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "file_not_found", err.Error())
	case errors.Is(err, apperrors.ErrEmptyDataset):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "empty_dataset", err.Error())
	default:
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "table query failed")
	}
}

func (h *AnalysisHandler) writeDocumentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "file_not_found", err.Error())
	case errors.Is(err, apperrors.ErrNoTextExtracted):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "no_text_extracted", err.Error())
	default:
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "document read failed")
	}
}
