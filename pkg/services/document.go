package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
	"github.com/dataquill-ai/dataquill-engine/pkg/llm"
	"github.com/dataquill-ai/dataquill-engine/pkg/logging"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
	"github.com/dataquill-ai/dataquill-engine/pkg/storage"
	"github.com/dataquill-ai/dataquill-engine/pkg/textproc"
)

// sectionSeparator joins summarized sections in the final output.
var sectionSeparator = "\n\n" + strings.Repeat("=", 50) + "\n\n"

// DocumentService reduces long documents to a token budget through a
// graduated pipeline: pass small documents through untouched, filter to
// relevant sections when a query is given, and as a last resort chunk and
// summarize.
type DocumentService struct {
	store      storage.ObjectStore
	bucket     string
	counter    *textproc.TokenCounter
	chunker    *textproc.StructuralChunker
	filter     *textproc.RelevanceFilter
	summarizer *ChunkSummarizer
	pool       *llm.WorkerPool
	logger     *zap.Logger
}

// NewDocumentService wires the document pipeline.
func NewDocumentService(
	store storage.ObjectStore,
	bucket string,
	counter *textproc.TokenCounter,
	chunker *textproc.StructuralChunker,
	filter *textproc.RelevanceFilter,
	summarizer *ChunkSummarizer,
	pool *llm.WorkerPool,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		store:      store,
		bucket:     bucket,
		counter:    counter,
		chunker:    chunker,
		filter:     filter,
		summarizer: summarizer,
		pool:       pool,
		logger:     logger.Named("document_service"),
	}
}

// Read fetches the document and reduces it to the token budget. The query,
// when present, focuses both the filtering and the summaries.
func (s *DocumentService) Read(ctx context.Context, fileID, query string) (*models.ReductionReport, error) {
	data, err := s.store.Fetch(ctx, s.bucket, fileID)
	if err != nil {
		return nil, fmt.Errorf("fetch document %q: %w", fileID, err)
	}

	text := extractText(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document %q: %w", fileID, apperrors.ErrNoTextExtracted)
	}

	totalTokens := s.counter.Count(text)
	budget := s.filter.Budget()

	s.logger.Info("document loaded",
		zap.String("file_id", fileID),
		zap.Int("tokens", totalTokens),
		zap.Bool("has_query", query != ""))

	if totalTokens <= budget {
		return &models.ReductionReport{
			Strategy:       models.StrategyFullText,
			OriginalTokens: totalTokens,
			FinalTokens:    totalTokens,
			Text:           text,
		}, nil
	}

	working := text
	if query != "" {
		filtered := s.filter.Filter(text, query)
		filteredTokens := s.counter.Count(filtered)

		s.logger.Debug("relevance filter applied",
			zap.String("query", logging.TruncateText(query)),
			zap.Int("filtered_tokens", filteredTokens))

		if filteredTokens <= budget {
			return &models.ReductionReport{
				Strategy:       models.StrategyFiltered,
				OriginalTokens: totalTokens,
				FinalTokens:    filteredTokens,
				Text: fmt.Sprintf("[FILTERED CONTENT - %d tokens from %d total]\n\n%s",
					filteredTokens, totalTokens, filtered),
			}, nil
		}
		working = filtered
	}

	chunks := s.chunker.Chunk(working)
	summaries := s.summarizeChunks(ctx, chunks, query)

	sections := make([]string, len(summaries))
	for i, summary := range summaries {
		sections[i] = fmt.Sprintf("[SECTION %d]\n%s", i+1, summary)
	}
	body := strings.Join(sections, sectionSeparator)
	finalTokens := s.counter.Count(body)

	s.logger.Info("document summarized",
		zap.String("file_id", fileID),
		zap.Int("chunks", len(chunks)),
		zap.Int("final_tokens", finalTokens))

	return &models.ReductionReport{
		Strategy:       models.StrategySummarized,
		OriginalTokens: totalTokens,
		FinalTokens:    finalTokens,
		ChunkCount:     len(chunks),
		Text: fmt.Sprintf("[PROCESSED LARGE DOCUMENT - Original: %d tokens, Processed: %d tokens from %d sections]\n\n%s",
			totalTokens, finalTokens, len(chunks), body),
	}, nil
}

// summarizeChunks fans chunk summarization out through the worker pool and
// reassembles the summaries in chunk order. Summarize never errors, so
// every slot is filled.
func (s *DocumentService) summarizeChunks(ctx context.Context, chunks []models.TextChunk, query string) []string {
	items := make([]llm.WorkItem[string], len(chunks))
	for i, chunk := range chunks {
		text := chunk.Text
		items[i] = llm.WorkItem[string]{
			Index: chunk.Index,
			Execute: func(ctx context.Context) (string, error) {
				return s.summarizer.Summarize(ctx, text, query), nil
			},
		}
	}

	results := llm.Process(ctx, s.pool, items)
	summaries := make([]string, len(results))
	for i, r := range results {
		summaries[i] = r.Result
	}
	return summaries
}

// extractText decodes the fetched bytes as UTF-8 text, dropping an
// invalid-byte prefix marker if present.
func extractText(data []byte) string {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return strings.TrimPrefix(text, "\uFEFF")
}
