// Package services implements the engine's two analysis surfaces: tabular
// query planning/execution and token-budgeted document reduction.
package services

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/llm"
	"github.com/dataquill-ai/dataquill-engine/pkg/logging"
	"github.com/dataquill-ai/dataquill-engine/pkg/prompts"
	"github.com/dataquill-ai/dataquill-engine/pkg/retry"
)

// truncationFallbackChars bounds the truncation fallback when the model is
// unavailable or keeps failing.
const truncationFallbackChars = 2000

// summaryTemperature keeps summaries factual and repeatable.
const defaultSummaryTemperature = 0.1

// defaultMaxSummaryTokens caps a single chunk summary.
const defaultMaxSummaryTokens = 800

// ChunkSummarizer condenses one document chunk via the configured model.
// Summarization never fails: a missing client or an exhausted retry budget
// degrades to plain truncation so the document pipeline always completes.
type ChunkSummarizer struct {
	client      llm.Client
	retryCfg    *retry.Config
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewChunkSummarizer creates a summarizer. client may be nil, in which case
// every chunk falls back to truncation. Non-positive temperature or token
// caps take the defaults.
func NewChunkSummarizer(client llm.Client, temperature float64, maxTokens int, logger *zap.Logger) *ChunkSummarizer {
	if temperature <= 0 {
		temperature = defaultSummaryTemperature
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxSummaryTokens
	}
	return &ChunkSummarizer{
		client:      client,
		retryCfg:    retry.DefaultConfig(),
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger.Named("chunk_summarizer"),
	}
}

// Summarize returns a summary of text, steered by focusQuery when present.
func (s *ChunkSummarizer) Summarize(ctx context.Context, text, focusQuery string) string {
	if s.client == nil {
		return truncate(text)
	}

	system := prompts.BuildSummarizationSystemPrompt(focusQuery)
	user := prompts.BuildSummarizationUserPrompt(text)

	summary, err := retry.DoWithResult(ctx, s.retryCfg, func() (string, error) {
		return s.client.GenerateResponse(ctx, user, system, s.temperature, s.maxTokens)
	})
	if err != nil {
		s.logger.Warn("chunk summarization failed, falling back to truncation",
			zap.String("error", logging.SanitizeError(err)))
		return truncate(text)
	}
	return summary
}

func truncate(text string) string {
	if len(text) <= truncationFallbackChars {
		return text
	}
	// Back up to a rune boundary so the cut never emits invalid UTF-8.
	cut := truncationFallbackChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
