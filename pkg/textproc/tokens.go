// Package textproc reduces long documents to a token budget: counting,
// structure-aware chunking, and relevance filtering.
package textproc

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// estimateTokensPerWord approximates BPE token counts from word counts when
// no encoder is available. English prose averages ~1.3 tokens per word.
const estimateTokensPerWord = 1.3

// TokenCounter counts tokens with the cl100k_base encoding, falling back to
// a word-based estimate when the encoding cannot be loaded (for example
// with no network access to fetch the BPE ranks).
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTokenCounter loads the encoder. Failure to load is not fatal: the
// counter degrades to estimation and the condition is logged once.
func NewTokenCounter(logger *zap.Logger) *TokenCounter {
	enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		logger.Named("token_counter").Warn("token encoder unavailable, using word-based estimate",
			zap.Error(err))
		return &TokenCounter{}
	}
	return &TokenCounter{encoder: enc}
}

// Count returns the token count of text.
func (c *TokenCounter) Count(text string) int {
	if c.encoder != nil {
		return len(c.encoder.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

// Truncate cuts text down to at most maxTokens tokens, preserving a whole
// prefix of the input.
func (c *TokenCounter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	if c.encoder != nil {
		tokens := c.encoder.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		return c.encoder.Decode(tokens[:maxTokens])
	}

	words := strings.Fields(text)
	budgetWords := int(float64(maxTokens) / estimateTokensPerWord)
	if len(words) <= budgetWords {
		return text
	}
	return strings.Join(words[:budgetWords], " ")
}

func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) * estimateTokensPerWord)
}
