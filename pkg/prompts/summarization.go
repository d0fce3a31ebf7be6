// Package prompts builds the LLM prompts used by the engine.
package prompts

import (
	"fmt"
	"strings"
)

// summarizationSystemPrompt steers the model toward dense, faithful
// summaries of regulatory text.
const summarizationSystemPrompt = `You are an expert at summarizing regulatory and legal documents.
Create a concise but comprehensive summary that preserves key information, requirements,
timelines, processes, and specific details. Maintain the structure and important terminology.`

// BuildSummarizationSystemPrompt returns the system message for chunk
// summarization. A non-empty focus query appends an attention clause so the
// summary keeps material relevant to the caller's question.
func BuildSummarizationSystemPrompt(focusQuery string) string {
	var prompt strings.Builder
	prompt.WriteString(summarizationSystemPrompt)
	if focusQuery != "" {
		prompt.WriteString(fmt.Sprintf("\n\nPay special attention to information related to: %s", focusQuery))
	}
	return prompt.String()
}

// BuildSummarizationUserPrompt wraps the chunk text in the summarization
// instruction.
func BuildSummarizationUserPrompt(chunkText string) string {
	return fmt.Sprintf("Summarize this regulatory document section:\n\n%s", chunkText)
}
