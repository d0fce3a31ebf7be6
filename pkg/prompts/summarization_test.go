package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSummarizationSystemPrompt(t *testing.T) {
	prompt := BuildSummarizationSystemPrompt("")
	assert.Contains(t, prompt, "regulatory and legal documents")
	assert.Contains(t, prompt, "timelines")
	assert.NotContains(t, prompt, "Pay special attention")
}

func TestBuildSummarizationSystemPromptWithFocus(t *testing.T) {
	prompt := BuildSummarizationSystemPrompt("clinical trial approval timeline")
	assert.Contains(t, prompt, "Pay special attention to information related to: clinical trial approval timeline")
}

func TestBuildSummarizationUserPrompt(t *testing.T) {
	prompt := BuildSummarizationUserPrompt("Rule 1: The applicant shall file form CT-11.")
	assert.Contains(t, prompt, "Summarize this regulatory document section:")
	assert.Contains(t, prompt, "form CT-11")
}
