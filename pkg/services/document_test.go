package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
	"github.com/dataquill-ai/dataquill-engine/pkg/llm"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
	"github.com/dataquill-ai/dataquill-engine/pkg/storage"
	"github.com/dataquill-ai/dataquill-engine/pkg/textproc"
)

const testBucket = "research-files"

func writeDocument(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, testBucket)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestDocumentService(t *testing.T, root string, budget, maxChunkTokens int, client llm.Client) *DocumentService {
	t.Helper()
	logger := zap.NewNop()
	counter := textproc.NewTokenCounter(logger)
	return NewDocumentService(
		storage.NewLocalStore(root),
		testBucket,
		counter,
		textproc.NewStructuralChunker(maxChunkTokens, counter),
		textproc.NewRelevanceFilter(budget, counter),
		NewChunkSummarizer(client, 0.1, 800, logger),
		llm.NewWorkerPool(4, logger),
		logger,
	)
}

func longRegulatoryDocument(sections, sentences int) string {
	var b strings.Builder
	for i := 1; i <= sections; i++ {
		fmt.Fprintf(&b, "\nRule %d\n", i)
		for j := 0; j < sentences; j++ {
			fmt.Fprintf(&b, "The applicant must comply with clinical trial approval requirement %d and respect the filing timeline. ", j)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestReadSmallDocumentPassthrough(t *testing.T) {
	root := t.TempDir()
	content := "A short regulatory note about approval timelines."
	writeDocument(t, root, "note.txt", content)

	svc := newTestDocumentService(t, root, 8000, 3000, llm.NewMockClient())

	report, err := svc.Read(context.Background(), "note.txt", "")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyFullText, report.Strategy)
	assert.Equal(t, content, report.Text)
	assert.Equal(t, report.OriginalTokens, report.FinalTokens)
}

func TestReadMissingDocument(t *testing.T) {
	svc := newTestDocumentService(t, t.TempDir(), 8000, 3000, llm.NewMockClient())

	_, err := svc.Read(context.Background(), "missing.txt", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReadEmptyDocument(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, root, "blank.txt", "   \n\n  ")

	svc := newTestDocumentService(t, root, 8000, 3000, llm.NewMockClient())

	_, err := svc.Read(context.Background(), "blank.txt", "")
	assert.ErrorIs(t, err, apperrors.ErrNoTextExtracted)
}

func TestReadLargeDocumentFilteredByQuery(t *testing.T) {
	root := t.TempDir()
	// One relevant section among filler so filtering lands under budget.
	doc := "Rule 1\n" + strings.Repeat("The clinical trial approval timeline for new drugs is ninety days from filing. ", 4) + "\n" +
		longRegulatoryDocumentFiller(40, 8)
	writeDocument(t, root, "rules.txt", doc)

	svc := newTestDocumentService(t, root, 150, 3000, llm.NewMockClient())

	report, err := svc.Read(context.Background(), "rules.txt", "clinical trial approval timeline")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyFiltered, report.Strategy)
	assert.Contains(t, report.Text, "[FILTERED CONTENT - ")
	assert.Contains(t, report.Text, "ninety days")
	assert.LessOrEqual(t, report.FinalTokens, 150)
	assert.Greater(t, report.OriginalTokens, 150)
}

// longRegulatoryDocumentFiller produces sections that score zero for the
// clinical-trial query.
func longRegulatoryDocumentFiller(sections, sentences int) string {
	var b strings.Builder
	for i := 1; i <= sections; i++ {
		fmt.Fprintf(&b, "\nRule %d\n", i+100)
		for j := 0; j < sentences; j++ {
			fmt.Fprintf(&b, "Office hours and visiting arrangements for the records room, note %d. ", j)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestReadLargeDocumentSummarized(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, root, "big.txt", longRegulatoryDocument(60, 12))

	client := &llm.MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (string, error) {
			return "Condensed section summary.", nil
		},
	}
	svc := newTestDocumentService(t, root, 500, 300, client)

	report, err := svc.Read(context.Background(), "big.txt", "")
	require.NoError(t, err)

	assert.Equal(t, models.StrategySummarized, report.Strategy)
	assert.GreaterOrEqual(t, report.ChunkCount, 2)
	assert.Contains(t, report.Text, "[PROCESSED LARGE DOCUMENT - ")
	assert.Contains(t, report.Text, "[SECTION 1]")
	assert.Contains(t, report.Text, "[SECTION 2]")
	assert.Contains(t, report.Text, "Condensed section summary.")
	assert.Less(t, report.FinalTokens, report.OriginalTokens)
}

func TestReadSummarizedSectionsKeepDocumentOrder(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, root, "ordered.txt", longRegulatoryDocument(20, 10))

	// Echo a marker from each chunk so order is observable.
	client := &llm.MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (string, error) {
			for i := 20; i >= 1; i-- {
				if strings.Contains(prompt, fmt.Sprintf("Rule %d\n", i)) {
					return fmt.Sprintf("summary-through-rule-%d", i), nil
				}
			}
			return "summary-unknown", nil
		},
	}
	svc := newTestDocumentService(t, root, 300, 200, client)

	report, err := svc.Read(context.Background(), "ordered.txt", "")
	require.NoError(t, err)
	require.Equal(t, models.StrategySummarized, report.Strategy)

	// [SECTION n] markers ascend and summaries follow chunk order.
	last := -1
	for i := 1; i <= report.ChunkCount; i++ {
		idx := strings.Index(report.Text, fmt.Sprintf("[SECTION %d]", i))
		require.NotEqual(t, -1, idx)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestReadSummarizationFailuresDegradeToTruncation(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, root, "big.txt", longRegulatoryDocument(30, 12))

	client := &llm.MockClient{
		GenerateResponseFunc: func(ctx context.Context, prompt, system string, temperature float64, maxTokens int) (string, error) {
			return "", &llm.Error{Type: llm.ErrorTypeAuth, Message: "invalid api key", Retryable: false}
		},
	}
	svc := newTestDocumentService(t, root, 400, 250, client)

	report, err := svc.Read(context.Background(), "big.txt", "")
	require.NoError(t, err)
	assert.Equal(t, models.StrategySummarized, report.Strategy)
	// Truncated chunk text stands in for the failed summaries.
	assert.Contains(t, report.Text, "applicant must comply")
}

func TestReadStripsLeadingByteOrderMark(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, root, "note.txt", "\uFEFFA short regulatory note.")
	svc := newTestDocumentService(t, root, 8000, 3000, nil)

	report, err := svc.Read(context.Background(), "note.txt", "")
	require.NoError(t, err)

	assert.Equal(t, models.StrategyFullText, report.Strategy)
	assert.Equal(t, "A short regulatory note.", report.Text)
}
