package textproc

import (
	"regexp"
	"strings"

	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

// DefaultMaxChunkTokens bounds a chunk when no configuration is supplied.
const DefaultMaxChunkTokens = 3000

// sectionHeaderPattern matches structural boundaries in regulatory
// documents: forms, chapters, rules, schedules, and shouty all-caps
// headers on their own line.
var sectionHeaderPattern = regexp.MustCompile(
	`\n\s*FORM\s+\w+|\n\s*Chapter\s+\w+|\n\s*Rule\s+\d+|\n\s*SCHEDULE\s+\w+|\n[A-Z][A-Z\s]{9,}\n`)

var sentenceBoundaryPattern = regexp.MustCompile(`[.!?]\s+`)

// StructuralChunker splits a document into token-bounded chunks along its
// structure. Sections are kept whole when they fit; oversized sections are
// split by paragraph, then by sentence. The output is a pure function of
// the text and the limit.
type StructuralChunker struct {
	maxChunkTokens int
	counter        *TokenCounter
}

// NewStructuralChunker creates a chunker. A non-positive limit falls back
// to the default.
func NewStructuralChunker(maxChunkTokens int, counter *TokenCounter) *StructuralChunker {
	if maxChunkTokens <= 0 {
		maxChunkTokens = DefaultMaxChunkTokens
	}
	return &StructuralChunker{maxChunkTokens: maxChunkTokens, counter: counter}
}

// Chunk splits text into ordered chunks, each at most the configured token
// limit (single sentences longer than the limit excepted).
func (c *StructuralChunker) Chunk(text string) []models.TextChunk {
	acc := &chunkAccumulator{counter: c.counter, limit: c.maxChunkTokens}

	for _, section := range SplitSections(text) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if acc.fits(section, "\n\n") {
			acc.add(section, "\n\n")
			continue
		}
		acc.seal()

		if c.counter.Count(section) <= c.maxChunkTokens {
			acc.add(section, "\n\n")
			continue
		}
		c.chunkParagraphs(section, acc)
	}
	acc.seal()

	chunks := make([]models.TextChunk, len(acc.sealed))
	for i, text := range acc.sealed {
		chunks[i] = models.TextChunk{
			Index:      i,
			Text:       text,
			TokenCount: c.counter.Count(text),
		}
	}
	return chunks
}

func (c *StructuralChunker) chunkParagraphs(section string, acc *chunkAccumulator) {
	for _, para := range strings.Split(section, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if acc.fits(para, "\n\n") {
			acc.add(para, "\n\n")
			continue
		}
		acc.seal()

		if c.counter.Count(para) <= c.maxChunkTokens {
			acc.add(para, "\n\n")
			continue
		}
		c.chunkSentences(para, acc)
	}
}

func (c *StructuralChunker) chunkSentences(para string, acc *chunkAccumulator) {
	for _, sentence := range splitSentences(para) {
		if acc.fits(sentence, " ") {
			acc.add(sentence, " ")
			continue
		}
		acc.seal()
		acc.add(sentence, " ")
	}
}

// SplitSections splits text at structural headers, keeping each header with
// the section it introduces.
func SplitSections(text string) []string {
	locs := sectionHeaderPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var sections []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			sections = append(sections, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	sections = append(sections, text[prev:])
	return sections
}

// splitSentences splits after terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	locs := sentenceBoundaryPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var sentences []string
	prev := 0
	for _, loc := range locs {
		// Keep the punctuation, drop the separating whitespace.
		sentences = append(sentences, strings.TrimSpace(text[prev:loc[0]+1]))
		prev = loc[1]
	}
	if prev < len(text) {
		sentences = append(sentences, strings.TrimSpace(text[prev:]))
	}
	return sentences
}

// chunkAccumulator grows the current chunk until the next piece would
// exceed the token limit, then seals it. Fit is decided by counting the
// joined candidate text, not by summing per-piece counts: separators cost
// tokens too, and the estimator rounds per piece.
type chunkAccumulator struct {
	counter *TokenCounter
	limit   int

	current strings.Builder
	sealed  []string
}

func (a *chunkAccumulator) fits(piece, sep string) bool {
	if a.current.Len() == 0 {
		return a.counter.Count(piece) <= a.limit
	}
	return a.counter.Count(a.current.String()+sep+piece) <= a.limit
}

func (a *chunkAccumulator) add(piece, sep string) {
	if a.current.Len() > 0 {
		a.current.WriteString(sep)
	}
	a.current.WriteString(piece)
}

func (a *chunkAccumulator) seal() {
	text := strings.TrimSpace(a.current.String())
	if text != "" {
		a.sealed = append(a.sealed, text)
	}
	a.current.Reset()
}
