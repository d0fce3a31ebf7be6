// Package schema classifies the columns of an unknown tabular dataset and
// resolves loose agent-supplied column references to real column names.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

type taxonomyFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// Taxonomy maps semantic categories to the keywords that identify them in
// column names.
type Taxonomy struct {
	keywords map[models.ColumnCategory][]string
}

// LoadTaxonomy parses the embedded taxonomy. Every category listed in the
// classification priority order must be present.
func LoadTaxonomy() (*Taxonomy, error) {
	var file taxonomyFile
	if err := yaml.Unmarshal(taxonomyYAML, &file); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}

	keywords := make(map[models.ColumnCategory][]string, len(file.Categories))
	for name, words := range file.Categories {
		lowered := make([]string, len(words))
		for i, w := range words {
			lowered[i] = strings.ToLower(w)
		}
		keywords[models.ColumnCategory(name)] = lowered
	}

	for _, cat := range models.CategoryPriority {
		if len(keywords[cat]) == 0 {
			return nil, fmt.Errorf("taxonomy missing category %q", cat)
		}
	}

	return &Taxonomy{keywords: keywords}, nil
}

// Keywords returns the keyword list for a category. CategoryOther has none.
func (t *Taxonomy) Keywords(cat models.ColumnCategory) []string {
	return t.keywords[cat]
}

// Classify buckets a column name into the first category whose keywords
// appear in it, tested in priority order. Unmatched columns land in
// CategoryOther.
func (t *Taxonomy) Classify(column string) models.ColumnCategory {
	lower := strings.ToLower(column)
	for _, cat := range models.CategoryPriority {
		for _, kw := range t.keywords[cat] {
			if strings.Contains(lower, kw) {
				return cat
			}
		}
	}
	return models.CategoryOther
}
