package schema

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
	"github.com/dataquill-ai/dataquill-engine/pkg/dataset"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

// maxSampleValues caps how many distinct values are kept per column for
// illustration in prompts and plans.
const maxSampleValues = 5

// Analyzer builds a SchemaInfo from a parsed dataset.
type Analyzer struct {
	taxonomy *Taxonomy
	logger   *zap.Logger
}

// NewAnalyzer creates an analyzer using the given taxonomy.
func NewAnalyzer(taxonomy *Taxonomy, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		taxonomy: taxonomy,
		logger:   logger.Named("schema_analyzer"),
	}
}

// Analyze inspects the dataset and returns its schema description. A
// dataset with no data rows is unusable for planning and is reported as
// apperrors.ErrEmptyDataset.
func (a *Analyzer) Analyze(ds *dataset.Dataset) (*models.SchemaInfo, error) {
	if ds.RowCount() == 0 {
		return nil, fmt.Errorf("analyze schema: %w", apperrors.ErrEmptyDataset)
	}

	info := &models.SchemaInfo{
		Columns:      append([]string(nil), ds.Columns...),
		DataTypes:    make(map[string]models.ColumnType, len(ds.Columns)),
		SampleValues: make(map[string][]string, len(ds.Columns)),
		RowCount:     ds.RowCount(),
		KeyColumns:   make(map[models.ColumnCategory][]string),
	}

	for i, col := range ds.Columns {
		info.DataTypes[col] = ds.Types[i]
		info.SampleValues[col] = sampleColumn(ds, i)

		cat := a.taxonomy.Classify(col)
		// A column whose values parse as dates lands in the date bucket
		// unless its name already matched a higher-priority category.
		if ds.Types[i] == models.ColumnTypeDatetime && dateBucketWins(cat) {
			cat = models.CategoryDate
		}
		info.KeyColumns[cat] = append(info.KeyColumns[cat], col)
	}

	a.logger.Debug("schema analyzed",
		zap.Int("columns", len(info.Columns)),
		zap.Int("rows", info.RowCount),
		zap.Int("categorized", len(info.Columns)-len(info.KeyColumns[models.CategoryOther])))

	return info, nil
}

// dateBucketWins reports whether the date bucket outranks the name-based
// category: true when the name matched nothing, or only a category that
// sits at or below date in the priority order.
func dateBucketWins(cat models.ColumnCategory) bool {
	for _, c := range models.CategoryPriority {
		if c == models.CategoryDate {
			return true
		}
		if c == cat {
			return false
		}
	}
	return true
}

// sampleColumn collects up to maxSampleValues distinct non-empty values in
// row order.
func sampleColumn(ds *dataset.Dataset, col int) []string {
	seen := make(map[string]bool)
	var samples []string
	for _, row := range ds.Rows {
		v := row[col]
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		samples = append(samples, v)
		if len(samples) == maxSampleValues {
			break
		}
	}
	return samples
}
