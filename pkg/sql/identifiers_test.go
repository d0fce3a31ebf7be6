package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractQuotedIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "projection and filter columns",
			query: `SELECT DISTINCT "Company" FROM dataset WHERE "BrandName" = 'TIAROTEC'`,
			want:  []string{"Company", "BrandName"},
		},
		{
			name:  "duplicates removed",
			query: `SELECT "Company" FROM dataset ORDER BY "Company"`,
			want:  []string{"Company"},
		},
		{
			name:  "identifier with spaces",
			query: `SELECT "Product Name" FROM dataset`,
			want:  []string{"Product Name"},
		},
		{
			name:  "no quoted identifiers",
			query: "SELECT COUNT(*) FROM dataset",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractQuotedIdentifiers(tt.query))
		})
	}
}
