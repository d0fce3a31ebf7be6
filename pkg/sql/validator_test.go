package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndNormalize(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr error
	}{
		{
			name:  "plain select",
			query: "SELECT * FROM dataset",
			want:  "SELECT * FROM dataset",
		},
		{
			name:  "strips trailing semicolon",
			query: "SELECT COUNT(*) FROM dataset;",
			want:  "SELECT COUNT(*) FROM dataset",
		},
		{
			name:  "strips semicolon with trailing whitespace",
			query: "SELECT 1 ;  \n",
			want:  "SELECT 1",
		},
		{
			name:  "with cte",
			query: `WITH t AS (SELECT "Company" FROM dataset) SELECT * FROM t`,
			want:  `WITH t AS (SELECT "Company" FROM dataset) SELECT * FROM t`,
		},
		{
			name:  "semicolon inside string literal is fine",
			query: `SELECT * FROM dataset WHERE "Company" = 'a;b'`,
			want:  `SELECT * FROM dataset WHERE "Company" = 'a;b'`,
		},
		{
			name:    "empty query",
			query:   "   ",
			wantErr: ErrEmptyQuery,
		},
		{
			name:    "stacked statements",
			query:   "SELECT 1; DROP TABLE dataset",
			wantErr: ErrMultipleStatements,
		},
		{
			name:    "rejects delete",
			query:   "DELETE FROM dataset",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "rejects insert",
			query:   "INSERT INTO dataset VALUES (1)",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "rejects pragma statement",
			query:   "PRAGMA table_info(dataset)",
			wantErr: ErrNotReadOnly,
		},
		{
			name:  "case-insensitive keyword",
			query: "select 1",
			want:  "select 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAndNormalize(tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPragmaTableValuedFunctionAllowed(t *testing.T) {
	// Structure discovery reads pragma_table_info as a table-valued
	// function inside a SELECT, which must pass validation.
	got, err := ValidateAndNormalize("SELECT name FROM pragma_table_info('dataset')")
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM pragma_table_info('dataset')", got)
}
