package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

func TestParseCSV(t *testing.T) {
	data := []byte("Company,BrandName,ApprovalDate,Doses\n" +
		"Acme Pharma,TIAROTEC,2021-05-10,3\n" +
		"Beta Labs,TIAROTEC,2022-01-15,2\n")

	ds, err := ParseCSV(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Company", "BrandName", "ApprovalDate", "Doses"}, ds.Columns)
	assert.Equal(t, 2, ds.RowCount())
	assert.Equal(t, "Acme Pharma", ds.Rows[0][0])
	assert.Equal(t, []models.ColumnType{
		models.ColumnTypeText,
		models.ColumnTypeText,
		models.ColumnTypeDatetime,
		models.ColumnTypeInteger,
	}, ds.Types)
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV([]byte(""))
	assert.ErrorIs(t, err, apperrors.ErrEmptyDataset)
}

func TestParseCSVHeaderOnly(t *testing.T) {
	ds, err := ParseCSV([]byte("a,b,c\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.RowCount())
	assert.Len(t, ds.Types, 3)
}

func TestParseCSVRaggedRows(t *testing.T) {
	ds, err := ParseCSV([]byte("a,b,c\n1,2\n1,2,3,4\n"))
	require.NoError(t, err)
	require.Equal(t, 2, ds.RowCount())
	assert.Equal(t, []string{"1", "2", ""}, ds.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, ds.Rows[1])
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{
			name:   "trims whitespace",
			header: []string{" Company ", "Brand"},
			want:   []string{"Company", "Brand"},
		},
		{
			name:   "strips byte order mark",
			header: []string{"\uFEFFCompany", "Brand"},
			want:   []string{"Company", "Brand"},
		},
		{
			name:   "fills blanks",
			header: []string{"a", "", "c"},
			want:   []string{"a", "column_2", "c"},
		},
		{
			name:   "dedupes case-insensitively",
			header: []string{"Name", "name", "NAME"},
			want:   []string{"Name", "name_2", "NAME_3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeHeader(tt.header))
		})
	}
}

func TestInferTypeMixedFallsBackToText(t *testing.T) {
	ds, err := ParseCSV([]byte("v\n1\nabc\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, models.ColumnTypeText, ds.Types[0])
}

func TestInferTypeNumericNotInteger(t *testing.T) {
	ds, err := ParseCSV([]byte("v\n1.5\n2.25\n"))
	require.NoError(t, err)
	assert.Equal(t, models.ColumnTypeNumeric, ds.Types[0])
}

func TestInferTypeIgnoresEmptyValues(t *testing.T) {
	ds, err := ParseCSV([]byte("v\n\n42\n\n"))
	require.NoError(t, err)
	assert.Equal(t, models.ColumnTypeInteger, ds.Types[0])
}
