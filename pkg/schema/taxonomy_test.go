package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

func TestLoadTaxonomy(t *testing.T) {
	tax, err := LoadTaxonomy()
	require.NoError(t, err)

	for _, cat := range models.CategoryPriority {
		assert.NotEmpty(t, tax.Keywords(cat), "category %s has no keywords", cat)
	}
}

func TestClassify(t *testing.T) {
	tax, err := LoadTaxonomy()
	require.NoError(t, err)

	tests := []struct {
		column string
		want   models.ColumnCategory
	}{
		{"Company", models.CategoryCompany},
		{"EMPRESA_TITULAR", models.CategoryCompany},
		{"manufacturer_name", models.CategoryCompany},
		{"BrandName", models.CategoryProduct},
		{"medicamento", models.CategoryProduct},
		{"GenericName", models.CategoryOther},
		{"Country of Origin", models.CategoryCountry},
		{"pais_origen", models.CategoryCountry},
		{"ApprovalDate", models.CategoryApproval},
		{"fecha_registro", models.CategoryDate},
		{"RegistrationStatus", models.CategoryStatus},
		{"estado", models.CategoryStatus},
		{"row_id", models.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.Classify(tt.column))
		})
	}
}

func TestClassifyPriorityOrderWins(t *testing.T) {
	tax, err := LoadTaxonomy()
	require.NoError(t, err)

	// Contains both a company keyword and a date keyword; company is
	// earlier in the priority order.
	assert.Equal(t, models.CategoryCompany, tax.Classify("company_registration_date"))

	// Approval beats date for the same reason.
	assert.Equal(t, models.CategoryApproval, tax.Classify("approval_date"))
}
