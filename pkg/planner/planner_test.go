package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

func drugRegistrySchema() *models.SchemaInfo {
	return &models.SchemaInfo{
		Columns: []string{"Company", "BrandName", "GenericName", "ApprovalDate"},
		DataTypes: map[string]models.ColumnType{
			"Company":      models.ColumnTypeText,
			"BrandName":    models.ColumnTypeText,
			"GenericName":  models.ColumnTypeText,
			"ApprovalDate": models.ColumnTypeDatetime,
		},
		RowCount: 100,
		KeyColumns: map[models.ColumnCategory][]string{
			models.CategoryCompany:  {"Company"},
			models.CategoryProduct:  {"BrandName"},
			models.CategoryApproval: {"ApprovalDate"},
			models.CategoryOther:    {"GenericName"},
		},
	}
}

func TestPlanCompanyCountObjective(t *testing.T) {
	p := New(nil, zap.NewNop())

	plan := p.Plan("How many companies have registered TIAROTEC?", drugRegistrySchema())

	assert.Equal(t, models.ResultTypeCount, plan.ExpectedResultType)
	require.NotEmpty(t, plan.Steps)

	// Structure discovery comes first.
	assert.Contains(t, plan.Steps[0].Query, "pragma_table_info")

	queries := make([]string, len(plan.Steps))
	for i, s := range plan.Steps {
		queries[i] = s.Query
	}
	joined := strings.Join(queries, "\n")

	assert.Contains(t, joined, `SELECT DISTINCT "Company" FROM dataset LIMIT 10`)
	assert.Contains(t, joined, `UPPER("BrandName") LIKE '%TIAROTEC%'`)
	assert.Contains(t, joined, `UPPER("GenericName") LIKE '%TIAROTEC%'`)
	assert.Contains(t, joined, `COUNT(DISTINCT "Company") AS company_count`)
	assert.Contains(t, joined, `SELECT DISTINCT "Company" AS company_name`)

	// The combined filter checks both name columns.
	var countQuery string
	for _, q := range queries {
		if strings.Contains(q, "company_count") {
			countQuery = q
		}
	}
	require.NotEmpty(t, countQuery)
	assert.Contains(t, countQuery, `UPPER("BrandName") LIKE '%TIAROTEC%' OR UPPER("GenericName") LIKE '%TIAROTEC%'`)
}

func TestPlanSingularPluralEquivalence(t *testing.T) {
	p := New(nil, zap.NewNop())
	schema := drugRegistrySchema()

	plural := p.Plan("How many companies sell TIAROTEC?", schema)
	singular := p.Plan("How many company entries mention TIAROTEC?", schema)

	// Both trigger the company rules despite the different word forms.
	for _, plan := range []*models.QueryPlan{plural, singular} {
		joined := ""
		for _, s := range plan.Steps {
			joined += s.Query + "\n"
		}
		assert.Contains(t, joined, `SELECT DISTINCT "Company" FROM dataset LIMIT 10`)
		assert.Contains(t, joined, "company_count")
	}
}

func TestPlanListObjective(t *testing.T) {
	p := New(nil, zap.NewNop())

	plan := p.Plan("What are the products in this registry?", drugRegistrySchema())
	assert.Equal(t, models.ResultTypeList, plan.ExpectedResultType)
	require.NotEmpty(t, plan.Steps)
	assert.Contains(t, plan.Steps[0].Query, "pragma_table_info")
}

func TestPlanGeneralObjectiveNoRules(t *testing.T) {
	p := New(nil, zap.NewNop())

	plan := p.Plan("describe the weather", drugRegistrySchema())
	assert.Equal(t, models.ResultTypeGeneral, plan.ExpectedResultType)
	assert.Empty(t, plan.Steps)
}

func TestPlanEntitySearchFallsBackToProductColumn(t *testing.T) {
	p := New(nil, zap.NewNop())
	schema := &models.SchemaInfo{
		Columns: []string{"Applicant", "Medicamento"},
		KeyColumns: map[models.ColumnCategory][]string{
			models.CategoryCompany: {"Applicant"},
			models.CategoryProduct: {"Medicamento"},
		},
	}

	plan := p.Plan("How many companies registered TIAROTEC?", schema)

	joined := ""
	for _, s := range plan.Steps {
		joined += s.Query + "\n"
	}
	// No brand/generic name columns: search uses the product column.
	assert.Contains(t, joined, `UPPER("Medicamento") LIKE '%TIAROTEC%'`)
	// The count rule needs a name column for its filter and emits nothing.
	assert.NotContains(t, joined, "company_count")
}

func TestUppercaseTokenExtractor(t *testing.T) {
	tests := []struct {
		name      string
		objective string
		want      []string
	}{
		{
			name:      "single product",
			objective: "How many companies have registered TIAROTEC?",
			want:      []string{"TIAROTEC"},
		},
		{
			name:      "alphanumeric token",
			objective: "Find entries for VX950 in the registry",
			want:      []string{"VX950"},
		},
		{
			name:      "multiple tokens in order",
			objective: "Compare TIAROTEC and OTHERDRUG",
			want:      []string{"TIAROTEC", "OTHERDRUG"},
		},
		{
			name:      "single capitals ignored",
			objective: "A question about the registry",
			want:      nil,
		},
		{
			name:      "capitalized words ignored",
			objective: "Does Spain approve drugs quickly?",
			want:      nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UppercaseTokenExtractor{}.Extract(tt.objective))
		})
	}
}
