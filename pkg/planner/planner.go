// Package planner turns a research objective plus a dataset schema into an
// ordered plan of standalone SQL queries. Planning is rule-driven: each rule
// inspects the objective's vocabulary and the schema's semantic categories
// and contributes zero or more steps.
package planner

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/adapters/sqlite"
	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

// Planner builds query plans against the fixed dataset table.
type Planner struct {
	extractor EntityExtractor
	logger    *zap.Logger
}

// New creates a planner. A nil extractor falls back to uppercase-token
// extraction.
func New(extractor EntityExtractor, logger *zap.Logger) *Planner {
	if extractor == nil {
		extractor = UppercaseTokenExtractor{}
	}
	return &Planner{
		extractor: extractor,
		logger:    logger.Named("query_planner"),
	}
}

// planContext carries everything a rule needs to decide and build.
type planContext struct {
	objective      string
	objectiveLower string
	// vocabulary holds the objective's words lowercased and singularized,
	// so "companies" and "company" ask the same question.
	vocabulary map[string]bool
	entity     string
	schema     *models.SchemaInfo
}

// planRule contributes steps when its trigger matches the objective.
type planRule struct {
	name    string
	applies func(*planContext) bool
	build   func(*planContext) []models.PlanStep
}

// Plan synthesizes a query plan for the objective. An objective that
// triggers no rule yields an empty plan; the executor reports that rather
// than inventing queries.
func (p *Planner) Plan(objective string, schema *models.SchemaInfo) *models.QueryPlan {
	ctx := &planContext{
		objective:      objective,
		objectiveLower: strings.ToLower(objective),
		vocabulary:     buildVocabulary(objective),
		schema:         schema,
	}
	if entities := p.extractor.Extract(objective); len(entities) > 0 {
		ctx.entity = entities[0]
	}

	var steps []models.PlanStep
	for _, rule := range planRules {
		if !rule.applies(ctx) {
			continue
		}
		added := rule.build(ctx)
		steps = append(steps, added...)
		p.logger.Debug("plan rule applied",
			zap.String("rule", rule.name),
			zap.Int("steps_added", len(added)))
	}

	return &models.QueryPlan{
		Objective:          objective,
		Steps:              steps,
		ExpectedResultType: determineResultType(ctx),
	}
}

var planRules = []planRule{
	{
		name: "structure_discovery",
		applies: func(c *planContext) bool {
			return strings.Contains(c.objectiveLower, "how many") ||
				c.vocabulary["count"] ||
				c.vocabulary["company"] ||
				c.vocabulary["product"]
		},
		build: func(c *planContext) []models.PlanStep {
			return []models.PlanStep{{
				Description:    "Explore dataset structure and columns",
				Query:          fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", sqlite.TableName),
				ValidationHint: "Should return list of column names",
			}}
		},
	},
	{
		name: "company_exploration",
		applies: func(c *planContext) bool {
			return c.vocabulary["company"] && len(c.companyColumns()) > 0
		},
		build: func(c *planContext) []models.PlanStep {
			col := c.companyColumns()[0]
			return []models.PlanStep{{
				Description:    fmt.Sprintf("Explore company data in column '%s'", col),
				Query:          fmt.Sprintf(`SELECT DISTINCT %s FROM %s LIMIT 10`, quoteIdent(col), sqlite.TableName),
				ValidationHint: "Should return list of company names",
			}}
		},
	},
	{
		name: "entity_search",
		applies: func(c *planContext) bool {
			return c.entity != "" && len(c.schema.KeyColumns[models.CategoryProduct]) > 0
		},
		build: buildEntitySearchSteps,
	},
	{
		name: "company_count",
		applies: func(c *planContext) bool {
			return c.entity != "" &&
				strings.Contains(c.objectiveLower, "how many") &&
				c.vocabulary["company"] &&
				len(c.companyColumns()) > 0
		},
		build: buildCompanyCountSteps,
	},
}

// buildEntitySearchSteps probes for the entity in the brand-name and
// generic-name columns. A product registered under a generic name will not
// show up in a brand-only search, so both get their own step when present.
func buildEntitySearchSteps(c *planContext) []models.PlanStep {
	brandCol, genericCol := c.nameColumns()

	var steps []models.PlanStep
	if brandCol != "" {
		steps = append(steps, models.PlanStep{
			Description:    fmt.Sprintf("Search for product '%s' in Brand Name column '%s'", c.entity, brandCol),
			Query:          entityLikeQuery(brandCol, c.entity),
			ValidationHint: fmt.Sprintf("Should return rows with brand name '%s'", c.entity),
		})
	}
	if genericCol != "" {
		steps = append(steps, models.PlanStep{
			Description:    fmt.Sprintf("Search for product '%s' in Generic Name column '%s'", c.entity, genericCol),
			Query:          entityLikeQuery(genericCol, c.entity),
			ValidationHint: fmt.Sprintf("Should return rows with generic name '%s'", c.entity),
		})
	}
	if len(steps) == 0 {
		col := c.schema.KeyColumns[models.CategoryProduct][0]
		steps = append(steps, models.PlanStep{
			Description:    fmt.Sprintf("Search for product '%s' in column '%s'", c.entity, col),
			Query:          entityLikeQuery(col, c.entity),
			ValidationHint: fmt.Sprintf("Should return rows containing '%s'", c.entity),
		})
	}
	return steps
}

// buildCompanyCountSteps emits the count and the companion list query over
// a combined filter: a company counts if the entity appears in either the
// brand-name or the generic-name column.
func buildCompanyCountSteps(c *planContext) []models.PlanStep {
	companyCol := c.companyColumns()[0]
	brandCol, genericCol := c.nameColumns()

	var conditions []string
	if brandCol != "" {
		conditions = append(conditions, likeCondition(brandCol, c.entity))
	}
	if genericCol != "" {
		conditions = append(conditions, likeCondition(genericCol, c.entity))
	}
	if len(conditions) == 0 {
		return nil
	}
	where := strings.Join(conditions, " OR ")

	return []models.PlanStep{
		{
			Description: fmt.Sprintf("Count distinct companies that have registered %s (checking multiple columns)", c.entity),
			Query: fmt.Sprintf("SELECT COUNT(DISTINCT %s) AS company_count FROM %s WHERE %s",
				quoteIdent(companyCol), sqlite.TableName, where),
			ValidationHint: fmt.Sprintf("Should return count of companies with %s", c.entity),
		},
		{
			Description: fmt.Sprintf("List companies that have registered %s (from all relevant columns)", c.entity),
			Query: fmt.Sprintf("SELECT DISTINCT %s AS company_name FROM %s WHERE %s",
				quoteIdent(companyCol), sqlite.TableName, where),
			ValidationHint: fmt.Sprintf("Should return names of companies with %s", c.entity),
		},
	}
}

func (c *planContext) companyColumns() []string {
	return c.schema.KeyColumns[models.CategoryCompany]
}

// nameColumns finds the brand-name and generic-name columns by word pairs
// in the column name.
func (c *planContext) nameColumns() (brandCol, genericCol string) {
	for _, col := range c.schema.Columns {
		lower := strings.ToLower(col)
		switch {
		case brandCol == "" && strings.Contains(lower, "brand") && strings.Contains(lower, "name"):
			brandCol = col
		case genericCol == "" && strings.Contains(lower, "generic") && strings.Contains(lower, "name"):
			genericCol = col
		}
	}
	return brandCol, genericCol
}

func determineResultType(c *planContext) models.ResultType {
	switch {
	case strings.Contains(c.objectiveLower, "how many") || c.vocabulary["count"]:
		return models.ResultTypeCount
	case c.vocabulary["list"] || strings.Contains(c.objectiveLower, "what are"):
		return models.ResultTypeList
	default:
		return models.ResultTypeGeneral
	}
}

// buildVocabulary tokenizes the objective and stores each word in lowered,
// singular form.
func buildVocabulary(objective string) map[string]bool {
	vocab := make(map[string]bool)
	for _, word := range strings.FieldsFunc(strings.ToLower(objective), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		vocab[inflection.Singular(word)] = true
	}
	return vocab
}

// entityLikeQuery builds a case-insensitive containment probe. The entity
// comes from an uppercase-token match, so it is alphanumeric by
// construction and safe to inline.
func entityLikeQuery(col, entity string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 5", sqlite.TableName, likeCondition(col, entity))
}

func likeCondition(col, entity string) string {
	return fmt.Sprintf("UPPER(%s) LIKE '%%%s%%'", quoteIdent(col), strings.ToUpper(entity))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
