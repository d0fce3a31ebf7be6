package models

// ColumnType is the coarse data type inferred for a dataset column.
type ColumnType string

const (
	ColumnTypeInteger  ColumnType = "integer"
	ColumnTypeNumeric  ColumnType = "numeric"
	ColumnTypeDatetime ColumnType = "datetime"
	ColumnTypeText     ColumnType = "text"
)

// ColumnCategory is the semantic role assigned to a column by keyword heuristics.
type ColumnCategory string

const (
	CategoryCompany  ColumnCategory = "company"
	CategoryProduct  ColumnCategory = "product"
	CategoryCountry  ColumnCategory = "country"
	CategoryApproval ColumnCategory = "approval"
	CategoryDate     ColumnCategory = "date"
	CategoryStatus   ColumnCategory = "status"
	CategoryOther    ColumnCategory = "other"
)

// CategoryPriority is the fixed order in which categories are tested during
// column classification. First match wins; CategoryOther is the fallback and
// is never tested directly.
var CategoryPriority = []ColumnCategory{
	CategoryCompany,
	CategoryProduct,
	CategoryCountry,
	CategoryApproval,
	CategoryDate,
	CategoryStatus,
}

// SchemaInfo describes the structure of a tabular dataset.
// Built once per analysis request and treated as immutable afterwards.
type SchemaInfo struct {
	// Columns holds column names in source order.
	Columns []string `json:"columns"`
	// DataTypes maps column name to its inferred coarse type.
	DataTypes map[string]ColumnType `json:"data_types"`
	// SampleValues maps column name to up to 5 distinct non-null values,
	// string-rendered, for illustration.
	SampleValues map[string][]string `json:"sample_values"`
	RowCount     int                 `json:"row_count"`
	// KeyColumns buckets every column into exactly one semantic category.
	KeyColumns map[ColumnCategory][]string `json:"key_columns"`
}

// ResultType describes the shape of answer an objective is expected to produce.
type ResultType string

const (
	ResultTypeCount   ResultType = "numeric_count_with_details"
	ResultTypeList    ResultType = "list_of_items"
	ResultTypeGeneral ResultType = "general_information"
)

// PlanStep is one independently executable query in a plan.
// Steps are standalone queries, not a dataflow graph; ordering is by
// convention only.
type PlanStep struct {
	Description string `json:"description"`
	Query       string `json:"query"`
	// ValidationHint is free text checked only by substring ("count", "list").
	ValidationHint string `json:"validation_hint"`
}

// QueryPlan is an ordered sequence of steps synthesized from an objective
// and a schema. Built once, consumed exactly once by the executor.
type QueryPlan struct {
	Objective          string     `json:"objective"`
	Steps              []PlanStep `json:"steps"`
	ExpectedResultType ResultType `json:"expected_result_type"`
}

// StepResult records the outcome of executing a single plan step.
type StepResult struct {
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
	Query       string `json:"query"`
	// ResultPayload is a JSON document: an array of row objects on success
	// (empty array for an empty result set) or error text on failure.
	ResultPayload      string `json:"result_payload"`
	ExecutionSucceeded bool   `json:"execution_succeeded"`
	ValidationPassed   bool   `json:"validation_passed"`
	Feedback           string `json:"feedback"`
}

// ExecutionReport is the terminal artifact of running a query plan.
// Success reflects only whether the setup phase (loading the dataset into
// the relational engine) completed; individual step failures are recorded
// in Errors without flipping it.
type ExecutionReport struct {
	Objective     string       `json:"objective"`
	StepsExecuted []StepResult `json:"steps_executed"`
	Errors        []string     `json:"errors"`
	Warnings      []string     `json:"warnings"`
	FinalAnswer   string       `json:"final_answer"`
	Success       bool         `json:"success"`
}

// TextChunk is a token-bounded, structurally aligned contiguous slice of a
// document. Chunks are produced in source order; the sequence is a pure
// function of the input text and the token budget.
type TextChunk struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
}

// ReductionStrategy identifies which stage of the graduated document
// pipeline produced the final output.
type ReductionStrategy string

const (
	StrategyFullText   ReductionStrategy = "full_text"
	StrategyFiltered   ReductionStrategy = "filtered"
	StrategySummarized ReductionStrategy = "summarized"
)

// ReductionReport is the structured result of reducing a document.
type ReductionReport struct {
	Strategy       ReductionStrategy `json:"strategy"`
	OriginalTokens int               `json:"original_tokens"`
	FinalTokens    int               `json:"final_tokens"`
	ChunkCount     int               `json:"chunk_count"`
	Text           string            `json:"text"`
}
