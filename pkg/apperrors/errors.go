package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyDataset    = errors.New("dataset is empty")
	ErrNoTextExtracted = errors.New("no text extracted from document")
	ErrQueryRejected   = errors.New("query rejected")
	ErrNoQueryProvided = errors.New("either a SQL query or an objective is required")
)
