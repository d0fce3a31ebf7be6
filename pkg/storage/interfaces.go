// Package storage provides blob retrieval for the tabular files and
// documents under analysis.
package storage

import (
	"context"
)

// ObjectStore fetches file contents from a bucket.
// A missing object is reported as apperrors.ErrNotFound; callers treat
// absence as a terminal, reported error, never something to recover from.
type ObjectStore interface {
	Fetch(ctx context.Context, bucket, path string) ([]byte, error)
}
