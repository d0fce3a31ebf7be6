package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
)

// LocalStore serves objects from a directory tree: <root>/<bucket>/<path>.
// Used for local development and tests.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Fetch implements ObjectStore.
func (s *LocalStore) Fetch(ctx context.Context, bucket, path string) ([]byte, error) {
	full := filepath.Join(s.root, bucket, filepath.FromSlash(path))

	// Reject paths that escape the bucket directory.
	bucketRoot := filepath.Join(s.root, bucket)
	rel, err := filepath.Rel(bucketRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("invalid object path %q", path)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s/%s: %w", bucket, path, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, path, err)
	}
	return data, nil
}
