package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dataquill-ai/dataquill-engine/pkg/apperrors"
)

// SupabaseStore fetches objects from Supabase storage over its HTTP object
// API: GET {base}/storage/v1/object/{bucket}/{path} with the service key.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewSupabaseStore creates a store for the given project base URL.
func NewSupabaseStore(baseURL, serviceKey string) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch implements ObjectStore.
func (s *SupabaseStore) Fetch(ctx context.Context, bucket, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s",
		s.baseURL, url.PathEscape(bucket), escapeObjectPath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s/%s: %w", bucket, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch object %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read object %s/%s: %w", bucket, path, err)
		}
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("object %s/%s: %w", bucket, path, apperrors.ErrNotFound)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch object %s/%s: status %d: %s", bucket, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// escapeObjectPath escapes each segment of an object path while keeping the
// segment separators intact.
func escapeObjectPath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
