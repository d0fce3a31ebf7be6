package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{
			name:      "unauthorized",
			err:       errors.New("status code 401: unauthorized"),
			wantType:  ErrorTypeAuth,
			retryable: false,
		},
		{
			name:      "invalid api key",
			err:       errors.New("invalid api key provided"),
			wantType:  ErrorTypeAuth,
			retryable: false,
		},
		{
			name:      "model missing",
			err:       errors.New("the model 'gpt-nonexistent' does not exist"),
			wantType:  ErrorTypeModel,
			retryable: false,
		},
		{
			name:      "rate limited",
			err:       errors.New("status code 429: rate limit exceeded"),
			wantType:  ErrorTypeRateLimit,
			retryable: true,
		},
		{
			name:      "anthropic overloaded",
			err:       errors.New("overloaded_error: Overloaded"),
			wantType:  ErrorTypeRateLimit,
			retryable: true,
		},
		{
			name:      "connection refused",
			err:       errors.New("dial tcp 127.0.0.1:8000: connection refused"),
			wantType:  ErrorTypeEndpoint,
			retryable: true,
		},
		{
			name:      "server error",
			err:       errors.New("status code 503: service unavailable"),
			wantType:  ErrorTypeServer,
			retryable: true,
		},
		{
			name:      "unknown defaults to retryable",
			err:       errors.New("something odd happened"),
			wantType:  ErrorTypeUnknown,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			require.NotNil(t, classified)
			assert.Equal(t, tt.wantType, classified.Type)
			assert.Equal(t, tt.retryable, classified.IsRetryable())
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestClassifyErrorNil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyErrorPassthrough(t *testing.T) {
	orig := newError(ErrorTypeAuth, "authentication failed", false, nil)
	wrapped := fmt.Errorf("summarize chunk: %w", orig)
	assert.Same(t, orig, ClassifyError(wrapped))
}
