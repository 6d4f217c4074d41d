package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRAGError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RAGError
		want string
	}{
		{
			name: "without cause",
			err:  NewError(BUNDLE_NOT_FOUND, "bundle file not found"),
			want: "[BUNDLE_NOT_FOUND] bundle file not found",
		},
		{
			name: "with cause",
			err:  WrapError(BUNDLE_PARSE_FAILED, "invalid json", errors.New("unexpected EOF")),
			want: "[BUNDLE_PARSE_FAILED] invalid json: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRAGError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("ingest: %w", WrapError(RETRIEVAL_TIMEOUT, "search timed out", errors.New("deadline")))

	assert.True(t, errors.Is(err, NewError(RETRIEVAL_TIMEOUT, "")))
	assert.False(t, errors.Is(err, NewError(RETRIEVAL_FAILED, "")))
}

func TestRAGError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(INGEST_UPSERT_FAILED, "upsert failed", cause)

	assert.ErrorIs(t, err, cause)

	var ragErr *RAGError
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &ragErr)
	assert.Equal(t, INGEST_UPSERT_FAILED, ragErr.Code)
}

func TestCodeOfAndRetryable(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, RETRIEVAL_FAILED, CodeOf(fmt.Errorf("x: %w", NewError(RETRIEVAL_FAILED, "boom"))))

	assert.True(t, IsRetryable(NewRetryableError(RETRIEVAL_TIMEOUT, "slow index")))
	assert.False(t, IsRetryable(NewError(RETRIEVAL_FAILED, "bad query")))
	assert.False(t, IsRetryable(nil))
}
