package graph

import "github.com/Jaiwincr7/rag-based-model/internal/types"

// Graph database error codes
const (
	ErrCodeGraphConnectionFailed types.ErrorCode = "GRAPH_CONNECTION_FAILED"
	ErrCodeGraphConnectionClosed types.ErrorCode = "GRAPH_CONNECTION_CLOSED"
	ErrCodeGraphInvalidConfig    types.ErrorCode = "GRAPH_INVALID_CONFIG"
	ErrCodeGraphQueryFailed      types.ErrorCode = "GRAPH_QUERY_FAILED"
	ErrCodeGraphWriteFailed      types.ErrorCode = "GRAPH_WRITE_FAILED"
)
