package observability

import "github.com/Jaiwincr7/rag-based-model/internal/types"

const (
	ErrCodeInvalidConfig    types.ErrorCode = "OBSERVABILITY_INVALID_CONFIG"
	ErrCodeExporterFailed   types.ErrorCode = "OBSERVABILITY_EXPORTER_FAILED"
	ErrCodeShutdownFailed   types.ErrorCode = "OBSERVABILITY_SHUTDOWN_FAILED"
	ErrCodeComponentUnknown types.ErrorCode = "OBSERVABILITY_COMPONENT_UNKNOWN"
)
