package observability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// HealthChecker is implemented by anything that can report its health.
type HealthChecker interface {
	Health(ctx context.Context) types.HealthStatus
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) types.HealthStatus

func (f HealthCheckFunc) Health(ctx context.Context) types.HealthStatus {
	return f(ctx)
}

// HealthMonitor checks a set of named components and logs state transitions.
// It is safe for concurrent use.
type HealthMonitor struct {
	logger     *slog.Logger
	mu         sync.RWMutex
	components map[string]HealthChecker
	last       map[string]types.HealthState
}

// NewHealthMonitor creates a monitor. A nil logger discards output.
func NewHealthMonitor(logger *slog.Logger) *HealthMonitor {
	if logger == nil {
		logger = DiscardLogger()
	}
	return &HealthMonitor{
		logger:     logger,
		components: make(map[string]HealthChecker),
		last:       make(map[string]types.HealthState),
	}
}

// Register adds or replaces a component.
func (h *HealthMonitor) Register(name string, checker HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = checker
}

// Check runs one component's check.
func (h *HealthMonitor) Check(ctx context.Context, name string) (types.HealthStatus, error) {
	h.mu.RLock()
	checker, ok := h.components[name]
	h.mu.RUnlock()
	if !ok {
		return types.HealthStatus{}, types.NewError(ErrCodeComponentUnknown, "component "+name+" is not registered")
	}

	status := checker.Health(ctx)
	h.record(ctx, name, status)
	return status, nil
}

// CheckAll runs every check without holding the lock.
func (h *HealthMonitor) CheckAll(ctx context.Context) map[string]types.HealthStatus {
	h.mu.RLock()
	snapshot := make(map[string]HealthChecker, len(h.components))
	for name, c := range h.components {
		snapshot[name] = c
	}
	h.mu.RUnlock()

	results := make(map[string]types.HealthStatus, len(snapshot))
	for name, c := range snapshot {
		status := c.Health(ctx)
		results[name] = status
		h.record(ctx, name, status)
	}
	return results
}

// Overall aggregates every component into one status.
func (h *HealthMonitor) Overall(ctx context.Context) (types.HealthStatus, map[string]types.HealthStatus) {
	components := h.CheckAll(ctx)
	return types.AggregateHealth(components), components
}

func (h *HealthMonitor) record(ctx context.Context, name string, status types.HealthStatus) {
	h.mu.Lock()
	previous, seen := h.last[name]
	h.last[name] = status.State
	h.mu.Unlock()

	if seen && previous == status.State {
		return
	}
	level := slog.LevelInfo
	if !status.IsHealthy() {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "component health changed",
		"component", name,
		"previous", previous,
		"state", status.State,
		"message", status.Message)
}
