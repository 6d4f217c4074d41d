package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// HealthState is the coarse health of a pipeline component (index, embedder,
// cache, graph exporter).
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

func (s HealthState) String() string {
	return string(s)
}

// IsValid checks if the HealthState is a known value.
func (s HealthState) IsValid() bool {
	switch s {
	case HealthStateHealthy, HealthStateDegraded, HealthStateUnhealthy:
		return true
	default:
		return false
	}
}

// severity orders states so the worst one wins during aggregation.
func (s HealthState) severity() int {
	switch s {
	case HealthStateHealthy:
		return 0
	case HealthStateDegraded:
		return 1
	default:
		return 2
	}
}

func (s HealthState) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *HealthState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	state := HealthState(str)
	if !state.IsValid() {
		return fmt.Errorf("invalid health state: %s", str)
	}

	*s = state
	return nil
}

// HealthStatus is a point-in-time health report for one component.
type HealthStatus struct {
	State     HealthState `json:"state"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// NewHealthStatus stamps CheckedAt with the current time.
func NewHealthStatus(state HealthState, message string) HealthStatus {
	return HealthStatus{
		State:     state,
		Message:   message,
		CheckedAt: time.Now(),
	}
}

func Healthy(message string) HealthStatus {
	return NewHealthStatus(HealthStateHealthy, message)
}

func Degraded(message string) HealthStatus {
	return NewHealthStatus(HealthStateDegraded, message)
}

func Unhealthy(message string) HealthStatus {
	return NewHealthStatus(HealthStateUnhealthy, message)
}

func (h HealthStatus) IsHealthy() bool {
	return h.State == HealthStateHealthy
}

func (h HealthStatus) IsDegraded() bool {
	return h.State == HealthStateDegraded
}

func (h HealthStatus) IsUnhealthy() bool {
	return h.State == HealthStateUnhealthy
}

// AggregateHealth folds named component reports into one status. The overall
// state is the worst component state; the message lists every non-healthy
// component in name order.
func AggregateHealth(components map[string]HealthStatus) HealthStatus {
	if len(components) == 0 {
		return Healthy("no components registered")
	}

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	worst := HealthStateHealthy
	var problems []string
	for _, name := range names {
		status := components[name]
		if status.State.severity() > worst.severity() {
			worst = status.State
		}
		if !status.IsHealthy() {
			problems = append(problems, fmt.Sprintf("%s: %s", name, status.Message))
		}
	}

	if len(problems) == 0 {
		return Healthy("all components healthy")
	}
	return NewHealthStatus(worst, strings.Join(problems, "; "))
}
