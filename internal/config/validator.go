package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new ConfigValidator instance.
func NewValidator() ConfigValidator {
	return &validatorImpl{validate: validator.New()}
}

// Validate runs struct tag validation, then the checks that depend on
// whether an optional feature is enabled.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var problems []string
	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validation error: %w", err)
		}
		for _, e := range validationErrs {
			problems = append(problems, formatValidationError(e))
		}
	}

	if cfg.Index.Backend != "embedded" && cfg.Index.Path == "" {
		problems = append(problems, fmt.Sprintf("index.path is required for the %s backend", cfg.Index.Backend))
	}
	// Cosine distance is 1-cos, so 1.0 already admits orthogonal vectors. For
	// unit vectors squared l2 is twice the cosine distance.
	if cfg.Index.Metric == "cosine" && cfg.Router.ConfidenceThreshold >= 1 {
		problems = append(problems, fmt.Sprintf(
			"router.confidence_threshold must be below 1 when index.metric is cosine (got: %v, the l2 threshold %v is %v on the cosine scale)",
			cfg.Router.ConfidenceThreshold, cfg.Router.ConfidenceThreshold, cfg.Router.ConfidenceThreshold/2))
	}
	if cfg.GraphExport.Enabled {
		if err := cfg.GraphExport.Neo4j.Validate(); err != nil {
			problems = append(problems, "graph_export.neo4j: "+err.Error())
		}
	}
	if err := cfg.Tracing.Validate(); err != nil {
		problems = append(problems, "tracing: "+err.Error())
	}
	if err := cfg.Metrics.Validate(); err != nil {
		problems = append(problems, "metrics: "+err.Error())
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
}

// formatValidationError formats a single validation error with field path and details.
func formatValidationError(e validator.FieldError) string {
	fieldPath := formatFieldPath(e.Namespace())

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fieldPath)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got: %v)", fieldPath, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", fieldPath, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation '%s' (got: %v)", fieldPath, e.Tag(), e.Value())
	}
}

// formatFieldPath converts a validator namespace to a config path:
// "Config.Index.Backend" becomes "index.backend".
func formatFieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) <= 1 {
		return namespace
	}

	result := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		result = append(result, camelToSnake(p))
	}
	return strings.Join(result, ".")
}

// camelToSnake converts CamelCase to snake_case, keeping acronyms together:
// "TTL" stays "ttl" and "BundlePath" becomes "bundle_path".
func camelToSnake(s string) string {
	runes := []rune(s)
	var result strings.Builder
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevUpper := runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
