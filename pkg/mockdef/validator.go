package mockdef

import (
	"fmt"
	"regexp"
)

// ValidationError represents a validation failure with field context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// routeRegex limits routes to URL-safe path segments. Nested segments
// ("users/1/posts") are allowed; leading and trailing slashes are not.
var routeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+(/[a-zA-Z0-9_-]+)*$`)

// validMethods are the methods an authoring client may store.
var validMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
	"PATCH":  true,
}

// Validate checks the definition after defaults have been applied.
func (d *Definition) Validate() error {
	if d.Route == "" {
		return &ValidationError{Field: "route", Message: "route is required"}
	}
	if !routeRegex.MatchString(d.Route) {
		return &ValidationError{Field: "route", Message: "route may only contain letters, digits, '-', '_' and '/' separators"}
	}
	if !validMethods[d.Method] {
		return &ValidationError{Field: "method", Message: fmt.Sprintf("unsupported method: %s", d.Method)}
	}
	if d.Status < 100 || d.Status > 599 {
		return &ValidationError{Field: "status", Message: "status must be a valid HTTP status code"}
	}
	if d.DelayMs < 0 {
		return &ValidationError{Field: "delay", Message: "delay must not be negative"}
	}
	if d.DelayMs > MaxDelayMs {
		return &ValidationError{Field: "delay", Message: fmt.Sprintf("delay must not exceed %d ms", MaxDelayMs)}
	}
	if d.FilterEnabled && d.KeyField == "" {
		return &ValidationError{Field: "keyField", Message: "keyField is required when filtering is enabled"}
	}
	if !d.IsArray && (d.FilterEnabled || d.PaginationEnabled) {
		return &ValidationError{Field: "isArray", Message: "filtering and pagination require an array response"}
	}
	return nil
}
