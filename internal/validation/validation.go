// Package validation checks loosely typed request payloads against an ordered
// schema of field rules and reports human-readable messages.
package validation

import (
	"fmt"
	"strings"

	"github.com/diasporalink/backend/internal/sanitize"
)

// Field binds a payload key to the rules evaluated for it, in order.
type Field struct {
	Name  string
	Rules []Rule
}

// Schema is an ordered list of fields. Order only affects message order.
type Schema []Field

// Result is the outcome of Validate.
type Result struct {
	Valid  bool
	Errors []string
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Messages: r.Errors}
}

// Error carries the field-level messages of a failed validation.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Messages, "; ")
}

// Validate evaluates every field of schema against data.
//
// A field that is absent, null or blank skips its rules unless one of them is
// Required, which reports "<field> is required" and nothing else. Any present
// string that the sanitizer would modify additionally reports "<field>
// contains invalid characters"; the offending content is never echoed back.
func Validate(data map[string]any, schema Schema) Result {
	var errs []string

	for _, field := range schema {
		value, ok := data[field.Name]
		present := ok && !blank(value)

		if !present {
			if requires(field.Rules) {
				errs = append(errs, fmt.Sprintf("%s is required", field.Name))
			}
			continue
		}

		for _, rule := range field.Rules {
			errs = append(errs, rule.check(field.Name, value)...)
		}

		if s, isString := value.(string); isString && sanitize.Changed(s) {
			errs = append(errs, fmt.Sprintf("%s contains invalid characters", field.Name))
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func requires(rules []Rule) bool {
	for _, r := range rules {
		if r.kind == kindRequired {
			return true
		}
	}
	return false
}

func blank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return strings.TrimSpace(fmt.Sprint(v)) == ""
	}
}
