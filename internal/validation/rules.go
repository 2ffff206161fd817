package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	whitespace   = regexp.MustCompile(`\s+`)
)

type kind int

const (
	kindRequired kind = iota + 1
	kindEmail
	kindPhone
	kindString
	kindOneOf
)

// Rule is a single check applied to a field. Rules are only built through the
// constructors below, so every Rule is one of Required, Email, Phone, String or
// OneOf with the parameters that variant needs.
type Rule struct {
	kind    kind
	min     int
	max     int
	label   string
	allowed map[string]struct{}
}

// Required rejects absent, null and blank values. A failed Required check
// stops evaluation of the field's remaining rules.
func Required() Rule {
	return Rule{kind: kindRequired}
}

// Email accepts values with a single @ followed by a dotted domain.
func Email() Rule {
	return Rule{kind: kindEmail}
}

// Phone accepts an optional leading + and 1-16 digits, the first non-zero.
// Whitespace is ignored.
func Phone() Rule {
	return Rule{kind: kindPhone}
}

// String requires a textual value whose length in characters is within
// [min, max]. A zero bound is not enforced.
func String(min, max int) Rule {
	return Rule{kind: kindString, min: min, max: max}
}

// OneOf accepts only the listed values, compared case-insensitively after
// trimming. label names the kind of value in the error message.
func OneOf(label string, values ...string) Rule {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[normalize(v)] = struct{}{}
	}
	return Rule{kind: kindOneOf, label: label, allowed: allowed}
}

// check returns the messages produced by r for a present value.
func (r Rule) check(field string, value any) []string {
	switch r.kind {
	case kindEmail:
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(strings.TrimSpace(s)) {
			return []string{fmt.Sprintf("%s must be a valid email", field)}
		}
	case kindPhone:
		s, ok := value.(string)
		if !ok || !phonePattern.MatchString(whitespace.ReplaceAllString(s, "")) {
			return []string{fmt.Sprintf("%s must be a valid phone number", field)}
		}
	case kindString:
		s, ok := value.(string)
		if !ok {
			return []string{fmt.Sprintf("%s must be a string", field)}
		}
		var msgs []string
		n := utf8.RuneCountInString(s)
		if r.min > 0 && n < r.min {
			msgs = append(msgs, fmt.Sprintf("%s must be at least %d characters", field, r.min))
		}
		if r.max > 0 && n > r.max {
			msgs = append(msgs, fmt.Sprintf("%s must be at most %d characters", field, r.max))
		}
		return msgs
	case kindOneOf:
		s, ok := value.(string)
		if ok {
			if _, found := r.allowed[normalize(s)]; found {
				return nil
			}
		}
		return []string{fmt.Sprintf("%s must be a recognized %s", field, r.label)}
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
