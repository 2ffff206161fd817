// Package sanitize removes script-bearing markup from free-text input.
//
// It is a best-effort filter rather than an HTML sanitizer. Callers in this
// service use it mostly as a detector: input that Sanitize would modify is
// rejected instead of being silently rewritten.
package sanitize

import "regexp"

var (
	scriptBlock  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	iframeBlock  = regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>`)
	jsScheme     = regexp.MustCompile(`(?i)javascript:`)
	eventHandler = regexp.MustCompile(`(?i)on\w+\s*=\s*(?:"[^"]*"|'[^']*')?`)
)

var patterns = []*regexp.Regexp{scriptBlock, iframeBlock, jsScheme, eventHandler}

// Sanitize strips <script> and <iframe> elements (content included),
// javascript: scheme prefixes and on<event>= handler attributes.
//
// Removal repeats until nothing matches so that fragments which only form a
// dangerous substring after an inner removal are caught too. Every pass that
// changes the value shortens it, so the loop terminates, and the result is
// always a fixed point: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(value string) string {
	for {
		next := value
		for _, re := range patterns {
			next = re.ReplaceAllString(next, "")
		}
		if next == value {
			return next
		}
		value = next
	}
}

// Changed reports whether Sanitize would modify value.
func Changed(value string) bool {
	for _, re := range patterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
