package sanitize

import (
	"strings"
	"testing"
)

func TestSanitizeRemovesInjection(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		forbidden string
	}{
		{name: "script block", input: "<script>alert(1)</script>hello", want: "hello", forbidden: "<script"},
		{name: "script block mixed case", input: "a<ScRiPt type=\"text/javascript\">x()</SCRIPT>b", want: "ab", forbidden: "script"},
		{name: "multiline script", input: "<script>\nalert(1)\n</script>ok", want: "ok", forbidden: "alert"},
		{name: "iframe", input: "<iframe src=\"https://evil\"></iframe>text", want: "text", forbidden: "iframe"},
		{name: "javascript scheme", input: "javascript:alert(1)", want: "alert(1)", forbidden: "javascript:"},
		{name: "javascript scheme upper", input: "JAVASCRIPT:void(0)", want: "void(0)", forbidden: "JAVASCRIPT:"},
		{name: "event handler", input: `<a onclick="x()">hi</a>`, want: `<a >hi</a>`, forbidden: "onclick"},
		{name: "unquoted handler", input: "<img onerror=alert(1)>", forbidden: "onerror="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if strings.Contains(got, tt.forbidden) {
				t.Fatalf("expected %q to be removed, got %q", tt.forbidden, got)
			}
			if tt.want != "" && got != tt.want {
				t.Fatalf("expected %q got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizeLeavesCleanInputUntouched(t *testing.T) {
	inputs := []string{
		"",
		"Amara Okafor",
		"amara@example.com",
		"+44 7700 900123",
		"Côte d'Ivoire",
		"I mentor on weekends <3",
	}
	for _, input := range inputs {
		if got := Sanitize(input); got != input {
			t.Fatalf("expected %q to be unchanged, got %q", input, got)
		}
		if Changed(input) {
			t.Fatalf("expected Changed(%q) to be false", input)
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>hello",
		"<scr<script></script>ipt>alert(1)</script>",
		"javajavascript:script:alert(1)",
		"oonclick=nclick=\"x\"",
		`<a onclick="x()" onmouseover='y()'>hi</a>`,
		"<iframe><script>x</script></iframe>",
		"plain text",
	}
	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Fatalf("sanitize not idempotent for %q: %q then %q", input, once, twice)
		}
		if Changed(once) {
			t.Fatalf("expected sanitized output %q to be clean", once)
		}
	}
}

func TestChangedMatchesSanitize(t *testing.T) {
	inputs := []string{"hello", "javascript:x", "<script>1</script>", "questions=yes", "button"}
	for _, input := range inputs {
		if Changed(input) != (Sanitize(input) != input) {
			t.Fatalf("Changed disagrees with Sanitize for %q", input)
		}
	}
}
