package llm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a  \n\t b\r\nc", "a b c"},
		{"strips control characters", "ab\x00c\x07d", "abcd"},
		{"strips zero width", "re\u200blevance", "relevance"},
		{"collapses repeated bangs", "wow!!!", "wow!"},
		{"collapses repeated questions", "why??", "why?"},
		{"collapses ellipsis", "and so on...", "and so on."},
		{"keeps mixed punctuation", "really?!", "really?!"},
		{"trims", "  {\"a\": 1}  ", "{\"a\": 1}"},
		{"keeps unicode letters", "café  déjà", "café déjà"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripCodeBlock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", "[1,2]"},
		{"```json {\"a\":1} ```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
	}
	for _, tc := range tests {
		if got := StripCodeBlock(tc.in); got != tc.want {
			t.Errorf("StripCodeBlock(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		open byte
		want string
	}{
		{"object with prose", `Here you go: {"a": {"b": 1}} hope it helps`, '{', `{"a": {"b": 1}}`},
		{"array with prose", `Themes: [{"x": 1}, {"x": 2}] done`, '[', `[{"x": 1}, {"x": 2}]`},
		{"no object", "nothing here", '{', "nothing here"},
		{"close before open", "} {", '{', "} {"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in, tc.open); got != tc.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("expected %q, got %q", "abc...", got)
	}
	if got := Truncate("abc", 3); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}
