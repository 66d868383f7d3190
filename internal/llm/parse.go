package llm

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	spaceRunRe  = regexp.MustCompile(`\s+`)
	punctRunRe  = regexp.MustCompile(`!{2,}|\?{2,}|\.{2,}`)
)

// Normalize cleans raw model output before structured decoding: control and
// non-printable runes are dropped, whitespace runs become one space, and runs
// of repeated '!', '?' or '.' collapse to a single rune.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = punctRunRe.ReplaceAllStringFunc(s, func(m string) string { return m[:1] })
	return strings.TrimSpace(s)
}

// StripCodeBlock removes a surrounding Markdown code fence.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// ExtractJSON returns the span from the first open delimiter to the last
// matching close delimiter, so prose around a JSON value is ignored.
// open must be '{' or '['. The input is returned unchanged if no span exists.
func ExtractJSON(s string, open byte) string {
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closer)
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// Truncate shortens s to n bytes for logging.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
