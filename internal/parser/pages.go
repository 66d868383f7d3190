package parser

import "strings"

// splitPages breaks extracted text on form feeds, the page separator written
// by pdftotext and most print-to-text exports. Blank trailing pages are
// dropped so a final "\f" does not add a page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	for len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// paragraphs splits text on blank or whitespace-only lines. Trailing spaces and
// carriage returns are stripped from every kept line.
func paragraphs(text string) []string {
	var out, cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}
