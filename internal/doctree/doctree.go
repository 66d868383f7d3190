package doctree

import (
	"fmt"
	"strings"
)

// DocTree is a parsed document: a title and its top-level sections.
type DocTree struct {
	Title    string
	Children []*DocNode
}

// DocNode is one section. Leaf paragraphs have no Title; container sections
// may have no Text. Page is 1-based, 0 when the format has no pages.
type DocNode struct {
	Title    string
	Text     string
	Page     int
	Children []*DocNode
}

// Walk visits every node depth-first in document order.
func (t *DocTree) Walk(fn func(n *DocNode)) {
	var visit func([]*DocNode)
	visit = func(nodes []*DocNode) {
		for _, n := range nodes {
			fn(n)
			visit(n.Children)
		}
	}
	visit(t.Children)
}

// Text joins the non-empty node texts with newlines. Ingestion hashes it to
// detect duplicate uploads.
func (t *DocTree) Text() string {
	var parts []string
	t.Walk(func(n *DocNode) {
		if n.Text != "" {
			parts = append(parts, n.Text)
		}
	})
	return strings.Join(parts, "\n")
}

// Chunk is a bounded slice of one section's text. Breadcrumb is the heading
// path down to the section, e.g. ["Enforcement", "Appeals"].
type Chunk struct {
	Text       string
	Index      int // position within the document
	Breadcrumb []string
	PageStart  int
	PageEnd    int
}

// Location names where the chunk sits: its heading path joined with " > ",
// else its page, else "".
func (c Chunk) Location() string {
	if len(c.Breadcrumb) > 0 {
		return strings.Join(c.Breadcrumb, " > ")
	}
	if c.PageStart > 0 {
		if c.PageEnd > c.PageStart {
			return fmt.Sprintf("Pages %d-%d", c.PageStart, c.PageEnd)
		}
		return fmt.Sprintf("Page %d", c.PageStart)
	}
	return ""
}

// LabeledText is the text prefixed with "[Location] " when a location exists.
func (c Chunk) LabeledText() string {
	if loc := c.Location(); loc != "" {
		return "[" + loc + "] " + c.Text
	}
	return c.Text
}
