package parser

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// sectionBuilder nests paragraphs under headings by heading level.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []openSection
	text  strings.Builder
}

type openSection struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder() *sectionBuilder {
	root := &doctree.DocNode{}
	return &sectionBuilder{root: root, stack: []openSection{{node: root, level: 0}}}
}

// heading opens a section, closing any open section at the same or a deeper level.
func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, openSection{node: node, level: level})
}

// paragraph appends text to the innermost open section.
func (b *sectionBuilder) paragraph(t string) {
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// children returns the top-level nodes. Text before the first heading becomes
// a leading untitled node.
func (b *sectionBuilder) children() []*doctree.DocNode {
	b.flush()
	if b.root.Text == "" {
		return b.root.Children
	}
	return append([]*doctree.DocNode{{Text: b.root.Text}}, b.root.Children...)
}

// titleFromFilename strips directory and extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
