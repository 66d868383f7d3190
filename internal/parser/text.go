package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// maxTextBytes bounds a single plain text upload.
const maxTextBytes = 32 << 20

// TextParser handles plain text files. Paragraphs become untitled nodes. When
// the text carries form feeds, each paragraph also records its page so
// citations can point at it.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxTextBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	if len(data) > maxTextBytes {
		return nil, fmt.Errorf("text file exceeds %d bytes", maxTextBytes)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	pages := splitPages(text)
	paged := len(pages) > 1
	for i, page := range pages {
		for _, para := range paragraphs(page) {
			node := &doctree.DocNode{Text: para}
			if paged {
				node.Page = i + 1
			}
			tree.Children = append(tree.Children, node)
		}
	}
	return tree, nil
}
