package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// MarkdownParser nests Markdown blocks under their headings. A leading YAML
// front matter block is stripped, and its title field, when set, names the
// document.
type MarkdownParser struct{}

type frontMatter struct {
	Title string `yaml:"title"`
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	meta, body := splitFrontMatter(src)
	if meta != nil {
		var fm frontMatter
		// Malformed front matter is kept out of the text but otherwise ignored.
		if yaml.Unmarshal(meta, &fm) == nil && strings.TrimSpace(fm.Title) != "" {
			tree.Title = strings.TrimSpace(fm.Title)
		}
	}

	b := newSectionBuilder()
	doc := goldmark.New().Parser().Parse(text.NewReader(body))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.heading(h.Level, blockText(h, body))
		} else {
			b.paragraph(blockText(n, body))
		}
	}
	tree.Children = b.children()
	return tree, nil
}

// splitFrontMatter separates a "---" delimited header from the document body.
// meta is nil when src has no complete front matter block.
func splitFrontMatter(src []byte) (meta, body []byte) {
	const fence = "---"
	rest, ok := bytes.CutPrefix(src, []byte(fence+"\n"))
	if !ok {
		rest, ok = bytes.CutPrefix(src, []byte(fence+"\r\n"))
	}
	if !ok {
		return nil, src
	}
	for off := 0; off < len(rest); {
		end := bytes.IndexByte(rest[off:], '\n')
		line := rest[off:]
		next := len(rest)
		if end >= 0 {
			line = rest[off : off+end]
			next = off + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == fence {
			return rest[:off], rest[next:]
		}
		off = next
	}
	return nil, src
}

// blockText flattens a goldmark block. Leaf blocks such as fenced code carry
// their content in Lines; the rest in inline children.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		for i, lines := 0, n.Lines(); i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(blockText(c, src))
			continue
		}
		buf.Write(t.Value(src))
		if t.SoftLineBreak() || t.HardLineBreak() {
			buf.WriteByte('\n')
		}
	}
	return strings.TrimSpace(buf.String())
}
