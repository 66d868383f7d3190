package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// HTMLParser nests block text under h1-h6 headings. Page chrome and
// non-content elements are dropped. Table rows become one paragraph each with
// cells joined by " | ". The <title> element, when present, names the document.
type HTMLParser struct{}

var htmlSkipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
	atom.Nav: true, atom.Header: true, atom.Footer: true, atom.Aside: true,
	atom.Form: true, atom.Svg: true,
}

var htmlBlocks = map[atom.Atom]bool{
	atom.P: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true,
	atom.Dt: true, atom.Dd: true, atom.Figcaption: true, atom.Caption: true,
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	if t := find(doc, atom.Title); t != nil {
		if s := nodeText(t); s != "" {
			tree.Title = s
		}
	}

	root := find(doc, atom.Body)
	if root == nil {
		root = doc
	}
	b := newSectionBuilder()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case htmlSkipped[n.DataAtom]:
				return
			case headingLevel(n.Data) > 0:
				b.heading(headingLevel(n.Data), nodeText(n))
				return
			case n.DataAtom == atom.Tr:
				b.paragraph(rowText(n))
				return
			case htmlBlocks[n.DataAtom]:
				b.paragraph(nodeText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	tree.Children = b.children()
	return tree, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// nodeText returns the element's text with whitespace runs collapsed. <pre>
// keeps its line structure.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && htmlSkipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.DataAtom == atom.Br {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	if n.DataAtom == atom.Pre {
		return strings.Trim(sb.String(), "\n")
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func rowText(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
			cells = append(cells, nodeText(c))
		}
	}
	return strings.Join(cells, " | ")
}

// find returns the first element with the given tag in document order.
func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := find(c, a); m != nil {
			return m
		}
	}
	return nil
}
