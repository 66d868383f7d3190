package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// maxDocxBytes bounds the archive held in memory while parsing.
const maxDocxBytes = 64 << 20

// DOCXParser handles Word documents. Paragraphs styled "Heading N" open
// sections; table rows are flattened the same way HTMLParser does them.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	if len(data) > maxDocxBytes {
		return nil, fmt.Errorf("docx exceeds %d bytes", maxDocxBytes)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := newSectionBuilder()
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := runText(it)
			if level := styleHeadingLevel(it); level > 0 && text != "" {
				b.heading(level, text)
			} else {
				b.paragraph(text)
			}
		case *docx.Table:
			for _, row := range it.TableRows {
				b.paragraph(tableRowText(row))
			}
		}
	}
	return &doctree.DocTree{Title: titleFromFilename(filename), Children: b.children()}, nil
}

// styleHeadingLevel accepts "Heading2", "heading 2" and similar style ids.
func styleHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if n, ok := strings.CutPrefix(style, "heading"); ok {
		if level, err := strconv.Atoi(n); err == nil && level >= 1 && level <= 6 {
			return level
		}
	}
	return 0
}

func runText(para *docx.Paragraph) string {
	var sb strings.Builder
	for _, child := range para.Children {
		if run, ok := child.(*docx.Run); ok {
			for _, rc := range run.Children {
				if t, ok := rc.(*docx.Text); ok {
					sb.WriteString(t.Text)
				}
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func tableRowText(row *docx.WTableRow) string {
	cells := make([]string, 0, len(row.TableCells))
	for _, cell := range row.TableCells {
		var parts []string
		for _, para := range cell.Paragraphs {
			if t := runText(para); t != "" {
				parts = append(parts, t)
			}
		}
		cells = append(cells, strings.Join(parts, " "))
	}
	return strings.Join(cells, " | ")
}
