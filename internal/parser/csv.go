package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// rowsPerNode keeps one node small enough to land in a single chunk.
const rowsPerNode = 20

// CSVParser handles delimited tables. The first record is the header row;
// data rows are grouped rowsPerNode at a time, each cell labeled by its column
// so a retrieved chunk still reads on its own.
type CSVParser struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	if p.Comma != 0 {
		reader.Comma = p.Comma
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	var header []string
	batch := rowBatch{first: 2}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if header == nil {
			header = rec
			continue
		}
		batch.add(header, rec)
		if batch.n == rowsPerNode {
			tree.Children = append(tree.Children, batch.node(header))
			batch = rowBatch{first: batch.first + batch.n}
		}
	}
	if batch.n > 0 {
		tree.Children = append(tree.Children, batch.node(header))
	}
	return tree, nil
}

// rowBatch accumulates labeled rows. first is the 1-based file line of the
// batch's first row, counting the header as line 1.
type rowBatch struct {
	first int
	n     int
	body  strings.Builder
}

func (b *rowBatch) add(header, row []string) {
	cells := make([]string, len(row))
	for i, cell := range row {
		if i < len(header) && header[i] != "" {
			cells[i] = header[i] + ": " + cell
		} else {
			cells[i] = cell
		}
	}
	b.body.WriteString(strings.Join(cells, ", "))
	b.body.WriteByte('\n')
	b.n++
}

func (b *rowBatch) node(header []string) *doctree.DocNode {
	return &doctree.DocNode{
		Title: fmt.Sprintf("Rows %d-%d", b.first, b.first+b.n-1),
		Text:  "Headers: " + strings.Join(header, ", ") + "\n\n" + b.body.String(),
	}
}
