package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// errNoTextLayer marks a PDF whose pages yield no text, typically a scan.
var errNoTextLayer = errors.New("no text layer")

const pdftotextTimeout = 60 * time.Second

// PDFParser turns each PDF page into a "Page N" node. Text comes from the
// in-process reader; with FallbackPdftotext set, files the reader cannot
// handle are retried through the pdftotext binary.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	text, err := readPDFPages(data)
	if err != nil && p.FallbackPdftotext {
		text, err = runPdftotext(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	for i, page := range splitPages(text) {
		// Layout mode pads lines; paragraphs() drops the padding and blank runs.
		body := strings.Join(paragraphs(page), "\n\n")
		if body == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Page %d", i+1),
			Text:  body,
			Page:  i + 1,
		})
	}
	return tree, nil
}

// readPDFPages returns the document text with pages joined by form feeds.
func readPDFPages(data []byte) (text string, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader: %v", rec)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, reader.NumPage())
	found := false
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		s, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		pages[i] = s
		found = found || strings.TrimSpace(s) != ""
	}
	if !found {
		return "", errNoTextLayer
	}
	return strings.Join(pages, "\f"), nil
}

// runPdftotext needs a real file, so the bytes are spooled to a temp file first.
func runPdftotext(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "docthemes-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", fmt.Errorf("write temp file: %w", werr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pdftotextTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
