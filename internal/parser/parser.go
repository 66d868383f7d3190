// Package parser turns uploaded files into section trees.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tune parser selection.
type Options struct {
	// PdftotextFallback shells out to pdftotext when the Go PDF reader fails.
	PdftotextFallback bool
}

var byExtension = map[string]func(Options) Parser{
	".txt":      func(Options) Parser { return &TextParser{} },
	".md":       func(Options) Parser { return &MarkdownParser{} },
	".markdown": func(Options) Parser { return &MarkdownParser{} },
	".csv":      func(Options) Parser { return &CSVParser{} },
	".tsv":      func(Options) Parser { return &CSVParser{Comma: '\t'} },
	".html":     func(Options) Parser { return &HTMLParser{} },
	".htm":      func(Options) Parser { return &HTMLParser{} },
	".pdf":      func(o Options) Parser { return &PDFParser{FallbackPdftotext: o.PdftotextFallback} },
	".docx":     func(Options) Parser { return &DOCXParser{} },
}

// ForFile picks a parser by the filename's extension, ignoring case.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	newParser, ok := byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
	return newParser(opts), nil
}

// IsSupportedExtension reports whether ForFile accepts filename.
func IsSupportedExtension(filename string) bool {
	_, ok := byExtension[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extensions lists the accepted extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
