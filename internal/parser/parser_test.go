package parser

import "testing"

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.txt", "*parser.TextParser"},
		{"A.MD", "*parser.MarkdownParser"},
		{"b.markdown", "*parser.MarkdownParser"},
		{"c.csv", "*parser.CSVParser"},
		{"c.tsv", "*parser.CSVParser"},
		{"d.htm", "*parser.HTMLParser"},
		{"e.pdf", "*parser.PDFParser"},
		{"f.docx", "*parser.DOCXParser"},
	}
	for _, tc := range tests {
		p, err := ForFile(tc.filename, Options{})
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.filename, err)
			continue
		}
		if got := typeName(p); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.filename, tc.want, got)
		}
		if !IsSupportedExtension(tc.filename) {
			t.Errorf("%s: expected supported extension", tc.filename)
		}
	}

	if _, err := ForFile("image.png", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("image.png") {
		t.Error("expected .png to be unsupported")
	}
}

func TestForFile_PDFFallbackOption(t *testing.T) {
	p, err := ForFile("scan.pdf", Options{PdftotextFallback: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.(*PDFParser).FallbackPdftotext {
		t.Error("expected pdftotext fallback to be enabled")
	}
}

func TestTitleFromFilename(t *testing.T) {
	for in, want := range map[string]string{
		"report.pdf":       "report",
		"dir/sub/notes.md": "notes",
		"archive.tar.gz":   "archive.tar",
		"noext":            "noext",
	} {
		if got := titleFromFilename(in); got != want {
			t.Errorf("titleFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *TextParser:
		return "*parser.TextParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *CSVParser:
		return "*parser.CSVParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	}
	return "unknown"
}

func TestExtensions(t *testing.T) {
	exts := Extensions()
	if len(exts) != 9 || exts[0] != ".csv" || exts[len(exts)-1] != ".txt" {
		t.Errorf("unexpected extensions %v", exts)
	}
}
