package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docthemes/internal/doctree"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	ChunkSize    int // Target chunk size.
	ChunkOverlap int // Text carried from the end of one chunk into the next.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		MinChunk:     1,
	}
}

// section is a run of text sharing one heading path.
type section struct {
	breadcrumb []string
	pageStart  int
	pageEnd    int
	text       string
}

// ChunkTree walks a DocTree and produces structure-aware chunks. Consecutive
// untitled leaf nodes under the same heading are chunked together.
func ChunkTree(tree *doctree.DocTree, cfg Config) []doctree.Chunk {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 5
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = def.MinChunk
	}

	var sections []section
	collectSections(tree.Children, nil, &sections)

	var chunks []doctree.Chunk
	for _, s := range sections {
		for _, part := range splitText(s.text, cfg.ChunkSize, cfg.ChunkOverlap) {
			if runeLen(part) < cfg.MinChunk {
				continue
			}
			chunks = append(chunks, doctree.Chunk{
				Text:       part,
				Index:      len(chunks),
				Breadcrumb: copyBreadcrumb(s.breadcrumb),
				PageStart:  s.pageStart,
				PageEnd:    s.pageEnd,
			})
		}
	}
	return chunks
}

// collectSections flattens nodes into sections in document order.
func collectSections(nodes []*doctree.DocNode, breadcrumb []string, out *[]section) {
	var pending []string
	var pendingStart, pendingEnd int
	flush := func() {
		if len(pending) > 0 {
			*out = append(*out, section{
				breadcrumb: breadcrumb,
				pageStart:  pendingStart,
				pageEnd:    pendingEnd,
				text:       strings.Join(pending, "\n\n"),
			})
			pending = nil
		}
	}

	for _, node := range nodes {
		if node.Title == "" && len(node.Children) == 0 {
			if t := strings.TrimSpace(node.Text); t != "" {
				if len(pending) == 0 {
					pendingStart = node.Page
				}
				pendingEnd = node.Page
				pending = append(pending, t)
			}
			continue
		}
		flush()

		bc := copyBreadcrumb(breadcrumb)
		if node.Title != "" {
			bc = append(bc, node.Title)
		}
		if t := strings.TrimSpace(node.Text); t != "" {
			*out = append(*out, section{breadcrumb: bc, pageStart: node.Page, pageEnd: node.Page, text: t})
		}
		collectSections(node.Children, bc, out)
	}
	flush()
}

// piece is an indivisible span of text and the separator that joins it to
// the piece before it.
type piece struct {
	text   string
	joiner string
}

// levels are tried in order until every piece fits: paragraphs, lines,
// sentences, words.
var levels = []struct {
	split  func(string) []string
	joiner string
}{
	{splitByParagraphs, "\n\n"},
	{splitLines, "\n"},
	{splitSentences, " "},
	{strings.Fields, " "},
}

// splitText breaks text into chunks of at most size characters, repeating up
// to overlap characters of whole pieces from the end of each chunk at the
// start of the next.
func splitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= size {
		return []string{text}
	}
	return merge(pieces(text, size, 0), size, overlap)
}

// pieces splits text at the coarsest level that yields parts, recursing into
// parts still larger than size. Words longer than size are cut.
func pieces(text string, size, level int) []piece {
	if runeLen(text) <= size {
		return []piece{{text: text}}
	}
	if level == len(levels) {
		return hardSplit(text, size)
	}
	parts := levels[level].split(text)
	if len(parts) <= 1 {
		return pieces(text, size, level+1)
	}
	var out []piece
	for _, p := range parts {
		sub := pieces(p, size, level+1)
		sub[0].joiner = levels[level].joiner
		out = append(out, sub...)
	}
	return out
}

func hardSplit(text string, size int) []piece {
	var out []piece
	runes := []rune(text)
	for len(runes) > 0 {
		n := min(size, len(runes))
		out = append(out, piece{text: string(runes[:n])})
		runes = runes[n:]
	}
	return out
}

// merge packs pieces greedily into chunks of at most size characters.
func merge(ps []piece, size, overlap int) []string {
	var chunks []string
	var cur []piece

	for _, p := range ps {
		if len(cur) > 0 && joinedLen(cur)+runeLen(p.joiner)+runeLen(p.text) > size {
			chunks = append(chunks, join(cur))
			cur = tail(cur, overlap)
			for len(cur) > 0 && joinedLen(cur)+runeLen(p.joiner)+runeLen(p.text) > size {
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		chunks = append(chunks, join(cur))
	}
	return chunks
}

// tail returns the longest suffix of ps whose joined length fits in overlap.
func tail(ps []piece, overlap int) []piece {
	start := len(ps)
	for start > 0 && joinedLen(ps[start-1:]) <= overlap {
		start--
	}
	out := make([]piece, len(ps)-start)
	copy(out, ps[start:])
	return out
}

func joinedLen(ps []piece) int {
	n := 0
	for i, p := range ps {
		if i > 0 {
			n += runeLen(p.joiner)
		}
		n += runeLen(p.text)
	}
	return n
}

func join(ps []piece) string {
	var sb strings.Builder
	for i, p := range ps {
		if i > 0 {
			sb.WriteString(p.joiner)
		}
		sb.WriteString(p.text)
	}
	return sb.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func splitLines(text string) []string {
	var result []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
