package pipeline

import (
	"strings"

	"github.com/dgallion1/docthemes/internal/chunkstore"
)

// docGroup is every retrieved chunk of one document, in retrieval order.
type docGroup struct {
	DocumentID string
	Filename   string
	texts      []string
}

func (g docGroup) text() string {
	return strings.Join(g.texts, "\n\n")
}

// groupChunks groups by document in first-seen order. The filename is the one
// on the document's first chunk.
func groupChunks(chunks []chunkstore.Result) []docGroup {
	var groups []docGroup
	index := make(map[string]int)
	for _, r := range chunks {
		i, ok := index[r.Chunk.DocumentID]
		if !ok {
			i = len(groups)
			index[r.Chunk.DocumentID] = i
			groups = append(groups, docGroup{DocumentID: r.Chunk.DocumentID, Filename: r.Chunk.Filename})
		}
		groups[i].texts = append(groups[i].texts, r.Chunk.Text)
	}
	return groups
}
