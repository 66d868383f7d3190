package chunkstore

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

type memChunk struct {
	Chunk
	tokens map[string]struct{}
}

// MemoryStore ranks chunks by token overlap with the query. Chunks sharing no
// token with the query are never returned.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []memChunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(ctx context.Context, chunks []Chunk) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]string, len(chunks))
	added := make([]memChunk, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		ids[i] = c.ID
		added[i] = memChunk{Chunk: c, tokens: tokenSet(c.Text)}
	}

	s.mu.Lock()
	s.chunks = append(s.chunks, added...)
	s.mu.Unlock()
	return ids, nil
}

func (s *MemoryStore) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	qset := tokenSet(query)
	if len(qset) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	var hits []Result
	for _, c := range s.chunks {
		if score := ochiai(qset, c.tokens); score > 0 {
			hits = append(hits, Result{Chunk: c.Chunk, Score: score})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *MemoryStore) Documents(ctx context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	index := make(map[string]int)
	for _, c := range s.chunks {
		i, ok := index[c.DocumentID]
		if !ok {
			i = len(docs)
			index[c.DocumentID] = i
			docs = append(docs, Document{DocumentID: c.DocumentID, Filename: c.Filename})
		}
		docs[i].Chunks++
	}
	return docs, nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	clear(s.chunks[len(kept):])
	s.chunks = kept
	if removed == 0 {
		return 0, ErrNotFound
	}
	return removed, nil
}

func tokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai is |A∩B| / sqrt(|A||B|).
func ochiai(q, doc map[string]struct{}) float64 {
	if len(q) == 0 || len(doc) == 0 {
		return 0
	}
	inter := 0
	for t := range q {
		if _, ok := doc[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(q))*float64(len(doc)))
}
