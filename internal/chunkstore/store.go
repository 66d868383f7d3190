// Package chunkstore persists document chunks and ranks them against queries.
package chunkstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document has no chunks.
var ErrNotFound = errors.New("document not found")

// Chunk is one retrievable passage of a document. Location is a human-readable
// position such as "Page 3" or "Intro > Scope".
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Location   string `json:"location,omitempty"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
}

// Result is a search hit. Higher scores are more relevant.
type Result struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Document summarizes one stored document.
type Document struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
}

// Store is safe for concurrent use.
type Store interface {
	// Add stores chunks, assigning ids to those without one, and returns the
	// ids in input order.
	Add(ctx context.Context, chunks []Chunk) ([]string, error)
	// Search returns at most k chunks in decreasing relevance.
	Search(ctx context.Context, query string, k int) ([]Result, error)
	// Documents lists stored documents in first-ingested order.
	Documents(ctx context.Context) ([]Document, error)
	// DeleteDocument removes a document's chunks and returns how many were removed.
	DeleteDocument(ctx context.Context, documentID string) (int, error)
}
