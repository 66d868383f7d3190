package chunkstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps chunks in a table with a generated tsvector column and
// ranks them with Postgres full-text search.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects to url and verifies the connection.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// InitSchema creates the chunks table. Safe to run repeatedly.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

const upsertChunk = `
	INSERT INTO chunks (id, document_id, filename, location, position, content)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		filename = EXCLUDED.filename,
		location = EXCLUDED.location,
		position = EXCLUDED.position,
		content = EXCLUDED.content
`

// Add writes all chunks in one transaction.
func (s *PostgresStore) Add(ctx context.Context, chunks []Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	ids := make([]string, len(chunks))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertChunk)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		ids[i] = c.ID
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Filename, c.Location, c.Index, c.Text); err != nil {
			return nil, fmt.Errorf("insert chunk %d of %s: %w", c.Index, c.DocumentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

const searchChunks = `
	SELECT id, document_id, filename, location, position, content, ts_rank(content_tsv, q) AS score
	FROM chunks, plainto_tsquery('english', $1) AS q
	WHERE content_tsv @@ q
	ORDER BY score DESC, created_at ASC, position ASC
	LIMIT $2
`

func (s *PostgresStore) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, searchChunks, query, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Chunk.ID, &r.Chunk.DocumentID, &r.Chunk.Filename, &r.Chunk.Location,
			&r.Chunk.Index, &r.Chunk.Text, &r.Score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return results, nil
}

const listDocuments = `
	SELECT document_id, MIN(filename), COUNT(*)
	FROM chunks
	GROUP BY document_id
	ORDER BY MIN(created_at) ASC, document_id ASC
`

func (s *PostgresStore) Documents(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, listDocuments)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.DocumentID, &d.Filename, &d.Chunks); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete document %s: %w", documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return int(n), nil
}
