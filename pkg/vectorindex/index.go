// Package vectorindex stores overlapping text chunks with embeddings in PostgreSQL
// via pgvector, grouped into named collections.
package vectorindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
)

// Metadata travels with every chunk and links it back to its document.
type Metadata struct {
	Source         string     `json:"source"`
	DocID          uuid.UUID  `json:"doc_id"`
	DocumentType   string     `json:"document_type"`
	ParentID       *uuid.UUID `json:"parent_id"`
	HierarchyLevel int        `json:"hierarchy_level"`
	Subjects       []string   `json:"subjects"`
	StartIndex     int        `json:"start_index"`
}

// Match is a chunk returned by similarity search.
type Match struct {
	Collection string   `json:"collection"`
	Content    string   `json:"content"`
	Metadata   Metadata `json:"metadata"`
	Distance   float64  `json:"distance"`
}

// System indexes, removes, and searches document chunks.
type System interface {
	// IndexChunks splits text, embeds each chunk, and replaces any chunks
	// previously stored for meta.DocID in the collection. Returns the chunk count.
	IndexChunks(ctx context.Context, collection, text string, meta Metadata) (int, error)
	// DeleteFromIndex removes every chunk of docID from the collection.
	DeleteFromIndex(ctx context.Context, collection string, docID uuid.UUID) (int64, error)
	// Search returns the k chunks in the collection nearest to query by cosine distance.
	Search(ctx context.Context, collection, query string, k int) ([]Match, error)
}

type index struct {
	pool        *pgxpool.Pool
	embedder    Embedder
	chunkSize   int
	overlap     int
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// New creates a vector index backed by pool.
func New(cfg *Config, pool *pgxpool.Pool, embedder Embedder, logger *slog.Logger) System {
	return &index{
		pool:        pool,
		embedder:    embedder,
		chunkSize:   cfg.ChunkSize,
		overlap:     cfg.ChunkOverlap,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		logger:      logger.With("system", "vectorindex"),
	}
}

const (
	deleteChunksSQL = `DELETE FROM document_chunks WHERE collection = $1 AND doc_id = $2`

	insertChunkSQL = `
		INSERT INTO document_chunks (collection, doc_id, chunk_index, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`

	searchSQL = `
		SELECT collection, content, metadata, embedding <=> $2 AS distance
		FROM document_chunks
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3`
)

func (ix *index) IndexChunks(ctx context.Context, collection, text string, meta Metadata) (int, error) {
	chunks := Split(text, ix.chunkSize, ix.overlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedAll(ctx, ix.embedder, texts, ix.batchSize, ix.concurrency)
	if err != nil {
		return 0, fmt.Errorf("%w: embed %s: %v", ErrIndex, meta.DocID, err)
	}

	err = pgx.BeginFunc(ctx, ix.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteChunksSQL, collection, meta.DocID); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, c := range chunks {
			m := meta
			m.StartIndex = c.Start
			batch.Queue(insertChunkSQL, collection, meta.DocID, i, c.Text, m, vectors[i])
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("%w: store chunks for %s: %v", ErrIndex, meta.DocID, err)
	}

	ix.logger.Info("document indexed",
		"collection", collection,
		"doc_id", meta.DocID,
		"chunks", len(chunks),
	)
	return len(chunks), nil
}

func (ix *index) DeleteFromIndex(ctx context.Context, collection string, docID uuid.UUID) (int64, error) {
	tag, err := ix.pool.Exec(ctx, deleteChunksSQL, collection, docID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete chunks for %s: %v", ErrIndex, docID, err)
	}
	return tag.RowsAffected(), nil
}

func (ix *index) Search(ctx context.Context, collection, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = 5
	}

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrIndex, err)
	}

	rows, err := ix.pool.Query(ctx, searchSQL, collection, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", ErrIndex, collection, err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Match, error) {
		var m Match
		err := row.Scan(&m.Collection, &m.Content, &m.Metadata, &m.Distance)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan matches: %v", ErrIndex, err)
	}
	return matches, nil
}

// embedAll embeds texts in batches of batchSize with at most concurrency
// requests in flight, preserving input order.
func embedAll(ctx context.Context, e Embedder, texts []string, batchSize, concurrency int) ([]pgvector.Vector, error) {
	out := make([]pgvector.Vector, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			vectors, err := e.Embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vectors) != end-start {
				return fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), end-start)
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
