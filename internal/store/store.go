// Package store implements the document store: SQLite persistence plus the
// keyword and vector indexes that serve chunk-level search.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/embedding"
	"github.com/hyperjump/shirabe/internal/keyword"
	"github.com/hyperjump/shirabe/internal/models"
	"github.com/hyperjump/shirabe/internal/vector"
)

// Options configures a DocumentStore.
type Options struct {
	DatabasePath     string
	KeywordIndexPath string
	VectorIndexPath  string
	Embedder         embedding.Embedder
	ChunkSize        int
	ChunkOverlap     int
	Logger           *zap.Logger
}

// DocumentStore persists documents in SQLite and keeps their chunks indexed
// for keyword and vector search.
type DocumentStore struct {
	db              *sql.DB
	keyword         *keyword.ChunkIndex
	vectors         vector.Index
	embedder        embedding.Embedder
	chunker         *Chunker
	vectorIndexPath string
	logger          *zap.Logger
}

// New opens or creates the store. Parent directories are created as needed,
// and a previously saved vector index is loaded if present.
func New(opts Options) (*DocumentStore, error) {
	if opts.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if dir := filepath.Dir(opts.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", opts.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	kw, err := keyword.NewChunkIndex(opts.KeywordIndexPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	vec, err := vector.NewMemoryIndex(opts.Embedder.Dimensions())
	if err != nil {
		_ = db.Close()
		_ = kw.Close()
		return nil, err
	}
	if err := vec.Load(opts.VectorIndexPath); err != nil {
		opts.Logger.Warn("could not load vector index, starting empty",
			zap.String("path", opts.VectorIndexPath), zap.Error(err))
	}

	return &DocumentStore{
		db:              db,
		keyword:         kw,
		vectors:         vec,
		embedder:        opts.Embedder,
		chunker:         NewChunker(opts.ChunkSize, opts.ChunkOverlap),
		vectorIndexPath: opts.VectorIndexPath,
		logger:          opts.Logger,
	}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT,
		source TEXT,
		content TEXT NOT NULL,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS document_chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		content TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON document_chunks(document_id);
	`
	_, err := db.Exec(schema)
	return err
}

// IndexDocument stores a document and indexes its chunks in both the keyword
// and vector indexes. An existing document with the same ID is replaced,
// chunks included.
func (s *DocumentStore) IndexDocument(ctx context.Context, input models.DocumentInput) (*models.Document, error) {
	doc := &models.Document{
		ID:       input.ID,
		Title:    input.Title,
		Source:   input.Source,
		Content:  input.Content,
		Metadata: input.Metadata,
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]interface{}{}
	}

	// Replace semantics: drop any chunks a previous version left behind.
	if err := s.removeDocumentChunks(ctx, doc.ID); err != nil {
		return nil, err
	}

	chunks := s.chunker.Chunk(doc.ID, doc.Content)
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, source, content, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 title = excluded.title, source = excluded.source, content = excluded.content,
		 metadata = excluded.metadata, updated_at = excluded.updated_at`,
		doc.ID, doc.Title, doc.Source, doc.Content, string(metadataJSON), doc.CreatedAt, doc.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO document_chunks (id, document_id, content, chunk_index, created_at)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	for _, chunk := range chunks {
		chunk.CreatedAt = now
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content, chunk.ChunkIndex, chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("store chunk: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for i, chunk := range chunks {
		if err := s.keyword.Index(ctx, chunk.ID, chunk.Content, doc.Title); err != nil {
			return nil, err
		}
		if err := s.vectors.Upsert(ctx, chunk.ID, embeddings[i]); err != nil {
			return nil, err
		}
	}

	s.logger.Info("indexed document",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)))
	return doc, nil
}

// GetDocument returns a document by ID.
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	var metadataJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, source, content, metadata, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Title, &doc.Source, &doc.Content, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &doc, nil
}

// ListDocuments returns documents newest first.
func (s *DocumentStore) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, source, content, metadata, created_at, updated_at
		 FROM documents ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		var metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Source, &doc.Content, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		if metadataJSON != "" {
			_ = json.Unmarshal([]byte(metadataJSON), &doc.Metadata)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document, its chunks, and their index entries.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	if err := s.removeDocumentChunks(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

// removeDocumentChunks deletes a document's chunks from SQLite and both
// indexes. No-op when the document has no chunks.
func (s *DocumentStore) removeDocumentChunks(ctx context.Context, docID string) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM document_chunks WHERE document_id = ?`, docID)
	if err != nil {
		return err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM document_chunks WHERE document_id = ?`, docID); err != nil {
		return err
	}
	if err := s.keyword.Delete(ctx, ids); err != nil {
		return err
	}
	return s.vectors.Delete(ctx, ids)
}

// Stats returns document and chunk counts.
func (s *DocumentStore) Stats(ctx context.Context) (documents, chunks int64, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&documents); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&chunks); err != nil {
		return 0, 0, err
	}
	return documents, chunks, nil
}

// Ping reports database connectivity.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save persists the vector index to its configured path.
func (s *DocumentStore) Save() error {
	return s.vectors.Save(s.vectorIndexPath)
}

// Close flushes the vector index and releases all resources.
func (s *DocumentStore) Close() error {
	if err := s.vectors.Save(s.vectorIndexPath); err != nil {
		s.logger.Warn("could not save vector index", zap.Error(err))
	}
	if err := s.keyword.Close(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}
