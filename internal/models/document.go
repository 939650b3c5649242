package models

import "time"

// Document is a stored document with metadata.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	Source    string                 `json:"source" db:"source"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// DocumentChunk is one indexed window of a document, the unit of retrieval
// for the document-store searches.
type DocumentChunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Content    string    `json:"content" db:"content"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Embedding  []float32 `json:"-" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DocumentInput is the plain-text ingestion payload for a document.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Source   string                 `json:"source,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// GraphFact is one entity-relationship fact with a validity window.
// InvalidAt is nil while the fact is still considered current.
type GraphFact struct {
	UUID           string     `json:"uuid" db:"uuid"`
	Fact           string     `json:"fact" db:"fact"`
	Subject        string     `json:"subject" db:"subject"`
	Predicate      string     `json:"predicate" db:"predicate"`
	Object         string     `json:"object" db:"object"`
	ValidAt        time.Time  `json:"valid_at" db:"valid_at"`
	InvalidAt      *time.Time `json:"invalid_at,omitempty" db:"invalid_at"`
	SourceNodeUUID string     `json:"source_node_uuid" db:"source_node_uuid"`
}

// FactInput is the ingestion payload for a graph fact.
type FactInput struct {
	Fact           string     `json:"fact"`
	Subject        string     `json:"subject,omitempty"`
	Predicate      string     `json:"predicate,omitempty"`
	Object         string     `json:"object,omitempty"`
	ValidAt        *time.Time `json:"valid_at,omitempty"`
	InvalidAt      *time.Time `json:"invalid_at,omitempty"`
	SourceNodeUUID string     `json:"source_node_uuid,omitempty"`
}
