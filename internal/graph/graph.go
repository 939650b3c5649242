// Package graph implements the knowledge-graph store: temporal
// entity-relationship facts persisted in SQLite.
package graph

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/backends"
	"github.com/hyperjump/shirabe/internal/models"
)

// Store persists graph facts and serves fact search for the orchestrator.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens or creates the fact database at dbPath.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create graph directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open graph database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS facts (
		uuid TEXT PRIMARY KEY,
		fact TEXT NOT NULL,
		subject TEXT,
		predicate TEXT,
		object TEXT,
		valid_at TIMESTAMP NOT NULL,
		invalid_at TIMESTAMP,
		source_node_uuid TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_facts_subject ON facts(subject);
	CREATE INDEX IF NOT EXISTS idx_facts_valid_at ON facts(valid_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize graph schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// AddFact stores a fact. A missing ValidAt defaults to now.
func (s *Store) AddFact(ctx context.Context, input models.FactInput) (*models.GraphFact, error) {
	if strings.TrimSpace(input.Fact) == "" {
		return nil, fmt.Errorf("fact text is required")
	}
	fact := &models.GraphFact{
		UUID:           uuid.New().String(),
		Fact:           input.Fact,
		Subject:        input.Subject,
		Predicate:      input.Predicate,
		Object:         input.Object,
		InvalidAt:      input.InvalidAt,
		SourceNodeUUID: input.SourceNodeUUID,
	}
	if input.ValidAt != nil {
		fact.ValidAt = *input.ValidAt
	} else {
		fact.ValidAt = time.Now()
	}
	if fact.SourceNodeUUID == "" {
		fact.SourceNodeUUID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (uuid, fact, subject, predicate, object, valid_at, invalid_at, source_node_uuid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fact.UUID, fact.Fact, fact.Subject, fact.Predicate, fact.Object,
		fact.ValidAt, nullableTime(fact.InvalidAt), fact.SourceNodeUUID)
	if err != nil {
		return nil, fmt.Errorf("store fact: %w", err)
	}

	s.logger.Info("added graph fact",
		zap.String("uuid", fact.UUID),
		zap.String("subject", fact.Subject))
	return fact, nil
}

// GraphSearch returns facts whose text or entities match any query term,
// newest first. When includeTimeline is set, each hit carries a
// timeline_context field rendered from the validity window.
func (s *Store) GraphSearch(ctx context.Context, query string, includeTimeline bool) ([]backends.RawHit, error) {
	facts, err := s.searchFacts(ctx, query, 50)
	if err != nil {
		return nil, err
	}

	out := make([]backends.RawHit, 0, len(facts))
	for _, fact := range facts {
		hit := backends.RawHit{
			"fact":             fact.Fact,
			"uuid":             fact.UUID,
			"valid_at":         fact.ValidAt.Format(time.RFC3339),
			"source_node_uuid": fact.SourceNodeUUID,
		}
		if fact.InvalidAt != nil {
			hit["invalid_at"] = fact.InvalidAt.Format(time.RFC3339)
		}
		if includeTimeline {
			hit["timeline_context"] = timelineContext(fact)
		}
		out = append(out, hit)
	}
	return out, nil
}

// searchFacts matches each query term against the fact text and entity
// columns. Terms are OR-combined the way a term query would be.
func (s *Store) searchFacts(ctx context.Context, query string, limit int) ([]*models.GraphFact, error) {
	terms := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(terms) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []interface{}
	for _, term := range terms {
		clauses = append(clauses,
			`(LOWER(fact) LIKE ? OR LOWER(subject) LIKE ? OR LOWER(object) LIKE ?)`)
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern, pattern)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, fact, subject, predicate, object, valid_at, invalid_at, source_node_uuid
		 FROM facts WHERE `+strings.Join(clauses, " OR ")+`
		 ORDER BY valid_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// EntityFacts returns all facts mentioning the entity, newest first.
func (s *Store) EntityFacts(ctx context.Context, entity string) ([]*models.GraphFact, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(entity)) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, fact, subject, predicate, object, valid_at, invalid_at, source_node_uuid
		 FROM facts
		 WHERE LOWER(subject) LIKE ? OR LOWER(object) LIKE ? OR LOWER(fact) LIKE ?
		 ORDER BY valid_at DESC`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("entity facts: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// InvalidateFact closes a fact's validity window at the given time.
func (s *Store) InvalidateFact(ctx context.Context, factUUID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE facts SET invalid_at = ? WHERE uuid = ?`, at, factUUID)
	if err != nil {
		return fmt.Errorf("invalidate fact: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("fact not found: %s", factUUID)
	}
	return nil
}

// Count returns the number of stored facts.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts`).Scan(&count)
	return count, err
}

// Ping reports database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanFacts(rows *sql.Rows) ([]*models.GraphFact, error) {
	var facts []*models.GraphFact
	for rows.Next() {
		var fact models.GraphFact
		var invalidAt sql.NullTime
		if err := rows.Scan(&fact.UUID, &fact.Fact, &fact.Subject, &fact.Predicate,
			&fact.Object, &fact.ValidAt, &invalidAt, &fact.SourceNodeUUID); err != nil {
			return nil, err
		}
		if invalidAt.Valid {
			t := invalidAt.Time
			fact.InvalidAt = &t
		}
		facts = append(facts, &fact)
	}
	return facts, rows.Err()
}

func timelineContext(fact *models.GraphFact) string {
	valid := fact.ValidAt.Format("2006-01-02")
	if fact.InvalidAt != nil {
		return fmt.Sprintf("valid from %s until %s", valid, fact.InvalidAt.Format("2006-01-02"))
	}
	return fmt.Sprintf("valid since %s", valid)
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
