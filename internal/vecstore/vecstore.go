// Package vecstore keeps document chunks and their embeddings in a pgvector
// table, one table per collection.
package vecstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/aws-samples/rag-with-amazon-bedrock-and-pgvector/internal/embed"
)

// Querier is the pgx surface the store needs (helpful for testing)
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Document is one stored chunk.
type Document struct {
	ID      int64
	Source  string
	Content string
}

// Store is a pgvector-backed document collection.
type Store struct {
	db    Querier
	table string
	log   *logrus.Logger
}

// New returns a Store over the named collection.
func New(db Querier, collection string, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{db: db, table: collection, log: log}
}

func (s *Store) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// EnsureCollection creates the vector extension, the collection table and its
// index if they do not exist yet.
func (s *Store) EnsureCollection(ctx context.Context) error {

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %v (id bigserial PRIMARY KEY, source text, content text, embedding vector(%v))",
			s.ident(), embed.Dimension),
		fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %v ON %v USING ivfflat (embedding)",
			pgx.Identifier{s.table + "_embedding_idx"}.Sanitize(), s.ident()),
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare collection %v: %v", s.table, err)
		}
	}
	return nil
}

// AddDocuments stores one chunk per vector, in input order.
func (s *Store) AddDocuments(ctx context.Context, docs []Document, vectors [][]float32) error {

	if len(docs) != len(vectors) {
		return fmt.Errorf("expected %v vectors, got %v", len(docs), len(vectors))
	}

	sql := fmt.Sprintf("INSERT INTO %v (source, content, embedding) VALUES ($1, $2, $3)", s.ident())
	for i, doc := range docs {
		if _, err := s.db.Exec(ctx, sql, doc.Source, doc.Content, pgvector.NewVector(vectors[i])); err != nil {
			return fmt.Errorf("failed to add document to %v: %v", s.table, err)
		}
	}
	s.log.Infof("added %v documents to %v", len(docs), s.table)
	return nil
}

// Search returns the k chunks nearest to the given vector.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]Document, error) {

	sql := fmt.Sprintf("SELECT id, source, content FROM %v ORDER BY embedding <=> $1 LIMIT $2", s.ident())
	rows, err := s.db.Query(ctx, sql, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query %v: %v", s.table, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Source, &d.Content); err != nil {
			return nil, fmt.Errorf("failed to scan document: %v", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %v", err)
	}
	return docs, nil
}
