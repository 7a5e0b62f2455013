package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"skillmatch/internal/common/database"
	"skillmatch/internal/common/errors"
)

const (
	schemaQuery = `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			doc_key    TEXT NOT NULL,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, doc_key)
		)`

	getQuery = `SELECT data FROM documents WHERE collection = $1 AND doc_key = $2`

	setQuery = `
		INSERT INTO documents (collection, doc_key, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, doc_key)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	updateQuery = `
		UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND doc_key = $2`
)

// PostgresStore keeps documents as JSONB rows keyed by (collection, key).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(client *database.PostgresClient) *PostgresStore {
	return &PostgresStore{db: client.DB}
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaQuery); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, getQuery, collection, key).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeFailure("get", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewMalformedResponseError(serviceName, err)
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, key string, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, setQuery, collection, key, raw); err != nil {
		return storeFailure("set", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	res, err := s.db.ExecContext(ctx, updateQuery, collection, key, raw)
	if err != nil {
		return storeFailure("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeFailure("update", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
