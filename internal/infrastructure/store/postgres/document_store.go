package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

const uniqueViolation = "23505"

// DocumentStore persists documents in the documents table, one row per
// document, body as JSONB.  Conditional updates use the version column.
type DocumentStore struct {
	db     *sql.DB
	logger logging.Logger
}

var _ store.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore builds a store over an established connection.
func NewDocumentStore(conn *Connection, log logging.Logger) *DocumentStore {
	return &DocumentStore{db: conn.DB(), logger: log.Named("store.postgres")}
}

func (s *DocumentStore) Create(ctx context.Context, collection string, doc store.Document) error {
	if doc.ID == "" {
		return errors.New(errors.ErrCodeStoreWriteFailed, "document id is required")
	}
	body, err := json.Marshal(doc.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document body")
	}
	version := doc.Version
	if version <= 0 {
		version = 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, version) VALUES ($1, $2, $3, $4)`,
		collection, doc.ID, body, version)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return errors.Newf(errors.ErrCodeDocumentConflict, "document %s/%s already exists", collection, doc.ID)
		}
		return errors.Wrap(err, errors.ErrCodeStoreWriteFailed,
			fmt.Sprintf("failed to insert document %s/%s", collection, doc.ID))
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var raw []byte
	doc := store.Document{ID: id}

	err := s.db.QueryRowContext(ctx,
		`SELECT body, version FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&raw, &doc.Version)
	if err == sql.ErrNoRows {
		return store.Document{}, errors.Newf(errors.ErrCodeDocumentNotFound, "document %s/%s not found", collection, id)
	}
	if err != nil {
		return store.Document{}, errors.Wrap(err, errors.ErrCodeStoreQueryFailed,
			fmt.Sprintf("failed to fetch document %s/%s", collection, id))
	}
	if err := json.Unmarshal(raw, &doc.Body); err != nil {
		return store.Document{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode document body")
	}
	return doc, nil
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, body map[string]interface{}, expectedVersion int) (store.Document, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return store.Document{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document body")
	}

	doc := store.Document{ID: id, Body: body}
	err = s.db.QueryRowContext(ctx,
		`UPDATE documents
		    SET body = $1, version = version + 1, updated_at = now()
		  WHERE collection = $2 AND id = $3 AND ($4 = -1 OR version = $4)
		  RETURNING version`,
		raw, collection, id, expectedVersion).Scan(&doc.Version)
	if err == sql.ErrNoRows {
		// Distinguish a missing row from a lost version race.
		var current int
		probe := s.db.QueryRowContext(ctx,
			`SELECT version FROM documents WHERE collection = $1 AND id = $2`,
			collection, id).Scan(&current)
		if probe == sql.ErrNoRows {
			return store.Document{}, errors.Newf(errors.ErrCodeDocumentNotFound, "document %s/%s not found", collection, id)
		}
		return store.Document{}, errors.Newf(errors.ErrCodeDocumentConflict,
			"document %s/%s is at version %d, expected %d", collection, id, current, expectedVersion)
	}
	if err != nil {
		return store.Document{}, errors.Wrap(err, errors.ErrCodeStoreWriteFailed,
			fmt.Sprintf("failed to update document %s/%s", collection, id))
	}
	return doc, nil
}

func (s *DocumentStore) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, body, version FROM documents WHERE collection = $1`)
	args := []interface{}{collection}

	for _, f := range filters {
		path := "{" + strings.ReplaceAll(f.Field, ".", ",") + "}"
		if str, ok := f.Value.(string); ok {
			args = append(args, path)
			field := fmt.Sprintf("body #>> $%d", len(args))
			args = append(args, str)
			if f.Fold {
				query.WriteString(fmt.Sprintf(" AND lower(%s) = lower($%d)", field, len(args)))
			} else {
				query.WriteString(fmt.Sprintf(" AND %s = $%d", field, len(args)))
			}
			continue
		}
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode filter value")
		}
		args = append(args, path)
		field := fmt.Sprintf("body #> $%d", len(args))
		args = append(args, raw)
		query.WriteString(fmt.Sprintf(" AND %s = $%d::jsonb", field, len(args)))
	}
	query.WriteString(` ORDER BY id`)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQueryFailed,
			fmt.Sprintf("failed to query collection %s", collection))
	}
	defer rows.Close()

	var out []store.Document
	for rows.Next() {
		var doc store.Document
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw, &doc.Version); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreQueryFailed, "failed to scan document row")
		}
		if err := json.Unmarshal(raw, &doc.Body); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode document body")
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQueryFailed,
			fmt.Sprintf("failed to iterate collection %s", collection))
	}
	return out, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWriteFailed,
			fmt.Sprintf("failed to delete document %s/%s", collection, id))
	}
	return nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "database ping failed")
	}
	return nil
}
