// Package memory provides an in-process DocumentStore used by tests and by
// the CLI when no database is configured.  Semantics mirror the postgres
// implementation, including conditional updates.
package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// Store keeps documents in nested maps guarded by a single mutex.  It is
// safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]store.Document
}

var _ store.DocumentStore = (*Store)(nil)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]store.Document)}
}

func (s *Store) Create(_ context.Context, collection string, doc store.Document) error {
	if doc.ID == "" {
		return errors.New(errors.ErrCodeStoreWriteFailed, "document id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]
	if coll == nil {
		coll = make(map[string]store.Document)
		s.collections[collection] = coll
	}
	if _, exists := coll[doc.ID]; exists {
		return errors.Newf(errors.ErrCodeDocumentConflict, "document %s/%s already exists", collection, doc.ID)
	}
	if doc.Version <= 0 {
		doc.Version = 1
	}
	doc.Body = cloneBody(doc.Body)
	coll[doc.ID] = doc
	return nil
}

func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return store.Document{}, errors.Newf(errors.ErrCodeDocumentNotFound, "document %s/%s not found", collection, id)
	}
	doc.Body = cloneBody(doc.Body)
	return doc, nil
}

func (s *Store) Update(_ context.Context, collection, id string, body map[string]interface{}, expectedVersion int) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[collection]
	doc, ok := coll[id]
	if !ok {
		return store.Document{}, errors.Newf(errors.ErrCodeDocumentNotFound, "document %s/%s not found", collection, id)
	}
	if expectedVersion != store.AnyVersion && doc.Version != expectedVersion {
		return store.Document{}, errors.Newf(errors.ErrCodeDocumentConflict,
			"document %s/%s is at version %d, expected %d", collection, id, doc.Version, expectedVersion)
	}
	doc.Body = cloneBody(body)
	doc.Version++
	coll[id] = doc

	doc.Body = cloneBody(doc.Body)
	return doc, nil
}

func (s *Store) Query(_ context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Document
	for _, doc := range s.collections[collection] {
		if !matchesAll(doc.Body, filters) {
			continue
		}
		doc.Body = cloneBody(doc.Body)
		out = append(out, doc)
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func matchesAll(body map[string]interface{}, filters []store.Filter) bool {
	for _, f := range filters {
		got, ok := lookupPath(body, f.Field)
		if !ok {
			return false
		}
		if !valuesEqual(got, f.Value, f.Fold) {
			return false
		}
	}
	return true
}

// lookupPath walks a dot path through nested maps.
func lookupPath(body map[string]interface{}, path string) (interface{}, bool) {
	cur := interface{}(body)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func valuesEqual(got, want interface{}, fold bool) bool {
	gs, gok := got.(string)
	ws, wok := want.(string)
	if gok && wok {
		if fold {
			return strings.EqualFold(gs, ws)
		}
		return gs == ws
	}
	// Numbers coming out of a JSON round trip are float64.
	return jsonNumber(got) == jsonNumber(want) && got != nil && want != nil
}

func jsonNumber(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return v
	}
}

// cloneBody deep-copies a body via JSON so callers never alias stored state.
func cloneBody(body map[string]interface{}) map[string]interface{} {
	if body == nil {
		return nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
