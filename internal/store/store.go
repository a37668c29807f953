// Package store defines the document persistence contract consumed by the
// ingestion pipeline.  The store is a generic collection/document API; the
// pipeline never talks to a concrete database directly.
package store

import (
	"context"
)

// Collection names used by the pipeline.  Tier-3 satellite collections are
// written opportunistically when extraction yields the matching payload.
const (
	CollectionNotes         = "notes"
	CollectionOffices       = "offices"
	CollectionProjects      = "projects"
	CollectionRegulations   = "regulations"
	CollectionWorkforce     = "workforce"
	CollectionRelationships = "relationships"

	CollectionClients            = "clients"
	CollectionTechnology         = "technology"
	CollectionFinancials         = "financials"
	CollectionSupplyChain        = "supply_chain"
	CollectionLandData           = "land_data"
	CollectionCityData           = "city_data"
	CollectionProjectData        = "project_data"
	CollectionCompanyStructure   = "company_structure"
	CollectionDivisionPercent    = "division_percentages"
	CollectionNewsArticles       = "news_articles"
	CollectionPoliticalContext   = "political_context"
)

// AnyVersion disables the conditional-update check in Update.
const AnyVersion = -1

// Document is a stored record: an id plus an opaque JSON-serializable body.
// Version supports optimistic concurrency; it starts at 1 on create and is
// incremented by every successful update.
type Document struct {
	ID      string                 `json:"id"`
	Body    map[string]interface{} `json:"body"`
	Version int                    `json:"version"`
}

// Filter restricts a Query.  Filters combine with AND semantics.
type Filter struct {
	// Field is a dot path into the document body, e.g. "location.city".
	Field string

	// Value must equal the document's field value.  String comparison is
	// exact unless Fold is set.
	Value interface{}

	// Fold requests case-insensitive comparison for string values.
	Fold bool
}

// Eq builds an exact-match filter.
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Value: value}
}

// EqFold builds a case-insensitive string match filter.
func EqFold(field string, value string) Filter {
	return Filter{Field: field, Value: value, Fold: true}
}

// DocumentStore is the persistence contract.  Every method returns an
// AppError with a STORE_* code on failure.
type DocumentStore interface {
	// Create inserts doc into collection.  Fails with
	// ErrCodeDocumentConflict if the id already exists.
	Create(ctx context.Context, collection string, doc Document) error

	// Get fetches a document by id, or ErrCodeDocumentNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Update replaces the body of an existing document.  When
	// expectedVersion is not AnyVersion the write succeeds only if the
	// stored version still equals expectedVersion, otherwise
	// ErrCodeDocumentConflict is returned and the caller re-reads and
	// retries.  On success the stored version is incremented.
	Update(ctx context.Context, collection, id string, body map[string]interface{}, expectedVersion int) (Document, error)

	// Query returns all documents in collection matching every filter.
	// An empty filter list returns the whole collection.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// Delete removes a document by id.  Missing documents are not an
	// error; the pipeline itself never deletes, this exists for admin
	// tooling and tests.
	Delete(ctx context.Context, collection, id string) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
