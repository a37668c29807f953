package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// RelationshipInferencer links entities of different kinds that a note
// resolved into the same batch, when they share a city or a country.  A
// single record covers both directions.
type RelationshipInferencer struct {
	store  store.DocumentStore
	logger logging.Logger
}

// NewRelationshipInferencer builds the relationship stage.
func NewRelationshipInferencer(st store.DocumentStore, log logging.Logger) *RelationshipInferencer {
	return &RelationshipInferencer{store: st, logger: log.Named("pipeline.relationship")}
}

// Infer proposes relationships between every cross-kind pair in the batch.
// Only persisted entities participate; local fallback entities have no
// stored identity to link against.
func (r *RelationshipInferencer) Infer(ctx context.Context, batch []Resolved) []entity.Relationship {
	var created []entity.Relationship
	for i := 0; i < len(batch); i++ {
		for j := i + 1; j < len(batch); j++ {
			a, b := batch[i], batch[j]
			if a.Kind == b.Kind {
				continue
			}
			if a.Persistence != entity.Persisted || b.Persistence != entity.Persisted {
				continue
			}
			relType, ok := sharedLocation(a.Location, b.Location)
			if !ok {
				continue
			}

			rel, err := r.create(ctx, a, b, relType)
			if err != nil {
				r.logger.Warn("failed to persist relationship",
					logging.String("source", a.ID),
					logging.String("target", b.ID),
					logging.Err(err),
				)
				continue
			}
			if rel != nil {
				created = append(created, *rel)
				r.bumpConnectionCounts(ctx, a, b)
			}
		}
	}
	return created
}

// sharedLocation labels the link precision: a shared city beats a shared
// country, either alone is sufficient.
func sharedLocation(a, b entity.GeoPoint) (entity.RelationshipType, bool) {
	if a.SameCity(b) {
		return entity.RelationshipSameCity, true
	}
	if a.SameCountry(b) {
		return entity.RelationshipSameCountry, true
	}
	return "", false
}

func (r *RelationshipInferencer) create(ctx context.Context, a, b Resolved, relType entity.RelationshipType) (*entity.Relationship, error) {
	exists, err := r.exists(ctx, a.ID, b.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	rel := &entity.Relationship{
		ID:               "REL-" + uuid.New().String(),
		SourceEntity:     entity.EntityRef{Type: a.Kind, ID: a.ID},
		TargetEntity:     entity.EntityRef{Type: b.Kind, ID: b.ID},
		RelationshipType: relType,
		CreatedAt:        time.Now().UTC(),
	}
	body, err := entity.Body(rel)
	if err != nil {
		return nil, err
	}
	if err := r.store.Create(ctx, store.CollectionRelationships, store.Document{ID: rel.ID, Body: body}); err != nil {
		return nil, err
	}
	r.logger.Info("relationship inferred",
		logging.String("source", a.ID),
		logging.String("target", b.ID),
		logging.String("type", string(relType)),
	)
	return rel, nil
}

// exists checks both directions for an existing link between the pair.
func (r *RelationshipInferencer) exists(ctx context.Context, aID, bID string) (bool, error) {
	forward, err := r.store.Query(ctx, store.CollectionRelationships,
		store.Eq("sourceEntity.id", aID), store.Eq("targetEntity.id", bID))
	if err != nil {
		return false, err
	}
	if len(forward) > 0 {
		return true, nil
	}
	backward, err := r.store.Query(ctx, store.CollectionRelationships,
		store.Eq("sourceEntity.id", bID), store.Eq("targetEntity.id", aID))
	if err != nil {
		return false, err
	}
	return len(backward) > 0, nil
}

// bumpConnectionCounts increments the office-side project counter for
// office/project pairs.  Best effort; a lost race is dropped.
func (r *RelationshipInferencer) bumpConnectionCounts(ctx context.Context, a, b Resolved) {
	office, other := a, b
	if office.Kind != entity.KindOffice {
		office, other = b, a
	}
	if office.Kind != entity.KindOffice || other.Kind != entity.KindProject {
		return
	}

	doc, err := r.store.Get(ctx, store.CollectionOffices, office.ID)
	if err != nil {
		return
	}
	counts, _ := doc.Body["connectionCounts"].(map[string]interface{})
	if counts == nil {
		counts = make(map[string]interface{})
	}
	total, _ := asFloat(counts["totalProjects"])
	counts["totalProjects"] = int(total) + 1
	doc.Body["connectionCounts"] = counts

	if _, err := r.store.Update(ctx, store.CollectionOffices, office.ID, doc.Body, doc.Version); err != nil && !errors.IsConflict(err) {
		r.logger.Debug("connection count update failed", logging.String("office", office.ID), logging.Err(err))
	}
}
