package main

import (
	"context"
	"time"

	"github.com/turtacn/ArchIntel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/pipeline"
)

const eventSource = "archintel-worker"

// noteHandler processes note.submitted events and fans the outcome back out
// onto the bus.  Event publishing is best effort: a failed publish is logged
// but never re-runs the pipeline.
type noteHandler struct {
	pipe     *pipeline.Pipeline
	producer *kafka.Producer
	logger   logging.Logger
}

func newNoteHandler(pipe *pipeline.Pipeline, producer *kafka.Producer, log logging.Logger) *noteHandler {
	return &noteHandler{pipe: pipe, producer: producer, logger: log.Named("handler")}
}

func (h *noteHandler) handle(ctx context.Context, env *kafka.EventEnvelope) error {
	var payload kafka.NoteSubmittedPayload
	if err := env.DecodePayload(&payload); err != nil {
		h.logger.Error("undecodable note.submitted event", logging.String("event_id", env.EventID), logging.Err(err))
		return err
	}

	res, err := h.pipe.ProcessNote(ctx, payload.Text)
	if err != nil {
		h.logger.Warn("note processing failed", logging.String("note_id", payload.NoteID), logging.Err(err))
	}
	h.publishOutcome(ctx, payload.NoteID, res, err)
	return nil
}

func (h *noteHandler) publishOutcome(ctx context.Context, noteID string, res *pipeline.Result, procErr error) {
	processed := kafka.NoteProcessedPayload{
		NoteID:      noteID,
		Failed:      procErr != nil,
		ProcessedAt: time.Now().UTC(),
	}
	if procErr != nil {
		processed.Reason = procErr.Error()
	}
	if res != nil {
		if res.NoteID != "" {
			processed.NoteID = res.NoteID
		}
		processed.Created = res.TotalCreated
		processed.Merged = len(res.EntitiesCreated.MergedOffices)
		processed.Relationships = len(res.Relationships)
	}
	h.publish(ctx, kafka.TopicNoteProcessed, processed.NoteID, processed)

	if res == nil {
		return
	}

	created := make([]pipeline.Resolved, 0,
		len(res.EntitiesCreated.Offices)+len(res.EntitiesCreated.Projects)+len(res.EntitiesCreated.Regulations))
	created = append(created, res.EntitiesCreated.Offices...)
	created = append(created, res.EntitiesCreated.Projects...)
	created = append(created, res.EntitiesCreated.Regulations...)
	for _, r := range created {
		h.publish(ctx, kafka.TopicEntityCreated, r.ID, kafka.EntityEventPayload{
			EntityID:   r.ID,
			EntityType: string(r.Kind),
			Name:       r.Name,
			NoteID:     processed.NoteID,
		})
	}
	for _, r := range res.EntitiesCreated.MergedOffices {
		h.publish(ctx, kafka.TopicEntityMerged, r.ID, kafka.EntityEventPayload{
			EntityID:      r.ID,
			EntityType:    string(r.Kind),
			Name:          r.Name,
			ChangedFields: r.ChangedFields,
			NoteID:        processed.NoteID,
		})
	}
	for _, rel := range res.Relationships {
		h.publish(ctx, kafka.TopicRelationshipCreated, rel.ID, kafka.RelationshipCreatedPayload{
			RelationshipID:   rel.ID,
			SourceType:       string(rel.SourceEntity.Type),
			SourceID:         rel.SourceEntity.ID,
			TargetType:       string(rel.TargetEntity.Type),
			TargetID:         rel.TargetEntity.ID,
			RelationshipType: string(rel.RelationshipType),
		})
	}
}

func (h *noteHandler) publish(ctx context.Context, topic, key string, payload interface{}) {
	env, err := kafka.NewEventEnvelope(topic, eventSource, payload)
	if err == nil {
		err = h.producer.Publish(ctx, topic, key, env)
	}
	if err != nil {
		h.logger.Warn("event publish failed", logging.String("topic", topic), logging.String("key", key), logging.Err(err))
	}
}
