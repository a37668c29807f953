package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/turtacn/ArchIntel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/pipeline"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// NoteProcessor runs one note through the ingestion pipeline.
type NoteProcessor interface {
	ProcessNote(ctx context.Context, text string) (*pipeline.Result, error)
}

// NotePublisher queues a note for asynchronous processing.
type NotePublisher interface {
	Publish(ctx context.Context, topic, key string, env *kafka.EventEnvelope) error
}

// NotesHandler ingests notes and exposes their audit records.
type NotesHandler struct {
	processor NoteProcessor
	publisher NotePublisher
	store     store.DocumentStore
	logger    logging.Logger
}

// NewNotesHandler builds the notes handler.  publisher may be nil, in which
// case async submission is rejected.
func NewNotesHandler(processor NoteProcessor, publisher NotePublisher, st store.DocumentStore, log logging.Logger) *NotesHandler {
	return &NotesHandler{processor: processor, publisher: publisher, store: st, logger: log.Named("http.notes")}
}

// SubmitNoteRequest is the body of POST /api/v1/notes.
type SubmitNoteRequest struct {
	Text  string `json:"text"`
	Async bool   `json:"async,omitempty"`
}

// Submit handles POST /api/v1/notes.  Synchronous submissions run the
// pipeline inline and return the full resolution result; async ones are
// queued for the worker and acknowledged with 202.
func (h *NotesHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	if req.Async {
		h.submitAsync(w, r, req.Text)
		return
	}

	res, err := h.processor.ProcessNote(r.Context(), req.Text)
	if err != nil {
		if res != nil {
			// Extraction failures still carry a result with the reason.
			h.logger.Warn("note processing failed", logging.String("note_id", res.NoteID), logging.Err(err))
		}
		writeAppError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, res)
}

func (h *NotesHandler) submitAsync(w http.ResponseWriter, r *http.Request, text string) {
	if h.publisher == nil {
		writeAppError(w, errors.New(errors.ErrCodeNotImplemented, "async submission is not enabled"))
		return
	}
	if text == "" {
		writeAppError(w, errors.New(errors.ErrCodeNoteEmpty, "note text is empty"))
		return
	}

	noteID := uuid.New().String()
	env, err := kafka.NewEventEnvelope(kafka.TopicNoteSubmitted, "apiserver", kafka.NoteSubmittedPayload{
		NoteID:      noteID,
		Text:        text,
		SubmittedAt: time.Now().UTC(),
	})
	if err == nil {
		err = h.publisher.Publish(r.Context(), kafka.TopicNoteSubmitted, noteID, env)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, http.StatusAccepted, map[string]string{"noteId": noteID, "status": "queued"})
}

// Get handles GET /api/v1/notes/{noteID}: returns the audit record.
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "noteID")
	doc, err := h.store.Get(r.Context(), store.CollectionNotes, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, http.StatusOK, doc.Body)
}
