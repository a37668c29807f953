package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/infrastructure/store/memory"
	"github.com/turtacn/ArchIntel/internal/interfaces/http/handlers"
	"github.com/turtacn/ArchIntel/internal/pipeline"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

type fakeProcessor struct {
	fn func(ctx context.Context, text string) (*pipeline.Result, error)
}

func (f fakeProcessor) ProcessNote(ctx context.Context, text string) (*pipeline.Result, error) {
	return f.fn(ctx, text)
}

func newTestRouter(st store.DocumentStore, processor handlers.NoteProcessor) http.Handler {
	log := logging.NewNopLogger()
	return NewRouter(RouterConfig{
		NotesHandler:    handlers.NewNotesHandler(processor, nil, st, log),
		EntitiesHandler: handlers.NewEntitiesHandler(st, log),
		HealthHandler:   handlers.NewHealthHandler("test"),
		Logger:          log,
	})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestSubmitNoteReturnsResult(t *testing.T) {
	router := newTestRouter(memory.NewStore(), fakeProcessor{fn: func(_ context.Context, text string) (*pipeline.Result, error) {
		assert.Equal(t, "Foster + Partners is based in London.", text)
		return &pipeline.Result{Success: true, NoteID: "n-1", TotalCreated: 1, Summary: "Created 1 office(s)."}, nil
	}})

	body, _ := json.Marshal(map[string]string{"text": "Foster + Partners is based in London."})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notes", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope["success"])
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "n-1", data["noteId"])
	assert.EqualValues(t, 1, data["totalCreated"])
}

func TestSubmitNoteRejectsEmptyText(t *testing.T) {
	router := newTestRouter(memory.NewStore(), fakeProcessor{fn: func(context.Context, string) (*pipeline.Result, error) {
		return nil, errors.New(errors.ErrCodeNoteEmpty, "note text is empty")
	}})

	body, _ := json.Marshal(map[string]string{"text": ""})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notes", bytes.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope["success"])
	errObj := envelope["error"].(map[string]interface{})
	assert.Equal(t, string(errors.ErrCodeNoteEmpty), errObj["code"])
}

func TestSubmitNoteRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(memory.NewStore(), fakeProcessor{fn: func(context.Context, string) (*pipeline.Result, error) {
		t.Fatal("processor must not run on a malformed body")
		return nil, nil
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notes", bytes.NewReader([]byte("{not json"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOfficesFiltersByCity(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, st.Create(ctx, store.CollectionOffices, store.Document{ID: "UKLO123", Body: map[string]interface{}{
		"id": "UKLO123", "name": "Foster + Partners",
		"location": map[string]interface{}{"headquarters": map[string]interface{}{"city": "London", "country": "UK"}},
	}}))
	require.NoError(t, st.Create(ctx, store.CollectionOffices, store.Document{ID: "DKCO042", Body: map[string]interface{}{
		"id": "DKCO042", "name": "BIG",
		"location": map[string]interface{}{"headquarters": map[string]interface{}{"city": "Copenhagen", "country": "Denmark"}},
	}}))

	router := newTestRouter(st, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/offices?city=london", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Foster + Partners", data[0].(map[string]interface{})["name"])
}

func TestGetOfficeNotFound(t *testing.T) {
	router := newTestRouter(memory.NewStore(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/offices/NOPE999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetWorkforceForOffice(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()
	wfID := entity.WorkforceIDFor("UKLO123")
	require.NoError(t, st.Create(ctx, store.CollectionWorkforce, store.Document{ID: wfID, Body: map[string]interface{}{
		"id": wfID, "officeId": "UKLO123",
		"employees": []interface{}{map[string]interface{}{"name": "Ana"}},
	}}))

	router := newTestRouter(st, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/offices/UKLO123/workforce", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "UKLO123", data["officeId"])
}

func TestHealthProbes(t *testing.T) {
	router := newTestRouter(memory.NewStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListProjectsByName(t *testing.T) {
	st := memory.NewStore()
	require.NoError(t, st.Create(context.Background(), store.CollectionProjects, store.Document{ID: "UKLO900", Body: map[string]interface{}{
		"id": "UKLO900", "projectName": "Riverside Tower",
	}}))

	router := newTestRouter(st, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/projects?name=riverside+tower", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].([]interface{})
	require.Len(t, data, 1)
}
