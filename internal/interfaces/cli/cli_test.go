package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/infrastructure/store/memory"
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

func newDeps(st store.DocumentStore, processor NoteProcessor) Deps {
	return Deps{
		Processor: processor,
		Store:     st,
		Logger:    logging.NewNopLogger(),
		Version:   "test",
	}
}

func runCmd(deps Deps, stdin string, args ...string) (string, string, error) {
	root := NewRootCmd(deps)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestIngestFromStdin(t *testing.T) {
	var got string
	deps := newDeps(memory.NewStore(), fakeProcessor{fn: func(_ context.Context, text string) (*pipeline.Result, error) {
		got = text
		return &pipeline.Result{Success: true, Summary: "Created 1 office(s)."}, nil
	}})

	out, _, err := runCmd(deps, "Foster + Partners is based in London.\n", "ingest")
	require.NoError(t, err)
	assert.Equal(t, "Foster + Partners is based in London.", got)
	assert.Contains(t, out, "Created 1 office(s).")
}

func TestIngestRejectsEmptyStdin(t *testing.T) {
	deps := newDeps(memory.NewStore(), fakeProcessor{fn: func(context.Context, string) (*pipeline.Result, error) {
		t.Fatal("processor must not run for empty input")
		return nil, nil
	}})

	_, _, err := runCmd(deps, "  \n", "ingest")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoteEmpty))
}

func TestIngestJSONOutput(t *testing.T) {
	deps := newDeps(memory.NewStore(), fakeProcessor{fn: func(context.Context, string) (*pipeline.Result, error) {
		return &pipeline.Result{Success: true, NoteID: "n-1", Summary: "ok"}, nil
	}})

	out, _, err := runCmd(deps, "some note", "ingest", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"noteId": "n-1"`)
}

func TestEntitiesList(t *testing.T) {
	st := memory.NewStore()
	require.NoError(t, st.Create(context.Background(), store.CollectionOffices, store.Document{
		ID:   "UKLO123",
		Body: map[string]interface{}{"id": "UKLO123", "name": "Foster + Partners"},
	}))

	out, _, err := runCmd(newDeps(st, nil), "", "entities", "list", "--kind", "office")
	require.NoError(t, err)
	assert.Contains(t, out, "UKLO123")
	assert.Contains(t, out, "Foster + Partners")
	assert.Contains(t, out, "1 office(s)")
}

func TestEntitiesListRejectsUnknownKind(t *testing.T) {
	_, _, err := runCmd(newDeps(memory.NewStore(), nil), "", "entities", "list", "--kind", "molecule")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestEntitiesGet(t *testing.T) {
	st := memory.NewStore()
	require.NoError(t, st.Create(context.Background(), store.CollectionProjects, store.Document{
		ID:   "UKLO900",
		Body: map[string]interface{}{"id": "UKLO900", "projectName": "Riverside Tower"},
	}))

	out, _, err := runCmd(newDeps(st, nil), "", "entities", "get", "UKLO900", "--kind", "project")
	require.NoError(t, err)
	assert.Contains(t, out, "Riverside Tower")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCmd(newDeps(memory.NewStore(), nil), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "archintel test")
}
