package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ArchIntel/internal/config"
	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/infrastructure/store/memory"
	"github.com/turtacn/ArchIntel/internal/oracle"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

type fakeAnalyzer struct {
	fn func(ctx context.Context, text string) (*oracle.Analysis, error)
}

func (f fakeAnalyzer) AnalyzeText(ctx context.Context, text string) (*oracle.Analysis, error) {
	return f.fn(ctx, text)
}

type fakeTranslator struct {
	detect    func(ctx context.Context, text string) (bool, error)
	translate func(ctx context.Context, text string) (string, error)
}

func (f fakeTranslator) DetectEnglish(ctx context.Context, text string) (bool, error) {
	if f.detect == nil {
		return true, nil
	}
	return f.detect(ctx, text)
}

func (f fakeTranslator) Translate(ctx context.Context, text string) (string, error) {
	if f.translate == nil {
		return text, nil
	}
	return f.translate(ctx, text)
}

type fakeSearcher struct {
	fn func(ctx context.Context, name string) (*oracle.LocationResult, error)
}

func (f fakeSearcher) SearchOfficeLocation(ctx context.Context, name string) (*oracle.LocationResult, error) {
	if f.fn == nil {
		return &oracle.LocationResult{}, nil
	}
	return f.fn(ctx, name)
}

func newPipeline(st store.DocumentStore, analyze func(ctx context.Context, text string) (*oracle.Analysis, error)) *Pipeline {
	return New(st, fakeAnalyzer{fn: analyze}, fakeTranslator{}, fakeSearcher{}, config.PipelineConfig{}, nil, logging.NewNopLogger())
}

func officeFields(name, city, country string) map[string]interface{} {
	f := map[string]interface{}{"name": name}
	if city != "" || country != "" {
		f["location"] = map[string]interface{}{
			"headquarters": map[string]interface{}{"city": city, "country": country},
		}
	}
	return f
}

func officeAnalysis(offices ...map[string]interface{}) *oracle.Analysis {
	return &oracle.Analysis{
		Categorization: oracle.Categorization{Category: "office", Confidence: 0.9},
		Extraction:     oracle.Extraction{Offices: offices},
	}
}

func TestProcessNoteRejectsEmptyNote(t *testing.T) {
	p := newPipeline(memory.NewStore(), func(context.Context, string) (*oracle.Analysis, error) {
		t.Fatal("analyzer must not run for an empty note")
		return nil, nil
	})

	res, err := p.ProcessNote(context.Background(), "   \n ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoteEmpty))
	assert.Nil(t, res)
}

func TestProcessNoteFailsWholeNoteOnExtractionError(t *testing.T) {
	p := newPipeline(memory.NewStore(), func(context.Context, string) (*oracle.Analysis, error) {
		return nil, errors.New(errors.ErrCodeOracleUnavailable, "oracle down")
	})

	res, err := p.ProcessNote(context.Background(), "Foster + Partners opened a studio.")
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Summary, "extraction failed")
	assert.Zero(t, res.TotalCreated)
}

func TestProcessNoteCreatesOffice(t *testing.T) {
	st := memory.NewStore()
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		fields := officeFields("Foster + Partners", "London", "UK")
		fields["founded"] = 1967
		return officeAnalysis(fields), nil
	})

	res, err := p.ProcessNote(context.Background(), "Foster + Partners, founded 1967, is based in London, UK.")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.EntitiesCreated.Offices, 1)
	assert.Equal(t, 1, res.TotalCreated)

	office := res.EntitiesCreated.Offices[0]
	assert.Equal(t, entity.Persisted, office.Persistence)
	assert.True(t, strings.HasPrefix(office.ID, "UKLO"), "id %q should carry the UK/London prefix", office.ID)
	assert.Len(t, office.ID, 7)

	doc, err := st.Get(context.Background(), store.CollectionOffices, office.ID)
	require.NoError(t, err)
	assert.Equal(t, "Foster + Partners", doc.Body["name"])
	assert.NotEmpty(t, doc.Body["createdAt"])

	// The note itself is audited.
	notes, err := st.Query(context.Background(), store.CollectionNotes)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, true, notes[0].Body["success"])
}

func TestProcessNoteIsIdempotent(t *testing.T) {
	st := memory.NewStore()
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		return officeAnalysis(officeFields("Foster + Partners", "London", "UK")), nil
	})

	first, err := p.ProcessNote(context.Background(), "Foster + Partners is based in London, UK.")
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalCreated)

	second, err := p.ProcessNote(context.Background(), "Foster + Partners is based in London, UK.")
	require.NoError(t, err)
	assert.Zero(t, second.TotalCreated)
	require.Len(t, second.EntitiesCreated.MergedOffices, 1)
	assert.Empty(t, second.EntitiesCreated.MergedOffices[0].ChangedFields)

	offices, err := st.Query(context.Background(), store.CollectionOffices)
	require.NoError(t, err)
	assert.Len(t, offices, 1)
}

func TestProcessNoteMergesFollowUpNote(t *testing.T) {
	st := memory.NewStore()

	calls := 0
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		calls++
		if calls == 1 {
			fields := officeFields("Foster + Partners", "London", "UK")
			fields["founded"] = 1967
			fields["specializations"] = []interface{}{"sustainable design"}
			return officeAnalysis(fields), nil
		}
		return officeAnalysis(map[string]interface{}{
			"name":            "Foster and Partners",
			"location":        map[string]interface{}{"otherOffices": []interface{}{"Tokyo"}},
			"specializations": []interface{}{"sustainable design", "high-tech architecture"},
		}), nil
	})

	first, err := p.ProcessNote(context.Background(), "Foster + Partners, founded 1967, is based in London, UK.")
	require.NoError(t, err)
	require.Len(t, first.EntitiesCreated.Offices, 1)
	id := first.EntitiesCreated.Offices[0].ID

	second, err := p.ProcessNote(context.Background(), "Foster and Partners opened a branch office in Tokyo.")
	require.NoError(t, err)
	assert.Zero(t, second.TotalCreated)
	require.Len(t, second.EntitiesCreated.MergedOffices, 1)
	merged := second.EntitiesCreated.MergedOffices[0]
	assert.Equal(t, id, merged.ID)
	assert.Greater(t, merged.Similarity, 0.7)
	assert.Contains(t, merged.ChangedFields, "location.otherOffices")
	assert.Contains(t, merged.ChangedFields, "specializations")

	doc, err := st.Get(context.Background(), store.CollectionOffices, id)
	require.NoError(t, err)
	loc := doc.Body["location"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Tokyo"}, loc["otherOffices"])
	hq := loc["headquarters"].(map[string]interface{})
	assert.Equal(t, "London", hq["city"])
	// Merging grows the specialization set; nothing is ever dropped.
	specs := doc.Body["specializations"].([]interface{})
	assert.ElementsMatch(t, []interface{}{"sustainable design", "high-tech architecture"}, specs)
	assert.EqualValues(t, 1967, doc.Body["founded"])
}

func TestProcessNoteScopesSearchByKind(t *testing.T) {
	st := memory.NewStore()

	calls := 0
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		calls++
		if calls == 1 {
			return &oracle.Analysis{
				Categorization: oracle.Categorization{Category: "project"},
				Extraction: oracle.Extraction{Projects: []map[string]interface{}{
					{"projectName": "Riverside"},
				}},
			}, nil
		}
		return officeAnalysis(officeFields("Riverside", "Oslo", "Norway")), nil
	})

	_, err := p.ProcessNote(context.Background(), "The Riverside project broke ground.")
	require.NoError(t, err)

	res, err := p.ProcessNote(context.Background(), "Riverside is an architecture firm in Oslo, Norway.")
	require.NoError(t, err)

	// The office named like the project must not merge into it.
	require.Len(t, res.EntitiesCreated.Offices, 1)
	assert.Empty(t, res.EntitiesCreated.MergedOffices)

	offices, err := st.Query(context.Background(), store.CollectionOffices)
	require.NoError(t, err)
	projects, err := st.Query(context.Background(), store.CollectionProjects)
	require.NoError(t, err)
	assert.Len(t, offices, 1)
	assert.Len(t, projects, 1)
}

func TestProcessNoteDoesNotMergeDistinctFirms(t *testing.T) {
	st := memory.NewStore()

	calls := 0
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		calls++
		if calls == 1 {
			return officeAnalysis(officeFields("Foster + Partners", "London", "UK")), nil
		}
		return officeAnalysis(officeFields("Zaha Hadid Architects", "London", "UK")), nil
	})

	_, err := p.ProcessNote(context.Background(), "Foster + Partners is based in London, UK.")
	require.NoError(t, err)

	res, err := p.ProcessNote(context.Background(), "Zaha Hadid Architects is based in London, UK.")
	require.NoError(t, err)
	require.Len(t, res.EntitiesCreated.Offices, 1)

	offices, err := st.Query(context.Background(), store.CollectionOffices)
	require.NoError(t, err)
	assert.Len(t, offices, 2)
}

func TestProcessNoteSkipsOfficeWithoutHeadquarters(t *testing.T) {
	st := memory.NewStore()
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		return officeAnalysis(map[string]interface{}{"name": "Mystery Studio"}), nil
	})

	res, err := p.ProcessNote(context.Background(), "Mystery Studio won an award.")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.EntitiesCreated.Offices)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0], "Mystery Studio")

	offices, err := st.Query(context.Background(), store.CollectionOffices)
	require.NoError(t, err)
	assert.Empty(t, offices)
}

func TestProcessNoteEnrichesMissingHeadquarters(t *testing.T) {
	st := memory.NewStore()
	searcher := fakeSearcher{fn: func(_ context.Context, name string) (*oracle.LocationResult, error) {
		assert.Equal(t, "BIG", name)
		return &oracle.LocationResult{City: "Copenhagen", Country: "Denmark"}, nil
	}}
	analyze := func(context.Context, string) (*oracle.Analysis, error) {
		return officeAnalysis(map[string]interface{}{"name": "BIG"}), nil
	}
	p := New(st, fakeAnalyzer{fn: analyze}, fakeTranslator{}, searcher, config.PipelineConfig{}, nil, logging.NewNopLogger())

	res, err := p.ProcessNote(context.Background(), "BIG unveiled a spiral museum concept.")
	require.NoError(t, err)
	require.Len(t, res.EntitiesCreated.Offices, 1)
	office := res.EntitiesCreated.Offices[0]
	assert.Equal(t, "Copenhagen", office.Location.City)
	assert.True(t, strings.HasPrefix(office.ID, "DKCO"), "id %q should use the enriched location", office.ID)
}

func TestProcessNoteReconcilesWorkforce(t *testing.T) {
	st := memory.NewStore()

	employees := make([]entity.Employee, 0, 13)
	for i := 0; i < 12; i++ {
		employees = append(employees, entity.Employee{Name: fmt.Sprintf("Employee %02d", i)})
	}
	// Case-variant duplicate of an existing name must not grow the roster.
	employees = append(employees, entity.Employee{Name: "employee 00", Role: "partner"})

	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		a := officeAnalysis(officeFields("Snohetta", "Oslo", "Norway"))
		a.Extraction.Employees = employees
		return a, nil
	})

	res, err := p.ProcessNote(context.Background(), "Snohetta in Oslo, Norway employs a dozen people.")
	require.NoError(t, err)
	require.Len(t, res.EntitiesCreated.Workforce, 1)
	wf := res.EntitiesCreated.Workforce[0]
	assert.Equal(t, 12, wf.Total)
	assert.True(t, wf.Created)
	assert.Equal(t, 2, res.TotalCreated)

	officeID := res.EntitiesCreated.Offices[0].ID
	assert.Equal(t, entity.WorkforceIDFor(officeID), wf.WorkforceID)

	doc, err := st.Get(context.Background(), store.CollectionOffices, officeID)
	require.NoError(t, err)
	size := doc.Body["size"].(map[string]interface{})
	assert.EqualValues(t, 12, size["employeeCount"])
	assert.Equal(t, string(entity.SizeMedium), size["sizeCategory"])
}

func TestProcessNoteIgnoresExtractedHeadcount(t *testing.T) {
	st := memory.NewStore()
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		fields := officeFields("Snohetta", "Oslo", "Norway")
		fields["size"] = map[string]interface{}{"employeeCount": 500}
		return officeAnalysis(fields), nil
	})

	res, err := p.ProcessNote(context.Background(), "Snohetta claims 500 employees.")
	require.NoError(t, err)
	require.Len(t, res.EntitiesCreated.Offices, 1)

	// The headcount is derived from the workforce roster only; with no
	// roster in the note the stored office must carry none.
	doc, err := st.Get(context.Background(), store.CollectionOffices, res.EntitiesCreated.Offices[0].ID)
	require.NoError(t, err)
	size, _ := doc.Body["size"].(map[string]interface{})
	if size != nil {
		assert.Nil(t, size["employeeCount"])
	}
}

func TestProcessNoteIgnoresExtractedHeadcountOnMerge(t *testing.T) {
	st := memory.NewStore()

	employees := []entity.Employee{{Name: "Ana"}, {Name: "Ben"}}
	calls := 0
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		calls++
		if calls == 1 {
			a := officeAnalysis(officeFields("Snohetta", "Oslo", "Norway"))
			a.Extraction.Employees = employees
			return a, nil
		}
		fields := officeFields("Snohetta", "Oslo", "Norway")
		fields["size"] = map[string]interface{}{"employeeCount": 500}
		return officeAnalysis(fields), nil
	})

	first, err := p.ProcessNote(context.Background(), "Snohetta in Oslo employs Ana and Ben.")
	require.NoError(t, err)
	officeID := first.EntitiesCreated.Offices[0].ID

	_, err = p.ProcessNote(context.Background(), "Snohetta claims 500 employees.")
	require.NoError(t, err)

	doc, err := st.Get(context.Background(), store.CollectionOffices, officeID)
	require.NoError(t, err)
	size := doc.Body["size"].(map[string]interface{})
	assert.EqualValues(t, 2, size["employeeCount"])
}

func TestProcessNoteInfersColocationRelationships(t *testing.T) {
	st := memory.NewStore()
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		a := officeAnalysis(officeFields("Foster + Partners", "London", "UK"))
		a.Extraction.Projects = []map[string]interface{}{
			{"projectName": "Riverside Tower", "location": map[string]interface{}{"city": "London", "country": "UK"}},
		}
		return a, nil
	})

	res, err := p.ProcessNote(context.Background(), "Foster + Partners is designing Riverside Tower in London, UK.")
	require.NoError(t, err)
	require.Len(t, res.Relationships, 1)
	rel := res.Relationships[0]
	assert.Equal(t, entity.RelationshipSameCity, rel.RelationshipType)

	rels, err := st.Query(context.Background(), store.CollectionRelationships)
	require.NoError(t, err)
	assert.Len(t, rels, 1)

	officeID := res.EntitiesCreated.Offices[0].ID
	doc, err := st.Get(context.Background(), store.CollectionOffices, officeID)
	require.NoError(t, err)
	counts := doc.Body["connectionCounts"].(map[string]interface{})
	assert.EqualValues(t, 1, counts["totalProjects"])
}

func TestProcessNoteNoRelationshipsWithoutCounterpart(t *testing.T) {
	st := memory.NewStore()
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		return &oracle.Analysis{
			Categorization: oracle.Categorization{Category: "project"},
			Extraction: oracle.Extraction{Projects: []map[string]interface{}{
				{"projectName": "Harbor Bridge", "location": map[string]interface{}{"city": "Sydney", "country": "Australia"}},
			}},
		}, nil
	})

	res, err := p.ProcessNote(context.Background(), "Harbor Bridge project kicked off in Sydney.")
	require.NoError(t, err)
	assert.Empty(t, res.Relationships)

	rels, err := st.Query(context.Background(), store.CollectionRelationships)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestProcessNoteTranslatesForeignNotes(t *testing.T) {
	st := memory.NewStore()
	var analyzed string
	translator := fakeTranslator{
		detect:    func(context.Context, string) (bool, error) { return false, nil },
		translate: func(context.Context, string) (string, error) { return "Foster + Partners is based in London, UK.", nil },
	}
	analyze := func(_ context.Context, text string) (*oracle.Analysis, error) {
		analyzed = text
		return officeAnalysis(officeFields("Foster + Partners", "London", "UK")), nil
	}
	p := New(st, fakeAnalyzer{fn: analyze}, translator, fakeSearcher{}, config.PipelineConfig{}, nil, logging.NewNopLogger())

	res, err := p.ProcessNote(context.Background(), "Foster + Partners har sitt hovedkontor i London.")
	require.NoError(t, err)
	assert.Equal(t, "Foster + Partners is based in London, UK.", analyzed)

	note, err := st.Get(context.Background(), store.CollectionNotes, res.NoteID)
	require.NoError(t, err)
	assert.Equal(t, true, note.Body["translated"])
	assert.Equal(t, "Foster + Partners har sitt hovedkontor i London.", note.Body["originalText"])
}

func TestProcessNotePersistsSatellites(t *testing.T) {
	st := memory.NewStore()
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		a := officeAnalysis(officeFields("Foster + Partners", "London", "UK"))
		a.Extraction.Satellites = map[string]interface{}{
			store.CollectionClients: []interface{}{
				map[string]interface{}{"name": "Apple", "sector": "technology"},
			},
		}
		return a, nil
	})

	res, err := p.ProcessNote(context.Background(), "Foster + Partners signed Apple as a client.")
	require.NoError(t, err)

	clients, err := st.Query(context.Background(), store.CollectionClients)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Apple", clients[0].Body["name"])
	assert.Equal(t, res.NoteID, clients[0].Body["noteId"])
	assert.NotEmpty(t, clients[0].Body["recordedAt"])
}

// flakyStore fails creates on selected collections while delegating
// everything else.
type flakyStore struct {
	store.DocumentStore
	failCreates map[string]bool
}

func (f *flakyStore) Create(ctx context.Context, collection string, doc store.Document) error {
	if f.failCreates[collection] {
		return errors.New(errors.ErrCodeStoreWriteFailed, "write refused")
	}
	return f.DocumentStore.Create(ctx, collection, doc)
}

func TestProcessNoteFallsBackToLocalOnStoreFailure(t *testing.T) {
	st := &flakyStore{
		DocumentStore: memory.NewStore(),
		failCreates:   map[string]bool{store.CollectionOffices: true},
	}
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		return officeAnalysis(officeFields("Foster + Partners", "London", "UK")), nil
	})

	res, err := p.ProcessNote(context.Background(), "Foster + Partners is based in London, UK.")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.EntitiesCreated.Offices, 1)

	office := res.EntitiesCreated.Offices[0]
	assert.Equal(t, entity.Local, office.Persistence)
	assert.True(t, strings.HasPrefix(office.ID, "FOXX"), "local id %q should use the fallback form", office.ID)
	assert.Contains(t, res.Summary, "[local only]")
}

func TestProcessNoteReportsWorkforceForLocalOffice(t *testing.T) {
	st := &flakyStore{
		DocumentStore: memory.NewStore(),
		failCreates:   map[string]bool{store.CollectionOffices: true},
	}
	p := newPipeline(st, func(context.Context, string) (*oracle.Analysis, error) {
		a := officeAnalysis(officeFields("Foster + Partners", "London", "UK"))
		a.Extraction.Employees = []entity.Employee{{Name: "Ana"}, {Name: "Ben"}, {Name: "ana"}}
		return a, nil
	})

	res, err := p.ProcessNote(context.Background(), "Foster + Partners employs Ana and Ben.")
	require.NoError(t, err)
	require.Len(t, res.EntitiesCreated.Offices, 1)
	assert.Equal(t, entity.Local, res.EntitiesCreated.Offices[0].Persistence)

	// The roster delta is computed on the local view instead of dropping
	// the employees, but nothing is persisted.
	assert.Empty(t, res.Skipped)
	require.Len(t, res.WorkforceUpdates, 1)
	update := res.WorkforceUpdates[0]
	assert.Equal(t, res.EntitiesCreated.Offices[0].ID, update.OfficeID)
	assert.Equal(t, 2, update.Total)
	assert.False(t, update.Created)

	rosters, err := st.Query(context.Background(), store.CollectionWorkforce)
	require.NoError(t, err)
	assert.Empty(t, rosters)
}
