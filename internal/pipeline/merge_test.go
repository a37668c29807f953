package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/infrastructure/store/memory"
	"github.com/turtacn/ArchIntel/internal/store"
)

func TestMergeBodyScalarOverwrite(t *testing.T) {
	existing := map[string]interface{}{"name": "Foster + Partners", "founded": 1967}
	incoming := map[string]interface{}{"name": "Foster and Partners", "founded": 1967}

	merged, changed := MergeBody(existing, incoming)
	assert.Equal(t, "Foster and Partners", merged["name"])
	assert.Equal(t, []string{"name"}, changed)
}

func TestMergeBodyAbsentFieldsUntouched(t *testing.T) {
	existing := map[string]interface{}{"name": "BIG", "founded": 2005}
	incoming := map[string]interface{}{"name": "BIG"}

	merged, changed := MergeBody(existing, incoming)
	assert.Equal(t, 2005, merged["founded"])
	assert.Empty(t, changed)
}

func TestMergeBodyArrayUnion(t *testing.T) {
	existing := map[string]interface{}{"specializations": []interface{}{"sustainable design"}}
	incoming := map[string]interface{}{"specializations": []interface{}{"sustainable design", "high-tech architecture"}}

	merged, changed := MergeBody(existing, incoming)
	assert.Equal(t, []interface{}{"sustainable design", "high-tech architecture"}, merged["specializations"])
	assert.Equal(t, []string{"specializations"}, changed)
}

func TestMergeBodyArrayDedupIsCaseSensitive(t *testing.T) {
	existing := map[string]interface{}{"notableWorks": []interface{}{"The Gherkin"}}
	incoming := map[string]interface{}{"notableWorks": []interface{}{"the gherkin"}}

	merged, changed := MergeBody(existing, incoming)
	assert.Len(t, merged["notableWorks"], 2)
	assert.Equal(t, []string{"notableWorks"}, changed)
}

func TestMergeBodyNestedObjectsMergePerField(t *testing.T) {
	existing := map[string]interface{}{
		"location": map[string]interface{}{
			"headquarters": map[string]interface{}{"city": "London", "country": "UK"},
		},
	}
	incoming := map[string]interface{}{
		"location": map[string]interface{}{
			"headquarters": map[string]interface{}{"city": "London"},
			"otherOffices": []interface{}{"Tokyo"},
		},
	}

	merged, changed := MergeBody(existing, incoming)
	loc := merged["location"].(map[string]interface{})
	hq := loc["headquarters"].(map[string]interface{})
	assert.Equal(t, "UK", hq["country"])
	assert.Equal(t, []interface{}{"Tokyo"}, loc["otherOffices"])
	assert.Equal(t, []string{"location.otherOffices"}, changed)
}

func TestMergeBodyProtectsIdentityFields(t *testing.T) {
	existing := map[string]interface{}{"id": "UKLO123", "createdAt": "2024-01-01T00:00:00Z", "name": "BIG"}
	incoming := map[string]interface{}{"id": "XXXX999", "createdAt": "2025-01-01T00:00:00Z", "version": 7}

	merged, changed := MergeBody(existing, incoming)
	assert.Equal(t, "UKLO123", merged["id"])
	assert.Equal(t, "2024-01-01T00:00:00Z", merged["createdAt"])
	assert.NotContains(t, merged, "version")
	assert.Empty(t, changed)
}

func TestMergeBodyDiscardsExtractedHeadcount(t *testing.T) {
	existing := map[string]interface{}{
		"name": "Snohetta",
		"size": map[string]interface{}{"employeeCount": 12, "sizeCategory": "medium"},
	}
	incoming := map[string]interface{}{
		"size": map[string]interface{}{"employeeCount": 500},
	}

	merged, changed := MergeBody(existing, incoming)
	size := merged["size"].(map[string]interface{})
	assert.Equal(t, 12, size["employeeCount"])
	assert.Empty(t, changed)
}

func TestMergeBodyDiscardsHeadcountInFreshSizeObject(t *testing.T) {
	existing := map[string]interface{}{"name": "Snohetta"}
	incoming := map[string]interface{}{
		"size": map[string]interface{}{"employeeCount": 500},
	}

	merged, changed := MergeBody(existing, incoming)
	assert.NotContains(t, merged, "size")
	assert.Empty(t, changed)
}

func TestMergeBodyKeepsOtherSizeFields(t *testing.T) {
	existing := map[string]interface{}{"name": "Snohetta"}
	incoming := map[string]interface{}{
		"size": map[string]interface{}{"employeeCount": 500, "sizeCategory": "global"},
	}

	merged, changed := MergeBody(existing, incoming)
	size := merged["size"].(map[string]interface{})
	assert.NotContains(t, size, "employeeCount")
	assert.Equal(t, "global", size["sizeCategory"])
	assert.Equal(t, []string{"size"}, changed)
}

func TestMergeBodyDoesNotMutateInputs(t *testing.T) {
	existing := map[string]interface{}{
		"specializations": []interface{}{"sustainable design"},
		"location":        map[string]interface{}{"headquarters": map[string]interface{}{"city": "London"}},
	}
	incoming := map[string]interface{}{
		"specializations": []interface{}{"high-tech architecture"},
		"location":        map[string]interface{}{"headquarters": map[string]interface{}{"country": "UK"}},
	}

	MergeBody(existing, incoming)
	assert.Equal(t, []interface{}{"sustainable design"}, existing["specializations"])
	hq := existing["location"].(map[string]interface{})["headquarters"].(map[string]interface{})
	assert.NotContains(t, hq, "country")
	assert.Equal(t, []interface{}{"high-tech architecture"}, incoming["specializations"])
}

func TestMergeBodyNumericTypesCompareEqual(t *testing.T) {
	existing := map[string]interface{}{"founded": float64(1967)}
	incoming := map[string]interface{}{"founded": 1967}

	_, changed := MergeBody(existing, incoming)
	assert.Empty(t, changed)
}

func TestMergeAndStorePersistsChanges(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	require.NoError(t, st.Create(ctx, store.CollectionOffices, store.Document{
		ID:   "UKLO123",
		Body: map[string]interface{}{"id": "UKLO123", "name": "Foster + Partners"},
	}))

	engine := NewMergeEngine(st, 3, logging.NewNopLogger())
	doc, changed, err := engine.MergeAndStore(ctx, store.CollectionOffices, "UKLO123",
		map[string]interface{}{"founded": 1967})
	require.NoError(t, err)
	assert.Equal(t, []string{"founded"}, changed)
	assert.Equal(t, 2, doc.Version)
	assert.NotEmpty(t, doc.Body["updatedAt"])

	stored, err := st.Get(ctx, store.CollectionOffices, "UKLO123")
	require.NoError(t, err)
	assert.EqualValues(t, 1967, stored.Body["founded"])
}

func TestMergeAndStoreNoChangeSkipsWrite(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	require.NoError(t, st.Create(ctx, store.CollectionOffices, store.Document{
		ID:   "UKLO123",
		Body: map[string]interface{}{"id": "UKLO123", "name": "Foster + Partners"},
	}))

	engine := NewMergeEngine(st, 3, logging.NewNopLogger())
	doc, changed, err := engine.MergeAndStore(ctx, store.CollectionOffices, "UKLO123",
		map[string]interface{}{"name": "Foster + Partners"})
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, 1, doc.Version)
}

// racingStore makes the first conditional update lose, as if a concurrent
// note got there first.
type racingStore struct {
	store.DocumentStore
	raced bool
}

func (r *racingStore) Update(ctx context.Context, collection, id string, body map[string]interface{}, expectedVersion int) (store.Document, error) {
	if !r.raced {
		r.raced = true
		if _, err := r.DocumentStore.Update(ctx, collection, id,
			map[string]interface{}{"id": id, "name": "Foster + Partners", "status": "active"},
			store.AnyVersion); err != nil {
			return store.Document{}, err
		}
	}
	return r.DocumentStore.Update(ctx, collection, id, body, expectedVersion)
}

func TestMergeAndStoreRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	require.NoError(t, inner.Create(ctx, store.CollectionOffices, store.Document{
		ID:   "UKLO123",
		Body: map[string]interface{}{"id": "UKLO123", "name": "Foster + Partners"},
	}))
	st := &racingStore{DocumentStore: inner}

	engine := NewMergeEngine(st, 3, logging.NewNopLogger())
	doc, changed, err := engine.MergeAndStore(ctx, store.CollectionOffices, "UKLO123",
		map[string]interface{}{"founded": 1967})
	require.NoError(t, err)
	assert.Contains(t, changed, "founded")

	// The winner's write survives alongside the merged field.
	assert.Equal(t, "active", doc.Body["status"])
	assert.EqualValues(t, 1967, doc.Body["founded"])
}
