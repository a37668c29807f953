package pipeline

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// protectedFields are never altered by a merge.
var protectedFields = map[string]struct{}{
	"id":        {},
	"version":   {},
	"createdAt": {},
}

// derivedFields are owned by the pipeline: the headcount is always computed
// from the workforce roster, so a value arriving from extraction is
// discarded on both create and merge.
var derivedFields = map[string]struct{}{
	"size.employeeCount": {},
}

// MergeBody computes a field-level merge of incoming into existing and
// reports which fields changed, as dot paths.  Rules: scalars overwrite
// when present and different, arrays union with case-sensitive dedup,
// nested objects merge per sub-field, identity fields stay untouched.
// Neither input map is mutated.
func MergeBody(existing, incoming map[string]interface{}) (map[string]interface{}, []string) {
	merged := deepCloneMap(existing)
	if merged == nil {
		merged = make(map[string]interface{})
	}
	var changed []string
	mergeMaps(merged, incoming, "", &changed)
	sort.Strings(changed)
	return merged, changed
}

func mergeMaps(dst, src map[string]interface{}, path string, changed *[]string) {
	for key, inVal := range src {
		if path == "" {
			if _, protected := protectedFields[key]; protected {
				continue
			}
		}
		if inVal == nil {
			continue
		}
		fieldPath := key
		if path != "" {
			fieldPath = path + "." + key
		}
		if _, derived := derivedFields[fieldPath]; derived {
			continue
		}
		exVal, present := dst[key]

		switch in := inVal.(type) {
		case map[string]interface{}:
			if ex, ok := exVal.(map[string]interface{}); ok && present {
				mergeMaps(ex, in, fieldPath, changed)
			} else {
				cl := deepCloneMap(in)
				pruneDerived(cl, fieldPath)
				if len(cl) == 0 {
					continue
				}
				dst[key] = cl
				*changed = append(*changed, fieldPath)
			}
		case []interface{}:
			ex, _ := exVal.([]interface{})
			union, grew := unionSlices(ex, in)
			dst[key] = union
			if !present || grew {
				*changed = append(*changed, fieldPath)
			}
		default:
			if !present || !scalarEqual(exVal, inVal) {
				dst[key] = inVal
				*changed = append(*changed, fieldPath)
			}
		}
	}
}

// pruneDerived strips derived fields from a nested map rooted at path.
// With an empty path it prunes a full document body.
func pruneDerived(m map[string]interface{}, path string) {
	for key, v := range m {
		fieldPath := key
		if path != "" {
			fieldPath = path + "." + key
		}
		if _, derived := derivedFields[fieldPath]; derived {
			delete(m, key)
			continue
		}
		if sub, ok := v.(map[string]interface{}); ok {
			pruneDerived(sub, fieldPath)
			if len(sub) == 0 {
				delete(m, key)
			}
		}
	}
}

// unionSlices appends elements of src missing from dst.  String elements
// are compared case-sensitively per the merge contract.
func unionSlices(dst, src []interface{}) ([]interface{}, bool) {
	out := make([]interface{}, len(dst))
	copy(out, dst)
	grew := false
	for _, v := range src {
		if !sliceContains(out, v) {
			out = append(out, v)
			grew = true
		}
	}
	return out, grew
}

func sliceContains(list []interface{}, v interface{}) bool {
	for _, existing := range list {
		if scalarEqual(existing, v) {
			return true
		}
	}
	return false
}

// scalarEqual compares values after normalizing JSON numeric types.
func scalarEqual(a, b interface{}) bool {
	if na, ok := asFloat(a); ok {
		if nb, ok := asFloat(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func deepCloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch vt := v.(type) {
		case map[string]interface{}:
			out[k] = deepCloneMap(vt)
		case []interface{}:
			cp := make([]interface{}, len(vt))
			copy(cp, vt)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// MergeEngine applies merges through the store with optimistic
// concurrency: on a version conflict the entity is re-read and the merge
// recomputed over the winner's state.
type MergeEngine struct {
	store   store.DocumentStore
	retries int
	logger  logging.Logger
}

// NewMergeEngine builds the merge stage.  retries <= 0 defaults to 3.
func NewMergeEngine(st store.DocumentStore, retries int, log logging.Logger) *MergeEngine {
	if retries <= 0 {
		retries = 3
	}
	return &MergeEngine{store: st, retries: retries, logger: log.Named("pipeline.merge")}
}

// MergeAndStore merges incoming into the stored document and persists the
// result conditionally.  It returns the stored document and the changed
// field paths; an empty change list means the store was already current.
func (m *MergeEngine) MergeAndStore(ctx context.Context, collection, id string, incoming map[string]interface{}) (store.Document, []string, error) {
	var lastErr error
	for attempt := 0; attempt < m.retries; attempt++ {
		doc, err := m.store.Get(ctx, collection, id)
		if err != nil {
			return store.Document{}, nil, err
		}

		merged, changed := MergeBody(doc.Body, incoming)
		if len(changed) == 0 {
			return doc, nil, nil
		}
		merged["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

		updated, err := m.store.Update(ctx, collection, id, merged, doc.Version)
		if err == nil {
			m.logger.Debug("entity merged",
				logging.String("collection", collection),
				logging.String("id", id),
				logging.Int("changed_fields", len(changed)),
			)
			return updated, changed, nil
		}
		if !errors.IsConflict(err) {
			return store.Document{}, nil, err
		}
		lastErr = err
		m.logger.Warn("merge lost a version race, retrying",
			logging.String("collection", collection),
			logging.String("id", id),
			logging.Int("attempt", attempt+1),
		)
	}
	return store.Document{}, nil, errors.Wrap(lastErr, errors.ErrCodeVersionConflict,
		"merge kept losing version races")
}
