package pipeline

import (
	"context"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// WorkforceUpdate reports the roster delta for one office.
type WorkforceUpdate struct {
	OfficeID    string `json:"officeId"`
	WorkforceID string `json:"workforceId"`
	Merged      int    `json:"merged"`
	Total       int    `json:"total"`
	Created     bool   `json:"created"`
}

// WorkforceReconciler folds extracted employee lists into per-office
// rosters and keeps the office's derived size fields consistent with the
// roster headcount.
type WorkforceReconciler struct {
	store   store.DocumentStore
	retries int
	logger  logging.Logger
}

// NewWorkforceReconciler builds the workforce stage.  retries <= 0
// defaults to 3.
func NewWorkforceReconciler(st store.DocumentStore, retries int, log logging.Logger) *WorkforceReconciler {
	if retries <= 0 {
		retries = 3
	}
	return &WorkforceReconciler{store: st, retries: retries, logger: log.Named("pipeline.workforce")}
}

// Apply merges employees into the roster owned by officeID, creating the
// roster lazily on first mention, then recomputes the office's
// employeeCount and sizeCategory from the distinct-name headcount.
func (w *WorkforceReconciler) Apply(ctx context.Context, officeID string, employees []entity.Employee, dist *entity.EmployeeDistribution) (*WorkforceUpdate, error) {
	if len(employees) == 0 {
		return nil, nil
	}
	wfID := entity.WorkforceIDFor(officeID)

	var update *WorkforceUpdate
	var lastErr error
	for attempt := 0; attempt < w.retries; attempt++ {
		doc, err := w.store.Get(ctx, store.CollectionWorkforce, wfID)
		creating := false
		wf := entity.NewWorkforce(officeID)
		switch {
		case err == nil:
			if decodeErr := entity.Decode(doc.Body, wf); decodeErr != nil {
				return nil, decodeErr
			}
		case errors.IsNotFound(err):
			creating = true
		default:
			return nil, err
		}

		merged := 0
		for _, emp := range employees {
			if wf.UpsertEmployee(emp) {
				merged++
			}
		}
		if dist != nil {
			wf.Aggregate.Distribution = *dist
		}
		wf.Recompute()
		wf.SortEmployees()
		wf.Touch()

		body, err := entity.Body(wf)
		if err != nil {
			return nil, err
		}

		if creating {
			err = w.store.Create(ctx, store.CollectionWorkforce, store.Document{ID: wfID, Body: body})
		} else {
			_, err = w.store.Update(ctx, store.CollectionWorkforce, wfID, body, doc.Version)
		}
		if err != nil {
			if errors.IsConflict(err) {
				// Another note touched the same roster; re-read and redo.
				lastErr = err
				continue
			}
			return nil, err
		}

		update = &WorkforceUpdate{
			OfficeID:    officeID,
			WorkforceID: wfID,
			Merged:      merged,
			Total:       wf.DistinctCount(),
			Created:     creating,
		}
		break
	}
	if update == nil {
		return nil, errors.Wrap(lastErr, errors.ErrCodeVersionConflict, "workforce merge kept losing races")
	}

	if err := w.syncOfficeSize(ctx, officeID, update.Total); err != nil {
		// The roster write stands; size sync is reported but not fatal.
		w.logger.Warn("failed to sync office size from roster",
			logging.String("office_id", officeID),
			logging.Err(err),
		)
	}
	return update, nil
}

// ApplyLocal folds employees into a fresh in-memory roster for an office
// that was never persisted.  Nothing is written; the returned delta keeps
// the note's counts meaningful while the store is down.
func (w *WorkforceReconciler) ApplyLocal(officeID string, employees []entity.Employee, dist *entity.EmployeeDistribution) *WorkforceUpdate {
	if len(employees) == 0 {
		return nil
	}
	wf := entity.NewWorkforce(officeID)
	merged := 0
	for _, emp := range employees {
		if wf.UpsertEmployee(emp) {
			merged++
		}
	}
	if dist != nil {
		wf.Aggregate.Distribution = *dist
	}
	wf.Recompute()
	return &WorkforceUpdate{
		OfficeID:    officeID,
		WorkforceID: entity.WorkforceIDFor(officeID),
		Merged:      merged,
		Total:       wf.DistinctCount(),
	}
}

// syncOfficeSize writes the derived headcount onto the office.  The size
// category is derived only when no explicit category exists.
func (w *WorkforceReconciler) syncOfficeSize(ctx context.Context, officeID string, total int) error {
	for attempt := 0; attempt < w.retries; attempt++ {
		doc, err := w.store.Get(ctx, store.CollectionOffices, officeID)
		if err != nil {
			return err
		}

		size, _ := doc.Body["size"].(map[string]interface{})
		if size == nil {
			size = make(map[string]interface{})
		}
		size["employeeCount"] = total
		if explicit, _ := size["sizeCategory"].(string); explicit == "" {
			size["sizeCategory"] = string(entity.SizeCategoryFor(total))
		}
		doc.Body["size"] = size

		_, err = w.store.Update(ctx, store.CollectionOffices, officeID, doc.Body, doc.Version)
		if err == nil {
			return nil
		}
		if !errors.IsConflict(err) {
			return err
		}
	}
	return errors.New(errors.ErrCodeVersionConflict, "office size sync kept losing races")
}
