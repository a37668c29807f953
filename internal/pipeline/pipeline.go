package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ArchIntel/internal/config"
	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ArchIntel/internal/oracle"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// Pipeline runs a note through every stage, from language normalization to
// relationship inference.  All stages receive their dependencies through
// the constructor; the pipeline holds no global state and is safe for
// concurrent ProcessNote calls.
type Pipeline struct {
	store         store.DocumentStore
	normalizer    *Normalizer
	extractor     *Extractor
	enricher      *Enricher
	resolver      *Resolver
	synthesizer   *Synthesizer
	merger        *MergeEngine
	workforce     *WorkforceReconciler
	relationships *RelationshipInferencer
	metrics       *prometheus.AppMetrics
	logger        logging.Logger
}

// New wires the full pipeline.  metrics may be nil when no collector is
// registered, for example in the CLI.
func New(
	st store.DocumentStore,
	extraction oracle.ExtractionOracle,
	translation oracle.TranslationOracle,
	search oracle.SearchOracle,
	cfg config.PipelineConfig,
	metrics *prometheus.AppMetrics,
	log logging.Logger,
) *Pipeline {
	return &Pipeline{
		store:         st,
		normalizer:    NewNormalizer(translation, log),
		extractor:     NewExtractor(extraction, log),
		enricher:      NewEnricher(search, cfg.EnrichmentWindow, log),
		resolver:      NewResolver(st, cfg.FuzzyThreshold, log),
		synthesizer:   NewSynthesizer(st, cfg.IDRetries, log),
		merger:        NewMergeEngine(st, cfg.MergeRetries, log),
		workforce:     NewWorkforceReconciler(st, cfg.MergeRetries, log),
		relationships: NewRelationshipInferencer(st, log),
		metrics:       metrics,
		logger:        log.Named("pipeline"),
	}
}

// ProcessNote ingests one note end to end.  Extraction failure fails the
// whole note; every later stage degrades per entity instead, so a partial
// result with Success true can carry skipped candidates and local-only
// entities.
func (p *Pipeline) ProcessNote(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeNoteEmpty, "note text is empty")
	}

	start := time.Now()
	res := &Result{NoteID: uuid.New().String()}

	norm := p.normalize(ctx, text)
	p.recordNote(ctx, res.NoteID, text, norm)

	analysis, candidates, err := p.extract(ctx, norm.Text)
	if err != nil {
		res.Summary = "extraction failed: " + err.Error()
		p.finishNote(ctx, res, start, false)
		return res, err
	}

	batch := make([]Resolved, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		p.enrich(ctx, c, norm.Text)

		resolved, ok := p.resolveOne(ctx, c, res)
		if !ok {
			continue
		}
		batch = append(batch, resolved)
		res.addResolved(resolved)
	}

	p.applyWorkforce(ctx, analysis, batch, res)

	stageStart := time.Now()
	res.Relationships = p.relationships.Infer(ctx, batch)
	p.observeStage("relationships", stageStart)
	if p.metrics != nil {
		for _, rel := range res.Relationships {
			p.metrics.RelationshipsTotal.WithLabelValues(string(rel.RelationshipType)).Inc()
		}
	}

	if len(analysis.Extraction.Satellites) > 0 {
		persistSatellites(ctx, p.store, p.logger, res.NoteID, analysis.Extraction.Satellites)
	}

	res.Success = true
	res.buildSummary()
	p.finishNote(ctx, res, start, true)
	return res, nil
}

func (p *Pipeline) normalize(ctx context.Context, text string) Normalized {
	stageStart := time.Now()
	norm := p.normalizer.Normalize(ctx, text)
	p.observeStage("normalize", stageStart)
	if p.metrics != nil && norm.Language != "en" {
		outcome := "failed"
		if norm.Translated {
			outcome = "ok"
		}
		p.metrics.TranslationsTotal.WithLabelValues(outcome).Inc()
	}
	return norm
}

func (p *Pipeline) extract(ctx context.Context, text string) (*oracle.Analysis, []entity.Candidate, error) {
	stageStart := time.Now()
	analysis, candidates, err := p.extractor.Extract(ctx, text)
	p.observeStage("extract", stageStart)
	return analysis, candidates, err
}

func (p *Pipeline) enrich(ctx context.Context, c *entity.Candidate, noteText string) {
	stageStart := time.Now()
	searched := p.enricher.EnrichOffice(ctx, c, noteText)
	p.observeStage("enrich", stageStart)
	if p.metrics == nil || c.Kind != entity.KindOffice {
		return
	}
	outcome := "skipped"
	if searched {
		hq := c.Headquarters()
		outcome = "miss"
		if hq.City != "" && hq.Country != "" {
			outcome = "hit"
		}
	}
	p.metrics.EnrichmentTotal.WithLabelValues(outcome).Inc()
}

// resolveOne matches one candidate against the store and either merges into
// the match or creates a new entity.  A false return means the candidate
// was skipped; the reason is already filed on the result.
func (p *Pipeline) resolveOne(ctx context.Context, c *entity.Candidate, res *Result) (Resolved, bool) {
	stageStart := time.Now()
	match, err := p.resolver.FindMatch(ctx, c)
	p.observeStage("resolve", stageStart)
	if err != nil {
		p.skip(res, "store_error", fmt.Sprintf("resolution failed for %s %q: %v", c.Kind, c.Name(), err))
		return Resolved{}, false
	}
	if match != nil {
		return p.mergeInto(ctx, c, match), true
	}
	return p.createNew(ctx, c, res)
}

func (p *Pipeline) mergeInto(ctx context.Context, c *entity.Candidate, match *Match) Resolved {
	collection := CollectionFor(c.Kind)
	stageStart := time.Now()
	doc, changed, err := p.merger.MergeAndStore(ctx, collection, match.Document.ID, c.Fields)
	p.observeStage("merge", stageStart)
	if err != nil {
		// The store refused the merge; keep the merged view in memory so
		// the caller still sees the combined record.
		body, localChanged := MergeBody(match.Document.Body, c.Fields)
		p.logger.Warn("merge not persisted, serving local view",
			logging.String("collection", collection),
			logging.String("id", match.Document.ID),
			logging.Err(err),
		)
		if p.metrics != nil {
			p.metrics.LocalFallbackTotal.WithLabelValues(string(c.Kind)).Inc()
		}
		return Resolved{
			Kind:          c.Kind,
			ID:            match.Document.ID,
			Name:          c.Name(),
			Location:      locationOf(c.Kind, body),
			Persistence:   entity.Local,
			Similarity:    match.Similarity,
			ChangedFields: localChanged,
			Body:          body,
		}
	}
	if p.metrics != nil {
		p.metrics.EntitiesMergedTotal.WithLabelValues(string(c.Kind)).Inc()
	}
	return Resolved{
		Kind:          c.Kind,
		ID:            doc.ID,
		Name:          c.Name(),
		Location:      locationOf(c.Kind, doc.Body),
		Persistence:   entity.Persisted,
		Similarity:    match.Similarity,
		ChangedFields: changed,
		Body:          doc.Body,
	}
}

func (p *Pipeline) createNew(ctx context.Context, c *entity.Candidate, res *Result) (Resolved, bool) {
	if err := validateCandidate(c); err != nil {
		p.skip(res, string(errors.GetCode(err)), fmt.Sprintf("skipped %s %q: %v", c.Kind, c.Name(), err))
		return Resolved{}, false
	}

	collection := CollectionFor(c.Kind)
	persistence := entity.Persisted

	id, _ := c.Fields["id"].(string)
	if id == "" {
		var err error
		id, err = p.synthesizer.NewEntityID(ctx, collection, c.Name(), c.Location())
		if err != nil {
			id = p.synthesizer.LocalID(c.Name())
			persistence = entity.Local
			p.logger.Warn("identifier synthesis failed, entity kept local",
				logging.String("kind", string(c.Kind)),
				logging.String("name", c.Name()),
				logging.Err(err),
			)
		}
	}

	body := deepCloneMap(c.Fields)
	pruneDerived(body, "")
	body["id"] = id
	now := time.Now().UTC().Format(time.RFC3339Nano)
	body["createdAt"] = now
	body["updatedAt"] = now

	if persistence == entity.Persisted {
		stageStart := time.Now()
		err := p.store.Create(ctx, collection, store.Document{ID: id, Body: body})
		p.observeStage("create", stageStart)
		if err != nil {
			id = p.synthesizer.LocalID(c.Name())
			body["id"] = id
			persistence = entity.Local
			p.logger.Warn("entity create not persisted, falling back to local",
				logging.String("kind", string(c.Kind)),
				logging.String("name", c.Name()),
				logging.Err(err),
			)
		}
	}

	if p.metrics != nil {
		p.metrics.EntitiesCreatedTotal.WithLabelValues(string(c.Kind)).Inc()
		if persistence == entity.Local {
			p.metrics.LocalFallbackTotal.WithLabelValues(string(c.Kind)).Inc()
		}
	}
	p.logger.Info("entity created",
		logging.String("kind", string(c.Kind)),
		logging.String("id", id),
		logging.String("name", c.Name()),
		logging.String("persistence", string(persistence)),
	)
	return Resolved{
		Kind:        c.Kind,
		ID:          id,
		Name:        c.Name(),
		Location:    c.Location(),
		Persistence: persistence,
		Created:     true,
		Body:        body,
	}, true
}

// applyWorkforce folds extracted employees into the roster of the first
// persisted office the note resolved.  A note whose only office is a local
// fallback still gets its roster delta computed in memory so the reported
// counts stay meaningful.
func (p *Pipeline) applyWorkforce(ctx context.Context, analysis *oracle.Analysis, batch []Resolved, res *Result) {
	if len(analysis.Extraction.Employees) == 0 {
		return
	}
	var office, local *Resolved
	for i := range batch {
		if batch[i].Kind != entity.KindOffice {
			continue
		}
		if batch[i].Persistence == entity.Persisted {
			office = &batch[i]
			break
		}
		if local == nil {
			local = &batch[i]
		}
	}
	if office == nil {
		if local != nil {
			if update := p.workforce.ApplyLocal(local.ID, analysis.Extraction.Employees, analysis.Extraction.EmployeeDistribution); update != nil {
				res.WorkforceUpdates = append(res.WorkforceUpdates, *update)
			}
			return
		}
		p.skip(res, "no_office", fmt.Sprintf("dropped %d employee(s): no office in note", len(analysis.Extraction.Employees)))
		return
	}

	stageStart := time.Now()
	update, err := p.workforce.Apply(ctx, office.ID, analysis.Extraction.Employees, analysis.Extraction.EmployeeDistribution)
	p.observeStage("workforce", stageStart)
	if err != nil {
		p.skip(res, "workforce_failed", fmt.Sprintf("workforce update failed for %s: %v", office.ID, err))
		return
	}
	if update == nil {
		return
	}
	if update.Created {
		res.EntitiesCreated.Workforce = append(res.EntitiesCreated.Workforce, *update)
		res.TotalCreated++
	} else {
		res.WorkforceUpdates = append(res.WorkforceUpdates, *update)
	}
}

// validateCandidate materializes the candidate as its typed entity and runs
// the creation invariants.
func validateCandidate(c *entity.Candidate) error {
	switch c.Kind {
	case entity.KindOffice:
		var o entity.Office
		if err := entity.Decode(c.Fields, &o); err != nil {
			return err
		}
		return o.ValidateForCreate()
	case entity.KindProject:
		var pr entity.Project
		if err := entity.Decode(c.Fields, &pr); err != nil {
			return err
		}
		return pr.ValidateForCreate()
	case entity.KindRegulation:
		var r entity.Regulation
		if err := entity.Decode(c.Fields, &r); err != nil {
			return err
		}
		return r.ValidateForCreate()
	}
	return errors.Newf(errors.ErrCodeValidation, "unknown entity kind %q", c.Kind)
}

// locationOf reads the geographic point out of a stored body.
func locationOf(kind entity.Kind, body map[string]interface{}) entity.GeoPoint {
	c := entity.Candidate{Kind: kind, Fields: body}
	return c.Location()
}

func (p *Pipeline) skip(res *Result, reason, detail string) {
	res.Skipped = append(res.Skipped, detail)
	p.logger.Warn("candidate skipped", logging.String("reason", reason), logging.String("detail", detail))
	if p.metrics != nil {
		p.metrics.CandidatesSkipped.WithLabelValues(reason).Inc()
	}
}

// recordNote writes the audit record for the incoming note.  Audit writes
// never fail the pipeline.
func (p *Pipeline) recordNote(ctx context.Context, noteID, original string, norm Normalized) {
	note := &entity.Note{
		ID:             noteID,
		OriginalText:   original,
		NormalizedText: norm.Text,
		Language:       norm.Language,
		Translated:     norm.Translated,
		CreatedAt:      time.Now().UTC(),
	}
	body, err := entity.Body(note)
	if err == nil {
		err = p.store.Create(ctx, store.CollectionNotes, store.Document{ID: noteID, Body: body})
	}
	if err != nil {
		p.logger.Warn("failed to record note", logging.String("note_id", noteID), logging.Err(err))
	}
}

// finishNote stamps the outcome onto the note audit record and observes the
// end-to-end metrics.
func (p *Pipeline) finishNote(ctx context.Context, res *Result, start time.Time, ok bool) {
	doc, err := p.store.Get(ctx, store.CollectionNotes, res.NoteID)
	if err == nil {
		doc.Body["success"] = res.Success
		doc.Body["summary"] = res.Summary
		doc.Body["totalCreated"] = res.TotalCreated
		doc.Body["processedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
		if _, err = p.store.Update(ctx, store.CollectionNotes, res.NoteID, doc.Body, store.AnyVersion); err != nil {
			p.logger.Warn("failed to finalize note record", logging.String("note_id", res.NoteID), logging.Err(err))
		}
	}

	if p.metrics != nil {
		outcome := "failed"
		if ok {
			outcome = "ok"
		}
		p.metrics.NotesProcessedTotal.WithLabelValues(outcome).Inc()
		p.metrics.NoteProcessDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	}
	p.logger.Info("note processed",
		logging.String("note_id", res.NoteID),
		logging.Bool("success", res.Success),
		logging.Int("created", res.TotalCreated),
		logging.Int("relationships", len(res.Relationships)),
		logging.Duration("elapsed", time.Since(start)),
	)
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
