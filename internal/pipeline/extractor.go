package pipeline

import (
	"context"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/oracle"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// Extractor adapts the extraction oracle's answer into candidates.  The
// oracle is the sole source of categorization; any failure here fails the
// whole note.
type Extractor struct {
	oracle oracle.ExtractionOracle
	logger logging.Logger
}

// NewExtractor builds the extraction stage.
func NewExtractor(o oracle.ExtractionOracle, log logging.Logger) *Extractor {
	return &Extractor{oracle: o, logger: log.Named("pipeline.extractor")}
}

// Extract analyzes text and returns the analysis plus one candidate per
// extracted record.  Candidates with no name are dropped here; they can
// never resolve or be created.
func (e *Extractor) Extract(ctx context.Context, text string) (*oracle.Analysis, []entity.Candidate, error) {
	analysis, err := e.oracle.AnalyzeText(ctx, text)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeNoteProcessingFailed, "extraction failed")
	}

	var candidates []entity.Candidate
	appendAll := func(kind entity.Kind, records []map[string]interface{}) {
		for _, fields := range records {
			c := entity.Candidate{Kind: kind, Fields: fields}
			if c.Name() == "" {
				e.logger.Warn("dropping unnamed candidate", logging.String("kind", string(kind)))
				continue
			}
			candidates = append(candidates, c)
		}
	}
	appendAll(entity.KindOffice, analysis.Extraction.Offices)
	appendAll(entity.KindProject, analysis.Extraction.Projects)
	appendAll(entity.KindRegulation, analysis.Extraction.Regulations)

	e.logger.Info("note extracted",
		logging.String("category", analysis.Categorization.Category),
		logging.Float64("confidence", analysis.Categorization.Confidence),
		logging.Int("candidates", len(candidates)),
	)
	return analysis, candidates, nil
}
