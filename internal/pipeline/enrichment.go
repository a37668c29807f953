package pipeline

import (
	"context"
	"strings"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/oracle"
)

// locationPhrases are textual cues that the note itself states a location,
// in which case the extractor's own fields are trusted and no web search is
// made.
var locationPhrases = []string{
	"based in",
	"headquarters in",
	"headquartered in",
	"located in",
	"offices in",
}

// Enricher back-fills missing office headquarters through the web-search
// oracle.  Enrichment is best-effort and never blocks the pipeline.
type Enricher struct {
	search oracle.SearchOracle
	window int
	logger logging.Logger
}

// NewEnricher builds the enrichment stage.  window <= 0 defaults to 200.
func NewEnricher(search oracle.SearchOracle, window int, log logging.Logger) *Enricher {
	if window <= 0 {
		window = 200
	}
	return &Enricher{search: search, window: window, logger: log.Named("pipeline.enrichment")}
}

// EnrichOffice fills in headquarters city/country for an office candidate.
// It reports whether a web search was performed.
func (e *Enricher) EnrichOffice(ctx context.Context, c *entity.Candidate, noteText string) bool {
	if c.Kind != entity.KindOffice {
		return false
	}
	hq := c.Headquarters()
	if hq.City != "" && hq.Country != "" {
		return false
	}
	if e.textMentionsLocation(noteText, c.Name()) {
		// The note states a location; trust extraction over the web.
		return false
	}

	result, err := e.search.SearchOfficeLocation(ctx, c.Name())
	if err != nil {
		e.logger.Warn("location search failed, proceeding without enrichment",
			logging.String("office", c.Name()),
			logging.Err(err),
		)
		return true
	}
	if result.Empty() {
		e.logger.Debug("location search returned nothing", logging.String("office", c.Name()))
		return true
	}

	fill := entity.GeoPoint{City: hq.City, Country: hq.Country}
	if fill.City == "" {
		fill.City = result.City
	}
	if fill.Country == "" {
		fill.Country = result.Country
	}
	c.SetHeadquarters(fill)
	e.logger.Info("office headquarters enriched",
		logging.String("office", c.Name()),
		logging.String("city", fill.City),
		logging.String("country", fill.Country),
	)
	return true
}

// textMentionsLocation scans the window around the office name for
// location-indicating phrases or known city/country tokens.
func (e *Enricher) textMentionsLocation(noteText, officeName string) bool {
	window := e.windowAround(noteText, officeName)
	if window == "" {
		return false
	}
	lower := strings.ToLower(window)
	for _, phrase := range locationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && r != '\''
	})
	for i, w := range words {
		if isKnownLocationToken(w) {
			return true
		}
		if i+1 < len(words) && isKnownLocationToken(w+" "+words[i+1]) {
			return true
		}
	}
	return false
}

func (e *Enricher) windowAround(noteText, officeName string) string {
	if officeName == "" {
		return noteText
	}
	idx := strings.Index(strings.ToLower(noteText), strings.ToLower(officeName))
	if idx < 0 {
		return noteText
	}
	start := idx - e.window
	if start < 0 {
		start = 0
	}
	end := idx + len(officeName) + e.window
	if end > len(noteText) {
		end = len(noteText)
	}
	return noteText[start:end]
}
