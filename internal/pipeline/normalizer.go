// Package pipeline implements the note ingestion and entity resolution
// pipeline: language normalization, extraction, enrichment, identity
// resolution, merging, identifier synthesis, workforce reconciliation, and
// relationship inference.  Stages run sequentially per note; the document
// store is the only shared state between concurrent notes.
package pipeline

import (
	"context"
	"strings"

	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/oracle"
)

// Normalized is the output of language normalization.
type Normalized struct {
	Text       string
	Language   string
	Translated bool
}

// Normalizer ensures downstream stages see English text.  Detection and
// translation both fail open: when the oracle cannot answer, the original
// text is used unchanged.
type Normalizer struct {
	translator oracle.TranslationOracle
	logger     logging.Logger
}

// NewNormalizer builds the normalizer stage.
func NewNormalizer(translator oracle.TranslationOracle, log logging.Logger) *Normalizer {
	return &Normalizer{translator: translator, logger: log.Named("pipeline.normalizer")}
}

// Normalize detects the note language and translates when needed.
func (n *Normalizer) Normalize(ctx context.Context, text string) Normalized {
	out := Normalized{Text: text, Language: "en"}
	if strings.TrimSpace(text) == "" {
		return out
	}

	english, err := n.translator.DetectEnglish(ctx, text)
	if err != nil {
		n.logger.Warn("language detection failed, treating note as English", logging.Err(err))
		return out
	}
	if english {
		return out
	}

	out.Language = "non-en"
	translated, err := n.translator.Translate(ctx, text)
	if err != nil {
		n.logger.Warn("translation failed, using original text", logging.Err(err))
		return out
	}
	out.Text = translated
	out.Translated = true
	return out
}
