package entity

import (
	"time"
)

// Note is the audit record persisted for every ingested note.  The original
// text is always kept even when a translation is substituted downstream.
type Note struct {
	ID             string    `json:"id"`
	OriginalText   string    `json:"originalText"`
	NormalizedText string    `json:"normalizedText"`
	Language       string    `json:"language,omitempty"`
	Translated     bool      `json:"translated"`
	CreatedAt      time.Time `json:"createdAt"`
}
