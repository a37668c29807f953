package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/store"
)

// persistSatellites writes the optional tier-3 extraction payloads to their
// collections.  Each record is stamped with the note it came from.  Writes
// are sequential and best-effort; a failed satellite never fails the note.
func persistSatellites(ctx context.Context, st store.DocumentStore, log logging.Logger, noteID string, satellites map[string]interface{}) int {
	written := 0
	for collection, payload := range satellites {
		for _, record := range satelliteRecords(payload) {
			record["noteId"] = noteID
			record["recordedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

			doc := store.Document{ID: uuid.New().String(), Body: record}
			if err := st.Create(ctx, collection, doc); err != nil {
				log.Warn("failed to persist satellite record",
					logging.String("collection", collection),
					logging.Err(err),
				)
				continue
			}
			written++
		}
	}
	return written
}

// satelliteRecords normalizes a payload into a list of object records;
// scalar or malformed entries are dropped.
func satelliteRecords(payload interface{}) []map[string]interface{} {
	switch p := payload.(type) {
	case []interface{}:
		var out []map[string]interface{}
		for _, item := range p {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]interface{}:
		return []map[string]interface{}{p}
	}
	return nil
}
