// Package cli implements the archintel command line interface: note
// ingestion from files or stdin and read access to resolved entities.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/pipeline"
	"github.com/turtacn/ArchIntel/internal/store"
)

// NoteProcessor runs one note through the ingestion pipeline.
type NoteProcessor interface {
	ProcessNote(ctx context.Context, text string) (*pipeline.Result, error)
}

// Deps carries the wired dependencies the commands operate on.
type Deps struct {
	Processor NoteProcessor
	Store     store.DocumentStore
	Logger    logging.Logger
	Version   string
}

// NewRootCmd assembles the archintel command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "archintel",
		Short:         "Architecture intelligence note ingestion",
		Long:          "archintel ingests free-form notes about architecture firms, projects, and regulations,\nresolving them into a deduplicated entity store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newIngestCmd(deps))
	root.AddCommand(newEntitiesCmd(deps))
	root.AddCommand(newVersionCmd(deps))
	return root
}
