package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ArchIntel/pkg/errors"
)

func newIngestCmd(deps Deps) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Process a note from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readNote(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			res, err := deps.Processor.ProcessNote(cmd.Context(), text)
			if err != nil {
				if res != nil && res.Summary != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), res.Summary)
				}
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Summary)
			for _, s := range res.Skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped:", s)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full resolution result as JSON")
	return cmd
}

func readNote(stdin io.Reader, args []string) (string, error) {
	var data []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "could not read note")
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New(errors.ErrCodeNoteEmpty, "note text is empty")
	}
	return text, nil
}
