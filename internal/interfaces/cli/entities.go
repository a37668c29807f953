package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

func newEntitiesCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Inspect resolved entities",
	}
	cmd.AddCommand(newEntitiesListCmd(deps))
	cmd.AddCommand(newEntitiesGetCmd(deps))
	return cmd
}

func collectionForKindFlag(kind string) (string, string, error) {
	switch entity.ParseKind(kind) {
	case entity.KindOffice:
		return store.CollectionOffices, "name", nil
	case entity.KindProject:
		return store.CollectionProjects, "projectName", nil
	case entity.KindRegulation:
		return store.CollectionRegulations, "name", nil
	}
	return "", "", errors.Newf(errors.ErrCodeBadRequest, "unknown kind %q, want office, project, or regulation", kind)
}

func newEntitiesListCmd(deps Deps) *cobra.Command {
	var kind, name string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities of one kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, nameField, err := collectionForKindFlag(kind)
			if err != nil {
				return err
			}

			var filters []store.Filter
			if name != "" {
				filters = append(filters, store.EqFold(nameField, name))
			}
			docs, err := deps.Store.Query(cmd.Context(), collection, filters...)
			if err != nil {
				return err
			}

			for _, d := range docs {
				label, _ := d.Body[nameField].(string)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, label)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s(s)\n", len(docs), kind)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "office", "entity kind: office, project, or regulation")
	cmd.Flags().StringVar(&name, "name", "", "filter by exact name, case-insensitive")
	return cmd
}

func newEntitiesGetCmd(deps Deps) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one entity as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, _, err := collectionForKindFlag(kind)
			if err != nil {
				return err
			}

			doc, err := deps.Store.Get(cmd.Context(), collection, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc.Body)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "office", "entity kind: office, project, or regulation")
	return cmd
}
