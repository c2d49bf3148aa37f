package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newIndicesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "Manage the dataset indices",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create every missing index with its mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.connect(ctx)
			if err != nil {
				return err
			}

			registry := a.registry()
			created, err := registry.EnsureIndices(ctx, client)
			if err != nil {
				return err
			}

			isNew := make(map[string]bool, len(created))
			for _, name := range created {
				isNew[name] = true
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"Entity", "Index", "Mapping", "Result"})
			for _, e := range registry.Entities() {
				result := "exists"
				if isNew[e.Index] {
					result = "created"
				}
				t.AppendRow(table.Row{e.Type, e.Index, e.MappingVersion, result})
			}
			t.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show each entity's index, identity and whether it exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.connect(ctx)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"Entity", "Index", "Identity", "Mapping", "Exists"})
			for _, e := range a.registry().Entities() {
				exists, existsErr := client.IndexExists(ctx, e.Index)
				if existsErr != nil {
					return existsErr
				}
				t.AppendRow(table.Row{e.Type, e.Index, identityLabel(e.IDField, e.KeyFields), e.MappingVersion, exists})
			}
			t.Render()
			return nil
		},
	})

	return cmd
}

func identityLabel(idField string, keyFields []string) string {
	if len(keyFields) == 0 {
		return idField
	}
	return strings.Join(keyFields, "+")
}
