package cli

import (
	"errors"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/yelp-search/internal/bootstrap"
)

// ErrHistoryDisabled is returned by the history command when no database is
// configured.
var ErrHistoryDisabled = errors.New("ingest history is disabled; set database.enabled or DB_ENABLED=true")

const defaultHistoryLimit = 20

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded ingest runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.Database.Enabled {
				return ErrHistoryDisabled
			}

			db, store, err := bootstrap.SetupHistory(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout(),
				table.Row{"Run", "Started", "Entity", "Index", "Indexed", "Failed", "Duration", "Aborted"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					shortID(r.RunID),
					r.StartedAt.Local().Format(time.DateTime),
					r.Entity,
					r.Index,
					r.Indexed,
					r.Failed,
					r.Duration().Round(time.Millisecond),
					r.Aborted,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of runs to show")
	return cmd
}

func shortID(id string) string {
	const n = 8
	if len(id) <= n {
		return id
	}
	return id[:n]
}
