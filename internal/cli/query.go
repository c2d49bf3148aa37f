package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/yelp-search/internal/bootstrap"
	"github.com/jonesrussell/yelp-search/internal/domain"
	"github.com/jonesrussell/yelp-search/internal/service"
)

const defaultQuerySize = 10

func newQueryCommand(a *app) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run ad-hoc queries against the indices",
	}
	cmd.PersistentFlags().IntVarP(&size, "size", "s", defaultQuerySize, "number of results")

	cmd.AddCommand(&cobra.Command{
		Use:     "reviews <keyword>",
		Short:   "Reviews whose text contains every word of keyword",
		Example: "  yelpctl query reviews beware",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.searchService(cmd)
			if err != nil {
				return err
			}
			reviews, err := svc.ReviewsByKeyword(cmd.Context(), args[0], size)
			if err != nil {
				return err
			}
			renderReviews(cmd.OutOrStdout(), fmt.Sprintf("Found %d review(s) with keyword %q", len(reviews), args[0]),
				reviews, keywordPreviewLength)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "one-star",
		Short: "Reviews rated one star",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.searchService(cmd)
			if err != nil {
				return err
			}
			reviews, err := svc.OneStarReviews(cmd.Context(), size)
			if err != nil {
				return err
			}
			renderReviews(cmd.OutOrStdout(), fmt.Sprintf("Found %d 1-star review(s)", len(reviews)),
				reviews, oneStarPreviewLength)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "zip <postal-code>",
		Short:   "Businesses in a postal code, most reviewed first",
		Example: "  yelpctl query zip 85705",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.searchService(cmd)
			if err != nil {
				return err
			}
			businesses, err := svc.BusinessesByZip(cmd.Context(), args[0], size)
			if err != nil {
				return err
			}
			renderBusinesses(cmd.OutOrStdout(), "Businesses in "+args[0], businesses)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "state <state>",
		Short:   "Businesses in a state, most reviewed first",
		Example: "  yelpctl query state AZ",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.searchService(cmd)
			if err != nil {
				return err
			}
			businesses, err := svc.BusinessesByState(cmd.Context(), args[0], size)
			if err != nil {
				return err
			}
			renderBusinesses(cmd.OutOrStdout(),
				fmt.Sprintf("Top %d most reviewed businesses in %s", len(businesses), args[0]), businesses)
			return nil
		},
	})

	return cmd
}

func (a *app) searchService(cmd *cobra.Command) (*service.SearchService, error) {
	client, err := a.connect(cmd.Context())
	if err != nil {
		return nil, err
	}
	return service.NewSearchService(
		bootstrap.NewSearcher(a.cfg, client, a.log, nil),
		a.registry(),
		service.Config{DefaultPageSize: a.cfg.Service.DefaultPageSize, MaxPageSize: a.cfg.Service.MaxPageSize},
		a.log,
	), nil
}

func renderReviews(w io.Writer, title string, reviews []domain.Review, previewLength int) {
	if len(reviews) == 0 {
		_, _ = fmt.Fprintln(w, noResultsMessage)
		return
	}

	t := newTable(w, table.Row{"Stars", "Date", "Text"})
	t.SetTitle(title)
	wrapTextColumn(t, "Text")
	for _, r := range reviews {
		t.AppendRow(table.Row{r.Stars, r.Date, truncate(r.Text, previewLength)})
	}
	t.Render()
}

func renderBusinesses(w io.Writer, title string, businesses []domain.Business) {
	if len(businesses) == 0 {
		_, _ = fmt.Fprintln(w, noResultsMessage)
		return
	}

	t := newTable(w, table.Row{"Name", "City", "State", "Postal Code", "Stars", "Reviews"})
	t.SetTitle(title)
	for _, b := range businesses {
		t.AppendRow(table.Row{b.Name, b.City, b.State, b.PostalCode, b.Stars, b.ReviewCount})
	}
	t.Render()
}
