package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stock-ratings/export"
	"stock-ratings/models"
	"stock-ratings/store"
)

type stocksFlags struct {
	page   int
	search string
	sort   string
	desc   bool
	csv    bool
}

func newStocksCmd(a *app) *cobra.Command {
	var f stocksFlags

	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "List one page of rating changes",
		Example: `  stockfeed stocks --page 2
  stockfeed stocks --search acme --sort target_to --desc
  stockfeed stocks --csv > stocks.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStocks(cmd, a, f)
		},
	}

	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().StringVar(&f.search, "search", "", "ticker, company, brokerage or action text")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort field (default time, newest first)")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&f.csv, "csv", false, "write CSV instead of a table")
	return cmd
}

func runStocks(cmd *cobra.Command, a *app, f stocksFlags) error {
	ctx := cmd.Context()
	st := store.NewStockStore(a.client, a.storeOptions())

	switch {
	case f.search != "" && f.page <= 1:
		st.HandleSearch(ctx, f.search)
	case f.search != "":
		st.SetSearch(f.search)
		st.SetPage(ctx, f.page)
	default:
		st.FetchPage(ctx, f.page)
	}
	if msg := st.Err(); msg != "" {
		return errors.New(msg)
	}

	if f.sort != "" {
		field, err := models.ParseSortField(f.sort)
		if err != nil {
			return err
		}
		dir := models.Ascending
		if f.desc {
			dir = models.Descending
		}
		sortBy(st, field, dir)
	}

	out := cmd.OutOrStdout()
	if f.csv {
		return export.WriteStocks(out, st.View())
	}
	return printStocks(out, st.Snapshot())
}

type sorter interface {
	SetSorting(models.SortField)
	SortField() models.SortField
	SortDirection() models.SortDirection
}

// sortBy drives SetSorting's select-or-flip behaviour to an exact state.
func sortBy(s sorter, field models.SortField, dir models.SortDirection) {
	for i := 0; i < 2; i++ {
		if s.SortField() == field && s.SortDirection() == dir {
			return
		}
		s.SetSorting(field)
	}
}

func printStocks(out io.Writer, snap store.StockSnapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tCOMPANY\tBROKERAGE\tACTION\tRATING\tTARGET\tUPSIDE\tTIME")
	for _, s := range snap.View {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s -> %s\t%.2f -> %.2f\t%s%%\t%s\n",
			s.Ticker, s.Company, s.Brokerage, s.Action,
			s.RatingFrom, s.RatingTo, s.TargetFrom, s.TargetTo,
			s.Upside().String(), s.Time)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nPage %d of %d (%d total, %d shown)\n",
		snap.CurrentPage, snap.TotalPages, snap.Total, len(snap.View))
	return err
}
