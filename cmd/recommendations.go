package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stock-ratings/analytics"
	"stock-ratings/export"
	"stock-ratings/quotes"
	"stock-ratings/store"
)

type recommendationsFlags struct {
	limit    int
	minScore int
	quotes   bool
	csv      bool
}

func newRecommendationsCmd(a *app) *cobra.Command {
	var f recommendationsFlags

	cmd := &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "Show the best scored recommendations",
		Example: `  stockfeed recommendations --min-score 9
  stockfeed recommendations --quotes
  stockfeed recommendations --limit 50 --csv > recs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.storeOptions()
			if cmd.Flags().Changed("limit") {
				opts.Limit = f.limit
			}
			if cmd.Flags().Changed("min-score") {
				if f.minScore < 0 {
					return fmt.Errorf("--min-score cannot be negative")
				}
				opts.MinimumScore = &f.minScore
			}
			return runRecommendations(cmd, a, f, opts)
		},
	}

	cmd.Flags().IntVar(&f.limit, "limit", 10, "number of recommendations to request")
	cmd.Flags().IntVar(&f.minScore, "min-score", 7, "minimum recommendation score")
	cmd.Flags().BoolVar(&f.quotes, "quotes", false, "add live prices and upside to target")
	cmd.Flags().BoolVar(&f.csv, "csv", false, "write CSV instead of a table")
	return cmd
}

func runRecommendations(cmd *cobra.Command, a *app, f recommendationsFlags, opts store.Options) error {
	ctx := cmd.Context()
	rs := store.NewRecommendationStore(a.client, opts)
	rs.Fetch(ctx)
	if msg := rs.Err(); msg != "" {
		return errors.New(msg)
	}

	out := cmd.OutOrStdout()
	snap := rs.Snapshot()

	if f.quotes {
		rows := snap.Top
		if f.csv {
			rows = snap.View
		}
		quoted := quotes.Annotate(ctx, a.quoter, rows, a.logger)
		if f.csv {
			return export.WriteQuoted(out, quoted)
		}
		return printQuoted(out, quoted, snap)
	}

	if f.csv {
		return export.WriteRecommendations(out, snap.View)
	}
	return printRecommendations(out, snap)
}

func printRecommendations(out io.Writer, snap store.RecommendationSnapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTICKER\tCOMPANY\tSCORE\tRATING\tTARGET")
	for i, r := range snap.Top {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%.2f\n",
			i+1, r.Ticker, r.Company, r.RecommendationScore, r.RatingTo, r.TargetTo)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return printSummary(out, snap)
}

func printQuoted(out io.Writer, quoted []quotes.Quoted, snap store.RecommendationSnapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTICKER\tSCORE\tTARGET\tPRICE\tUPSIDE")
	for i, q := range quoted {
		price, upside := "n/a", "n/a"
		if q.Err == nil {
			price = fmt.Sprintf("%.2f", q.Price)
			upside = q.UpsideToTarget.String() + "%"
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%s\t%s\n",
			i+1, q.Ticker, q.RecommendationScore, q.TargetTo, price, upside)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return printSummary(out, snap)
}

func printSummary(out io.Writer, snap store.RecommendationSnapshot) error {
	d := snap.Distribution
	_, err := fmt.Fprintf(out,
		"\n%d recommendations (min score %d), average score %.2f\n"+
			"%s: %d  %s: %d  %s: %d  %s: %d\n",
		len(snap.Recommendations), snap.MinimumScore, snap.AverageScore,
		analytics.BucketExcellent, d.Excellent,
		analytics.BucketGood, d.Good,
		analytics.BucketFair, d.Fair,
		analytics.BucketPoor, d.Poor)
	return err
}
