package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"stock-ratings/store"
	"stock-ratings/view"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stores to a browser view over HTTP",
		Long: `Loads the first stock page and the recommendations, then serves them
under /api with a server-sent event stream at /api/events. Runs until
SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.View.Addr
			}
			gin.SetMode(a.cfg.View.Mode)

			ctx := cmd.Context()
			opts := a.storeOptions()
			stocks := store.NewStockStore(a.client, opts)
			recs := store.NewRecommendationStore(a.client, opts)

			// failures stay in the stores' error state for the view to show
			stocks.FetchPage(ctx, 1)
			recs.Fetch(ctx)

			srv := view.NewServer(stocks, recs, a.logger, view.Options{
				AllowedOrigins: a.cfg.View.AllowedOrigins,
			})
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default view.addr from config)")
	return cmd
}
