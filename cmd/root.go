// Package cmd is the stockfeed command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stock-ratings/api"
	"stock-ratings/config"
	"stock-ratings/credentials"
	"stock-ratings/logging"
	"stock-ratings/quotes"
	"stock-ratings/store"
)

// app is the state shared by every subcommand, built before each run.
type app struct {
	cfgFile string
	verbose bool
	stderr  io.Writer

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
	client    *api.Client
	quoter    quotes.Quoter
}

// NewRootCmd builds the command tree. stderr receives the log output.
func NewRootCmd(stderr io.Writer) *cobra.Command {
	return newRootCmd(&app{stderr: stderr, quoter: quotes.NewFinanceQuoter()})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stockfeed",
		Short: "Browse stock ratings and recommendations",
		Long: `stockfeed reads analyst rating changes and scored recommendations
from the ratings service.

Configuration is read from config.yml (optional), .env and STOCKFEED_*
environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "config.yml", "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newStocksCmd(a))
	root.AddCommand(newRecommendationsCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(os.Stderr).ExecuteContext(ctx)
}

func (a *app) init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	logger, closer, err := logging.New(cfg.Log, a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger
	a.logCloser = closer

	creds := credentials.NewChainProvider(credentials.NewEnvProvider())
	client, err := api.NewClient(cfg.API, api.WithCredentials(creds), api.WithLogger(logger))
	if err != nil {
		return err
	}
	a.client = client

	logger.Debug().
		Str("base_url", cfg.API.BaseURL).
		Bool("server_filtering", cfg.Store.ServerFiltering).
		Str("search_engine", cfg.Store.SearchEngine).
		Msg("Configured")
	return nil
}

func (a *app) close() error {
	if a.client != nil {
		a.client.Close()
	}
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}

func (a *app) storeOptions() store.Options {
	minimum := a.cfg.Store.MinimumScore
	return store.Options{
		Limit:           a.cfg.Store.Limit,
		MinimumScore:    &minimum,
		ServerFiltering: a.cfg.Store.ServerFiltering,
		Engine:          a.cfg.Store.NewEngine(a.logger),
		Language:        a.cfg.Store.LanguageTag(),
		Logger:          &a.logger,
	}
}
