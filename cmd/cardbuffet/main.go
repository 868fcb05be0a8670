package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/spektr-org/cardbuffet/config"
	"github.com/spektr-org/cardbuffet/store"
)

// ============================================================================
// CARDBUFFET CLI — Card buffets for procurement entity profiles
// ============================================================================

const version = "0.3.0"

// Root flags shared by every subcommand.
var (
	configPath string
	verbose    bool

	// Store selection; any of these overrides [store] in the config file.
	storeFile string
	storeCSV  string
	storeDSN  string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "cardbuffet",
	Short: "Build chart and table card buffets from entity profile fields",
	Long: `cardbuffet turns one field of a population of agency, vendor or OEM
profiles into a ranked set of cards: a KPI headline, charts chosen for the
field and category count, fiscal-year trends and a summary table.

Entities come from a JSON file, a CSV export or a Postgres table.

Examples:
  cardbuffet generate --type vendor --field top_resellers --file entities.json --base total
  cardbuffet generate --type agency --field obligations --csv agencies.csv --top 5 --years FY2023 --format csv
  cardbuffet years --type agency --field obligations --dsn "$DATABASE_URL"
  cardbuffet serve --port 9090`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(os.Stderr, verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to the TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// addStoreFlags registers the store overrides on commands that read entities.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&storeFile, "file", "", "Entity JSON file")
	cmd.Flags().StringVar(&storeCSV, "csv", "", "Entity CSV export")
	cmd.Flags().StringVar(&storeDSN, "dsn", "", "Postgres connection URL")
	cmd.MarkFlagsMutuallyExclusive("file", "csv", "dsn")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging installs a console writer on the global zerolog logger.
func setupLogging(w io.Writer, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// storeOptions applies the command-line overrides to the configured store.
func storeOptions() store.Options {
	opts := cfg.StoreOptions()
	switch {
	case storeFile != "":
		opts = store.Options{Kind: "file", Path: storeFile}
	case storeCSV != "":
		opts = store.Options{Kind: "csv", Path: storeCSV}
	case storeDSN != "":
		opts = store.Options{Kind: "postgres", DSN: storeDSN}
	}
	return opts
}

// openStore opens the selected store. The returned func releases it.
func openStore(ctx context.Context) (store.EntityStore, func(), error) {
	opts := storeOptions()
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", opts.Kind, err)
	}
	release := func() {
		if c, ok := st.(io.Closer); ok {
			c.Close()
		}
	}
	log.Debug().Str("kind", opts.Kind).Str("path", opts.Path).Msg("store opened")
	return st, release, nil
}
