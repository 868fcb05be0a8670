package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/spektr-org/cardbuffet/catalog"
	"github.com/spektr-org/cardbuffet/engine"
	"github.com/spektr-org/cardbuffet/server"
	"github.com/spektr-org/cardbuffet/store"
)

// ============================================================================
// YEARS / FIELDS / SERVE / IMPORT
// ============================================================================

var (
	yearsType  string
	yearsField string

	servePort int

	importDSN string
)

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List the fiscal years observed for a field",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType := engine.EntityType(strings.ToLower(yearsType))
		st, release, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		entities, err := st.Entities(cmd.Context(), entityType)
		if err != nil {
			return fmt.Errorf("load entities: %w", err)
		}
		years, err := engine.FiscalYears(entityType, yearsField, entities)
		if err != nil {
			return err
		}
		for _, y := range years {
			fmt.Fprintf(cmd.OutOrStdout(), "FY%d\n", y)
		}
		return nil
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the catalogued profile fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tLABEL\tSHAPE\tUNIT")
		for _, r := range catalog.Recipes() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Field, r.Label, r.Shape, r.Unit())
		}
		return tw.Flush()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve buffets over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		st, release, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		srv, err := server.New(cfg, st, log.Logger)
		if err != nil {
			return err
		}
		return srv.Run(fmt.Sprintf(":%d", cfg.Server.Port))
	},
}

var importCmd = &cobra.Command{
	Use:   "import <entities.json|entities.csv>",
	Short: "Load an entity export into Postgres",
	Long: `Load a JSON or CSV entity export into the Postgres entities table,
creating the table when missing. Rows are upserted on (type, id).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entities, err := readEntities(args[0])
		if err != nil {
			return err
		}

		dsn := lo.Ternary(importDSN != "", importDSN, cfg.StoreOptions().DSN)
		if dsn == "" {
			return fmt.Errorf("no postgres DSN: pass --dsn or set %s", cfg.Store.DSNEnv)
		}
		pg, err := store.NewPostgresStore(cmd.Context(), dsn)
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := pg.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		if err := pg.Upsert(cmd.Context(), entities); err != nil {
			return err
		}

		byType := lo.CountValuesBy(entities, func(e engine.Entity) engine.EntityType { return e.Type })
		for _, t := range engine.EntityTypes {
			log.Info().Str("type", string(t)).Int("entities", byType[t]).Msg("imported")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(yearsCmd, fieldsCmd, serveCmd, importCmd)

	addStoreFlags(yearsCmd)
	yearsCmd.Flags().StringVar(&yearsType, "type", "", "Entity type: agency, vendor, oem")
	yearsCmd.Flags().StringVar(&yearsField, "field", "", "Profile field")
	yearsCmd.MarkFlagRequired("type")
	yearsCmd.MarkFlagRequired("field")

	addStoreFlags(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Listen port (overrides config)")

	importCmd.Flags().StringVar(&importDSN, "dsn", "", "Postgres connection URL (default from config)")
}

// readEntities parses an export by file extension, keeping every entity type.
func readEntities(path string) ([]engine.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return store.ParseEntitiesCSV(data)
	}
	return store.ParseEntitiesJSON(data)
}
