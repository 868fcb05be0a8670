package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/spektr-org/cardbuffet/catalog"
	"github.com/spektr-org/cardbuffet/engine"
)

// ============================================================================
// GENERATE — One buffet for (entity type, field)
// ============================================================================

var (
	genType     string
	genField    string
	genTop      string
	genBase     string
	genOverflow bool
	genYears    string
	genDepts    []string
	genClasses  []string
	genNames    []string
	genCurrency string
	genFormat   string
	genOut      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the card buffet for one field",
	Long: `Generate the card buffet for one field of one entity type.

Formats:
  json      Full result envelope (default)
  pretty    Indented JSON
  csv       Every card's table, one block per card (ready for Sheets/Excel)`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addStoreFlags(generateCmd)

	f := generateCmd.Flags()
	f.StringVar(&genType, "type", "", "Entity type: agency, vendor, oem")
	f.StringVar(&genField, "field", "", "Profile field, e.g. obligations or top_resellers")
	f.StringVar(&genTop, "top", "", "Display count: a number or \"all\" (default from config)")
	f.StringVar(&genBase, "base", "", "Percentage base: total or displayed (default from config)")
	f.BoolVar(&genOverflow, "overflow", true, "Fold the remainder into an \"All Other\" bucket")
	f.StringVar(&genYears, "years", "", "Fiscal-year filter, e.g. 2023, FY2022-FY2024")
	f.StringSliceVar(&genDepts, "dept", nil, "Department filter (repeatable)")
	f.StringSliceVar(&genClasses, "class", nil, "Classification filter (repeatable)")
	f.StringSliceVar(&genNames, "names", nil, "Restrict to these entity names")
	f.StringVar(&genCurrency, "currency", "", "Currency symbol for money values")
	f.StringVar(&genFormat, "format", "json", "Output format: json, pretty, csv")
	f.StringVarP(&genOut, "out", "o", "", "Write output to file instead of stdout")
	generateCmd.MarkFlagRequired("type")
	generateCmd.MarkFlagRequired("field")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts, err := viewOptions()
	if err != nil {
		return err
	}
	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	entityType := engine.EntityType(strings.ToLower(genType))
	if !entityType.Valid() {
		return fmt.Errorf("%w: %q", engine.ErrUnknownEntityType, genType)
	}

	st, release, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	entities, err := st.Entities(cmd.Context(), entityType)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}

	result := engine.Generate(entityType, genField, entities, opts, engineOpts...)
	log.Info().
		Str("type", string(entityType)).
		Str("field", result.Field).
		Int("entities", len(entities)).
		Int("cards", len(result.Cards)).
		Int("warnings", len(result.Warnings)).
		Msg("buffet generated")
	if result.Diagnostic != nil {
		log.Warn().Str("stage", result.Diagnostic.Stage).Msg(result.Diagnostic.Message)
	}

	w, closeOut, err := openOutput(genOut)
	if err != nil {
		return err
	}
	defer closeOut()

	switch genFormat {
	case "csv":
		err = writeCSV(w, result)
	case "json", "pretty":
		err = writeJSON(w, result, genFormat)
	default:
		return fmt.Errorf("unknown format %q (json, pretty, csv)", genFormat)
	}
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("generation failed: %s", strings.Join(result.Errors, "; "))
	}
	return nil
}

// viewOptions starts from the config defaults and applies the flags that were set.
func viewOptions() (engine.ViewOptions, error) {
	opts := cfg.ViewDefaults()

	if genTop != "" {
		n, err := engine.ParseDisplayCount(genTop)
		if err != nil {
			return opts, err
		}
		opts.DisplayCount = n
	}
	if genBase != "" {
		base, err := engine.ParsePercentageBase(genBase)
		if err != nil {
			return opts, err
		}
		opts.PercentageBase = base
	}
	if genYears != "" {
		r, err := catalog.ParseYearRange(genYears)
		if err != nil {
			return opts, err
		}
		opts.YearFilter = r
	}

	opts.IncludeOverflowBucket = genOverflow
	opts.DepartmentFilter = genDepts
	opts.ClassificationFilter = genClasses
	opts.SelectedEntityNames = genNames
	if genCurrency != "" {
		opts.Currency = genCurrency
	}
	return opts, nil
}
