package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaiso/surveyqc/internal/config"
	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/generator"
	"github.com/shaiso/surveyqc/internal/tableio"
)

// NewGenerateCmd создаёт команду генерации синтетической таблицы.
func NewGenerateCmd(v *viper.Viper, appFn AppFunc) *cobra.Command {
	var out string
	var binary string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a seeded dirty survey table",
		Long: `Generate a synthetic fish survey table with injected defects:
blank and textual counts, mis-scaled weights, misspelled species and
verbatim duplicate rows. The same seed always gives the same file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd)
			if err != nil {
				return err
			}

			r, err := app.Rules()
			if err != nil {
				return err
			}

			cfg, err := generatorConfig(app.Config.Generator)
			if err != nil {
				return err
			}

			g := generator.New(cfg, r)
			table := g.Generate()
			cfg = g.Config()

			app.Logger.Info("table generated",
				"seed", cfg.Seed,
				"rows", table.Len(),
				"sites", cfg.Sites,
			)

			if err := tableio.WriteFile(out, func(w io.Writer) error {
				return tableio.WriteRawCSV(w, table)
			}); err != nil {
				return err
			}

			if binary != "" {
				if err := tableio.WriteFile(binary, func(w io.Writer) error {
					return tableio.WriteRawBinary(w, table)
				}); err != nil {
					return err
				}
			}

			app.Out.Success(fmt.Sprintf("Generated %d rows (%d duplicates), seed %d: %s",
				table.Len(), table.Len()-cfg.Rows, cfg.Seed, out))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", tableio.Stdio, "Output CSV path (- for stdout)")
	flags.StringVar(&binary, "binary", "", "Also write the table as a binary file")
	flags.Uint64("seed", 42, "Random seed")
	flags.Int("rows", 200, "Number of base rows (before duplicates)")
	flags.Int("sites", 8, "Number of sampling sites")
	flags.String("start-date", "2023-05-01", "First day of the sampling season")
	flags.Int("season-days", 153, "Length of the sampling season in days")
	flags.Float64("blank-rate", 0.05, "Share of blank count/weight values")
	flags.Float64("zero-token-rate", 0.04, "Share of counts written as words (none, zero)")
	flags.Float64("junk-rate", 0.02, "Share of non-numeric count/weight text")
	flags.Float64("misspell-rate", 0.30, "Share of misspelled species names")
	flags.Float64("outlier-rate", 0.02, "Share of weights recorded in grams")
	flags.Float64("duplicate-rate", 0.05, "Share of rows inserted twice")

	bindFlags(v, flags, map[string]string{
		"generator.seed":            "seed",
		"generator.rows":            "rows",
		"generator.sites":           "sites",
		"generator.start_date":      "start-date",
		"generator.season_days":     "season-days",
		"generator.blank_rate":      "blank-rate",
		"generator.zero_token_rate": "zero-token-rate",
		"generator.junk_rate":       "junk-rate",
		"generator.misspell_rate":   "misspell-rate",
		"generator.outlier_rate":    "outlier-rate",
		"generator.duplicate_rate":  "duplicate-rate",
	})

	return cmd
}

// generatorConfig переводит конфигурацию приложения в generator.Config.
func generatorConfig(gc config.GeneratorConfig) (generator.Config, error) {
	start, err := time.Parse(domain.DateLayout, gc.StartDate)
	if err != nil {
		return generator.Config{}, fmt.Errorf("%w: generator.start_date %q: %v",
			config.ErrInvalidConfig, gc.StartDate, err)
	}

	return generator.Config{
		Seed:          gc.Seed,
		Rows:          gc.Rows,
		Sites:         gc.Sites,
		StartDate:     start,
		SeasonDays:    gc.SeasonDays,
		BlankRate:     gc.BlankRate,
		ZeroTokenRate: gc.ZeroTokenRate,
		JunkRate:      gc.JunkRate,
		MisspellRate:  gc.MisspellRate,
		OutlierRate:   gc.OutlierRate,
		DuplicateRate: gc.DuplicateRate,
	}, nil
}
