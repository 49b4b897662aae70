package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/surveyqc/internal/qa"
	"github.com/shaiso/surveyqc/internal/tableio"
)

// NewInspectCmd создаёт команду QA-проверки таблицы.
func NewInspectCmd(appFn AppFunc) *cobra.Command {
	var in string
	var cleaned bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Report data quality defects in a survey table",
		Long: `Without --cleaned, count defects per class in a raw table: non-numeric
counts and weights, off-vocabulary species, outliers, duplicate keys.
With --cleaned, check that a cleaned table holds its invariants and
exit with an error if it does not.`,
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

			table, err := tableio.LoadRaw(in)
			if err != nil {
				return err
			}

			if cleaned {
				violations := qa.CheckCleaned(table, r)

				headers := []string{"ROW", "COLUMN", "VALUE", "MESSAGE"}
				rows := make([][]string, len(violations))
				for i, v := range violations {
					rows[i] = []string{strconv.Itoa(v.Row), v.Column, v.Value, v.Message}
				}
				app.Out.Print(headers, rows, violations)

				if len(violations) > 0 {
					return fmt.Errorf("%w: %d violations in %d rows", ErrInvariantViolation, len(violations), table.Len())
				}
				app.Out.Success(fmt.Sprintf("OK: %d rows hold all invariants", table.Len()))
				return nil
			}

			report := qa.Inspect(table, r)

			headers := []string{"ISSUE", "SEVERITY", "FIELD", "COUNT", "PERCENT", "ROWS"}
			rows := make([][]string, len(report.Issues))
			for i, is := range report.Issues {
				rows[i] = []string{
					is.Type,
					string(is.Severity),
					is.Field,
					strconv.Itoa(is.Count),
					strconv.FormatFloat(is.Percentage, 'f', 1, 64),
					joinInts(is.Rows),
				}
			}
			app.Out.Print(headers, rows, report)
			app.Out.Success(fmt.Sprintf("%d defects in %d rows", report.Total(), report.Rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", tableio.Stdio, "Input table: CSV, or binary if the path ends in .bin")
	cmd.Flags().BoolVar(&cleaned, "cleaned", false, "Check cleaned-table invariants instead of profiling defects")

	return cmd
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
