package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/surveyqc/internal/summary"
	"github.com/shaiso/surveyqc/internal/tableio"
)

// NewSummaryCmd создаёт команду профиля колонок.
func NewSummaryCmd(appFn AppFunc) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show a per-column profile of a survey table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd)
			if err != nil {
				return err
			}

			table, err := tableio.LoadRaw(in)
			if err != nil {
				return err
			}

			profile, err := summary.Summarize(table)
			if err != nil {
				return err
			}

			headers := []string{"COLUMN", "TYPE", "MISSING", "DISTINCT", "MEAN", "MIN", "MEDIAN", "MAX", "TOP"}
			rows := make([][]string, len(profile.Columns))
			for i, c := range profile.Columns {
				row := []string{c.Name, c.Type, strconv.Itoa(c.Missing), strconv.Itoa(c.Distinct), "", "", "", "", ""}
				if c.Stats != nil {
					row[4] = formatStat(c.Stats.Mean)
					row[5] = formatStat(c.Stats.Min)
					row[6] = formatStat(c.Stats.Median)
					row[7] = formatStat(c.Stats.Max)
				}
				if len(c.Top) > 0 {
					row[8] = c.Top[0].Value + " (" + strconv.Itoa(c.Top[0].Count) + ")"
				}
				rows[i] = row
			}

			app.Out.Print(headers, rows, profile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", tableio.Stdio, "Input table: CSV, or binary if the path ends in .bin")

	return cmd
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
