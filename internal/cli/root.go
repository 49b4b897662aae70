package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/surveyqc/internal/config"
)

// NewRootCmd создаёт корневую команду surveyqc со всеми подкомандами.
func NewRootCmd(version string) *cobra.Command {
	v := config.New()

	var configFile string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "surveyqc",
		Short:         "surveyqc — synthetic fish survey data and QA/QC cleaning",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (YAML)")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("rules", "", "Species vocabulary file (YAML); built-in if empty")
	flags.String("db-url", "", "Postgres URL")
	flags.String("amqp-url", "", "RabbitMQ URL")

	bindFlags(v, flags, map[string]string{
		"log.level":   "log-level",
		"log.format":  "log-format",
		"clean.rules": "rules",
		"db.url":      "db-url",
		"amqp.url":    "amqp-url",
	})

	appFn := newAppFunc(v, &configFile, &jsonOutput)

	rootCmd.AddCommand(
		NewGenerateCmd(v, appFn),
		NewCleanCmd(v, appFn),
		NewInspectCmd(appFn),
		NewSummaryCmd(appFn),
		NewLoadCmd(appFn),
		NewRunsCmd(appFn),
		NewWatchCmd(appFn),
	)

	return rootCmd
}
