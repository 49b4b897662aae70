package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaiso/surveyqc/internal/cleaner"
	"github.com/shaiso/surveyqc/internal/config"
	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/mq"
	"github.com/shaiso/surveyqc/internal/repo"
	"github.com/shaiso/surveyqc/internal/tableio"
	"github.com/shaiso/surveyqc/internal/telemetry"
)

// NewCleanCmd создаёт команду прохода очистки.
func NewCleanCmd(v *viper.Viper, appFn AppFunc) *cobra.Command {
	var in, out, binary string
	var load bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run the QA/QC cleaning pass over a survey table",
		Long: `Run the cleaning plan over a raw survey table: parse dates, coerce
count and weight to numbers, normalize species names, fix outliers and
drop duplicate (site, date) rows. Missing values are written as NA.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			r, err := app.Rules()
			if err != nil {
				return err
			}
			plan, err := app.Plan()
			if err != nil {
				return err
			}

			raw, err := tableio.LoadRaw(in)
			if err != nil {
				return err
			}

			metrics := telemetry.NewMetrics()
			runner := cleaner.New(cleaner.Config{
				Rules:   r,
				Metrics: metrics,
				Logger:  app.Logger,
			})

			res, runErr := runner.Run(ctx, plan, raw, in)

			if runErr == nil {
				if err := writeClean(res.Table, out, binary); err != nil {
					return err
				}
			}

			if path := app.Config.Metrics.File; path != "" {
				if err := metrics.WriteTextfile(path); err != nil {
					app.Logger.Warn("failed to write metrics", "path", path, "error", err)
				}
			}

			if load {
				if err := saveRun(ctx, app, res); err != nil {
					return errors.Join(runErr, err)
				}
			}

			if app.Config.AMQP.Enabled {
				notifyRun(ctx, app.Config.AMQP, app.Logger, res.Run)
			}

			report := app.Out
			if out == tableio.Stdio {
				report = report.ToStderr()
			}
			printRunReport(report, res.Run)

			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&in, "in", "i", tableio.Stdio, "Input table: CSV, or binary if the path ends in .bin (- for stdin)")
	flags.StringVarP(&out, "out", "o", tableio.Stdio, "Output CSV path (- for stdout)")
	flags.StringVar(&binary, "binary", "", "Also write the cleaned table as a binary file")
	flags.String("plan", "", "Cleaning plan (YAML or JSON); built-in if empty")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file")
	flags.BoolVar(&load, "load", false, "Store the run and the cleaned table in Postgres")
	flags.Bool("notify", false, "Publish qc.run.completed to RabbitMQ")

	bindFlags(v, flags, map[string]string{
		"clean.plan":   "plan",
		"metrics.file": "metrics-file",
		"amqp.enabled": "notify",
	})

	return cmd
}

// writeClean пишет очищенную таблицу в CSV и, если задано, в бинарный файл.
func writeClean(t *domain.Table, out, binary string) error {
	if err := tableio.WriteFile(out, func(w io.Writer) error {
		return tableio.WriteCleanCSV(w, t)
	}); err != nil {
		return err
	}

	if binary == "" {
		return nil
	}
	return tableio.WriteFile(binary, func(w io.Writer) error {
		return tableio.WriteBinary(w, t)
	})
}

// saveRun сохраняет проход и очищенную таблицу в Postgres.
func saveRun(ctx context.Context, app *App, res *cleaner.Result) error {
	pool, err := repo.NewPool(ctx, repo.PoolConfig{
		URL:      app.Config.DB.URL,
		MaxConns: app.Config.DB.MaxConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := repo.SaveRun(ctx, pool, res.Run, res.Table)
	if err != nil {
		return err
	}

	app.Logger.Info("run stored", "run_id", res.Run.ID, "rows", n)
	return nil
}

// notifyRun публикует событие о проходе. Ошибка публикации не прерывает
// команду: очищенная таблица уже записана.
func notifyRun(ctx context.Context, cfg config.AMQPConfig, logger *slog.Logger, run *domain.QCRun) {
	conn, err := mq.NewConnection(cfg.URL, logger)
	if err != nil {
		logger.Warn("failed to connect to RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
		return
	}

	pub := mq.NewPublisher(conn, mq.Exchange(cfg.Exchange), logger)
	if err := pub.PublishRunCompleted(ctx, run); err != nil {
		logger.Warn("failed to publish qc.run.completed",
			"run_id", run.ID,
			"error", err,
		)
		return
	}

	logger.Info("run published", "run_id", run.ID)
}

// printRunReport выводит счётчики шагов прохода.
func printRunReport(out *Output, run *domain.QCRun) {
	headers := []string{"STEP", "TYPE", "COUNTER", "VALUE"}

	var rows [][]string
	for _, s := range run.Steps {
		names := make([]string, 0, len(s.Counters))
		for name := range s.Counters {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			rows = append(rows, []string{s.StepID, s.Type, name, strconv.FormatInt(s.Counters[name], 10)})
		}
	}

	out.Print(headers, rows, run)

	if run.Status == domain.RunStatusSucceeded {
		out.Success(fmt.Sprintf("Run %s: %d rows in, %d rows out", run.ID, run.InputRows, run.OutputRows))
	}
}
