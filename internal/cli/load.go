package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/repo"
	"github.com/shaiso/surveyqc/internal/tableio"
)

// planLoad — имя плана для записей, созданных командой load.
const planLoad = "load"

// NewLoadCmd создаёт команду загрузки очищенной таблицы в Postgres.
func NewLoadCmd(appFn AppFunc) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Copy a cleaned binary table into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if !tableio.IsBinaryPath(in) {
				return fmt.Errorf("%w: load expects a cleaned %s table, got %s",
					tableio.ErrUnsupportedFormat, tableio.BinaryExt, in)
			}

			table, err := tableio.LoadBinary(in)
			if err != nil {
				return err
			}

			run := domain.NewQCRun(planLoad, in)
			run.InputRows = table.Len()
			run.MarkSucceeded(table.Len())

			pool, err := repo.NewPool(ctx, repo.PoolConfig{
				URL:      app.Config.DB.URL,
				MaxConns: app.Config.DB.MaxConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := repo.SaveRun(ctx, pool, run, table)
			if err != nil {
				return err
			}

			app.Out.Success(fmt.Sprintf("Loaded %d rows as run %s", n, run.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Cleaned binary table (.bin)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

// NewRunsCmd создаёт команду просмотра истории проходов.
func NewRunsCmd(appFn AppFunc) *cobra.Command {
	var plan, status, id string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored cleaning runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var runID uuid.UUID
			if id != "" {
				if runID, err = uuid.Parse(id); err != nil {
					return fmt.Errorf("invalid run id %q: %w", id, err)
				}
			}

			pool, err := repo.NewPool(ctx, repo.PoolConfig{
				URL:      app.Config.DB.URL,
				MaxConns: app.Config.DB.MaxConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repo.EnsureSchema(ctx, pool); err != nil {
				return err
			}

			if id != "" {
				return showRun(ctx, app.Out, pool, runID)
			}

			runs, err := repo.NewRunRepo(pool).List(ctx, repo.RunFilter{
				Plan:   plan,
				Status: domain.RunStatus(status),
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "PLAN", "STATUS", "IN", "OUT", "STARTED", "ERROR"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID.String(),
					r.Plan,
					string(r.Status),
					strconv.Itoa(r.InputRows),
					strconv.Itoa(r.OutputRows),
					r.StartedAt.Format(time.RFC3339),
					r.Error,
				}
			}

			app.Out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Show one run with its step counters and stored rows")
	cmd.Flags().StringVar(&plan, "plan", "", "Filter by plan name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	return cmd
}

// showRun выводит один проход: счётчики шагов и число сохранённых строк.
func showRun(ctx context.Context, out *Output, db repo.DBTX, id uuid.UUID) error {
	run, err := repo.NewRunRepo(db).GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get run %s: %w", id, err)
	}

	stored, err := repo.NewObservationRepo(db).CountByRun(ctx, id)
	if err != nil {
		return err
	}

	printRunReport(out, run)
	out.Success(fmt.Sprintf("Run %s (%s, %s): %d rows stored", run.ID, run.Plan, run.Status, stored))
	return nil
}
