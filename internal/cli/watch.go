package cli

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/shaiso/surveyqc/internal/mq"
)

// NewWatchCmd создаёт команду чтения событий qc.run.completed.
func NewWatchCmd(appFn AppFunc) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print qc.run.completed events as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFn(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			conn, err := mq.NewConnection(app.Config.AMQP.URL, app.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(ctx, conn); err != nil {
				return err
			}

			var consumer *mq.Consumer
			var seen atomic.Int64
			handler := mq.RunCompletedHandler(func(_ context.Context, p mq.RunCompletedPayload) error {
				app.Out.Print(
					[]string{"RUN", "PLAN", "STATUS", "IN", "OUT", "DURATION_MS"},
					[][]string{{
						p.RunID.String(), p.Plan, string(p.Status),
						fmt.Sprint(p.InputRows), fmt.Sprint(p.OutputRows), fmt.Sprint(p.DurationMs),
					}},
					p,
				)
				if count > 0 && seen.Add(1) >= int64(count) {
					consumer.Stop()
				}
				return nil
			})

			consumer = mq.NewConsumer(conn, app.Logger, mq.ConsumerConfig{
				Queue:   string(mq.QueueRunsCompleted),
				Handler: handler,
			})
			return consumer.Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after N events (0 = run until interrupted)")

	return cmd
}
