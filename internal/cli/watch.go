package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"expensetracker/internal/amqp"
	"expensetracker/internal/log"
	"expensetracker/internal/store"
)

var errAMQPDisabled = errors.New("watch needs AMQP_URL to be set")

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print change events published by running trackers",
		Args:  cobra.NoArgs,
		RunE:  a.runWatch,
	}
}

func (a *app) runWatch(cmd *cobra.Command, _ []string) error {
	if !a.cfg.AMQPEnabled() {
		return errAMQPDisabled
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	a.logger.Info("Watching change events", "queue", client.Queue(), log.FieldOperation, log.OpConsume)
	out := cmd.OutOrStdout()
	err = client.ConsumeChanges(ctx, func(_ context.Context, m *amqp.ChangeMessage) error {
		_, err := fmt.Fprintln(out, formatChange(m))
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func formatChange(m *amqp.ChangeMessage) string {
	ts := m.Timestamp.UTC().Format(time.RFC3339)
	if m.Op == store.OpDelete {
		return fmt.Sprintf("%s %-6s #%d", ts, m.Op, m.ID)
	}
	return fmt.Sprintf("%s %-6s #%d %s", ts, m.Op, m.ID, describe(m.Expense()))
}
