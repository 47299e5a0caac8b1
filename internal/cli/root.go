// Package cli wires configuration, logging, the slot backend and the store
// into the cobra commands of the expense tracker.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/persist"
	"expensetracker/internal/store"
)

// app carries what every command needs once the persistent pre-run has
// loaded the environment.
type app struct {
	envFile string
	cfg     *config.Config
	logger  *log.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "expense-tracker",
		Short:         "Track expenses with a running total",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		a.serveCmd(),
		a.listCmd(),
		a.totalCmd(),
		a.addCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads .env (missing file is fine), then validates the configuration.
func (a *app) setup(cmd *cobra.Command) error {
	_ = godotenv.Load(a.envFile)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	log.SetDefault(a.logger)
	return nil
}

// session is an opened store together with the resources behind it.
type session struct {
	store   *store.Store
	source  persist.Source
	backend *backend.Result
	events  *amqp.Client
	forward *amqp.Forwarder
}

func (s *session) Close() error {
	var errs []error
	if s.forward != nil {
		s.forward.Close()
	}
	if s.events != nil {
		errs = append(errs, s.events.Close())
	}
	errs = append(errs, s.backend.Close())
	return errors.Join(errs...)
}

// openSession builds the configured backend, loads the list and attaches
// the persistence bridge. With publish set and AMQP configured, every
// mutation is also published as a change event.
func (a *app) openSession(ctx context.Context, publish bool) (*session, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(a.logger).Create(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}

	bridge := persist.NewBridge(res.Slot, persist.Options{
		Key:          a.cfg.SlotKey,
		PersistEmpty: a.cfg.PersistEmpty,
		Backend:      a.cfg.DataBackend,
		Logger:       a.logger,
	})
	st, src, err := persist.Open(ctx, bridge,
		store.WithIDPolicy(store.IDPolicy(a.cfg.IDPolicy)),
		store.WithLogger(a.logger))
	if err != nil {
		_ = res.Close()
		return nil, err
	}

	s := &session{store: st, source: src, backend: res}
	if publish && a.cfg.AMQPEnabled() {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
		if err != nil {
			// change events are optional; the list is still saved
			a.logger.WarnContext(ctx, "AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			s.forward = amqp.Attach(st, client, a.logger)
			s.events = client
		}
	}
	return s, nil
}
