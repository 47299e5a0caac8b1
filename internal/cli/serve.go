package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := a.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			a.logger.Error("Failed to release backend", log.FieldError, err)
		}
	}()

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               a.cfg.Addr(),
		Store:              sess.store,
		Logger:             a.logger,
		RateLimitPerMinute: a.cfg.RateLimitPerMinute,
		Ready:              sess.backend.Ready,
		TrustedProxies:     a.cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}
	srv.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting expense tracker",
			"addr", a.cfg.Addr(),
			log.FieldBackend, a.cfg.DataBackend,
			"source", sess.source,
			log.FieldCount, sess.store.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", a.cfg.Addr(), err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
