package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "sportsbuddy/docs"
	httpdelivery "sportsbuddy/internal/delivery/http"
	"sportsbuddy/internal/repository/postgres"
)

func (c *cli) serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx, migrate, nil)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// serve runs the API until ctx is cancelled, then drains in-flight requests
// for up to the configured grace period. ready, if set, receives the bound address.
func (c *cli) serve(ctx context.Context, migrate bool, ready chan<- string) error {
	a, err := openApp(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate && a.db != nil {
		applied, err := postgres.Migrate(ctx, a.db)
		if err != nil {
			return err
		}
		c.logger.Info("migrations applied", "count", len(applied))
	}

	srv := &http.Server{
		Handler: httpdelivery.NewRouter(httpdelivery.RouterConfig{
			Logger:             c.logger,
			EventService:       a.events,
			AuthService:        a.auth,
			Authenticator:      a.authn,
			CORSAllowedOrigins: c.cfg.CORSOrigins,
			TokenTTL:           c.cfg.JWT.Expiry,
			SecureCookie:       c.cfg.IsProduction(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	ln, err := net.Listen("tcp", ":"+c.cfg.Port)
	if err != nil {
		return err
	}
	if ready != nil {
		ready <- ln.Addr().String()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.logger.Info("server starting", "addr", ln.Addr().String(), "store", c.cfg.Store, "env", c.cfg.Environment)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), c.cfg.ShutdownGrace)
		defer cancel()
		c.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
