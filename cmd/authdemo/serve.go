package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jrsteele09/go-social-login/internal/config"
	"github.com/jrsteele09/go-social-login/internal/metrics"
	"github.com/jrsteele09/go-social-login/server"
	"github.com/jrsteele09/go-social-login/server/mockusers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the mock OAuth provider (authorize, token, userinfo, callback echo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(c.cfg.GetAppName())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for {
				err := serve(ctx, c.cfg)
				if err == nil || ctx.Err() != nil {
					log.Info().Msg("Server stopped")
					return err
				}
				log.Error().Err(err).Msg("Error running server, restarting")
				time.Sleep(time.Second)
			}
		},
	}
}

func serve(ctx context.Context, cfg config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	handler, err := server.New(cfg, mockusers.NewInMemoryRepo(), server.WithMetrics(m))
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: cfg.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Mock OAuth provider listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server.ListenAndServe: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server.Shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
