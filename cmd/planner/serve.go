package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"planner/internal/cache"
	"planner/internal/cli"
	apphttp "planner/internal/http"
	"planner/internal/log"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(a *app) *cobra.Command {
	var rateLimit int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := cli.ShutdownContext(a.logger)
			defer stop()

			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			logger := a.logger.WithComponent(log.ComponentApp)

			cacheManager := cache.NewManager(a.logger.WithComponent(log.ComponentCache).Slog())
			if s.backend.Cached != nil {
				cacheManager.Register(s.backend.Cached)
				cacheManager.StartCleanup(a.cfg.CacheTTL)
			}

			srv := apphttp.NewServer(":"+a.cfg.Port, s.planner, a.logger, apphttp.WithRateLimit(rateLimit))
			srv.ReadTimeout = 10 * time.Second
			srv.WriteTimeout = 10 * time.Second
			srv.IdleTimeout = 60 * time.Second
			srv.MaxHeaderBytes = 1 << 16

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("Starting planner server",
					"port", a.cfg.Port,
					"backend", a.cfg.DataBackend,
					log.FieldMonth, s.planner.Month(),
					"amqp_enabled", s.publisher != nil)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
			case err, ok := <-serveErr:
				if ok {
					logger.Error("Server error", log.FieldError, err, "port", a.cfg.Port)
					return err
				}
			}

			return cli.GracefulShutdown(logger, shutdownTimeout,
				cli.ShutdownStep{Name: "http", Fn: srv.Shutdown},
				cli.ShutdownStep{Name: "cache", Fn: func(context.Context) error {
					cacheManager.Stop()
					return nil
				}},
			)
		},
	}
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 60, "mutating requests allowed per client per minute")
	return cmd
}
