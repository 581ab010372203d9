package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/lease-engine/api"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/portfolio"
	"github.com/warp/lease-engine/store/sqlite"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		port     int
		dbPath   string
		window   int
		seed     string
		timeZone string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API over a SQLite database.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
for in-flight requests, then closes the database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("db") {
				cfg.Database.Path = dbPath
			}
			if flags.Changed("renewal-window") {
				cfg.Engine.RenewalWindowDays = window
			}
			if flags.Changed("tz") {
				cfg.Engine.DefaultTimeZone = timeZone
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			log, err := root.logger(cfg, "stdout")
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				log.Error("failed to initialize database", zap.String("path", cfg.Database.Path), zap.Error(err))
				return err
			}
			defer store.Close()

			evaluator := portfolio.NewEvaluator(calendar.SystemClock{}, cfg.Engine.RenewalWindowDays)
			handler := api.NewHandler(store, evaluator, log)
			handler.DefaultZone = cfg.Engine.DefaultTimeZone

			if seed != "" {
				if err := api.LoadScenarioInto(cmd.Context(), store, seed, evaluator.Now()); err != nil {
					return fmt.Errorf("seeding %q: %w", seed, err)
				}
				log.Info("scenario loaded", zap.String("scenario", seed))
			}

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
				ReadTimeout:  cfg.Server.ReadTimeout.Duration,
				WriteTimeout: cfg.Server.WriteTimeout.Duration,
				IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			}
			return run(cmd.Context(), server, log)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP server port")
	cmd.Flags().StringVar(&dbPath, "db", "leases.db", `SQLite database path (":memory:" for in-memory)`)
	cmd.Flags().IntVar(&window, "renewal-window", 90, "Days before lease end that count as expiring")
	cmd.Flags().StringVar(&timeZone, "tz", "UTC", "Default zone for stateless evaluations")
	cmd.Flags().StringVar(&seed, "seed", "", "Reset and load a demo scenario at startup")
	return cmd
}

// run serves until ctx is cancelled or a signal arrives, then shuts down.
func run(ctx context.Context, server *http.Server, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
