package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/campaign-stack/campaign/internal/contact"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/handlers"
	campaignnats "github.com/telhawk-systems/campaign-stack/campaign/internal/nats"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/repository"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/server"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/service"
	"github.com/telhawk-systems/campaign-stack/common/messaging"
	"github.com/telhawk-systems/campaign-stack/common/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the campaign service",
	Long: `Run the HTTP API and, when NATS is enabled, the trigger worker.

Executions received over NATS are system-triggered. Executions requested
through the HTTP API are user-initiated.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connString := cfg.Database.Postgres.ConnString()
	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations")
		if err := runMigrations(cfg.Database.MigrationsPath, connString, "up"); err != nil {
			return err
		}
	}

	repo, err := repository.NewPostgresRepository(ctx, connString)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer repo.Close()

	redisClient, err := newRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn("redis disabled, current-contact lookups will fail")
	}
	tracker := contact.NewTracker(redisClient, cfg.Redis.SessionTTL)

	natsClient, err := newNATSClient(cfg.NATS, logger)
	if err != nil {
		return err
	}

	var notifier service.Notifier
	if natsClient != nil {
		defer natsClient.Drain()
		notifier = campaignnats.NewPublisher(natsClient)
	}

	svc := newService(cfg, repo, tracker, notifier, logger)

	if natsClient != nil {
		natsHandler := campaignnats.NewHandler(natsClient, svc, logger)
		if err := natsHandler.Start(ctx); err != nil {
			return err
		}
		defer natsHandler.Stop()
	}

	handler := handlers.NewHandler(svc, tracker, logger).
		WithCheck("postgres", svc.Ping)
	if tracker.IsEnabled() {
		handler.WithCheck("redis", tracker.Ping)
	}
	if natsClient != nil {
		handler.WithCheck("nats", natsCheck(natsClient))
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.EventLog.TrustedProxies)
	if err != nil {
		return err
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler, metricsPath, proxies, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("campaign service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

func natsCheck(client messaging.Client) handlers.CheckFunc {
	return func(ctx context.Context) error {
		status := messaging.CheckClientHealth(ctx, client)
		if !status.Healthy() {
			return errors.New(status.Error)
		}
		return nil
	}
}
