package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"rfidtags/config"
	"rfidtags/internal/adapters/email"
	httpdelivery "rfidtags/internal/delivery/http"
	"rfidtags/internal/delivery/http/controllers"
	"rfidtags/internal/ingest"
	"rfidtags/internal/metrics"
	"rfidtags/internal/repository/postgres"
	"rfidtags/internal/services"
)

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Connect to Postgres and serve the tag API until SIGINT or SIGTERM.

Configuration is read from the environment (DATABASE_URL or DB_*, PORT,
REQUEST_TIMEOUT, SHUTDOWN_TIMEOUT, CORS_ALLOWED_ORIGINS, EMAIL_*, AWS_*,
ALERT_RECIPIENTS, LOG_LEVEL, LOG_FILE).`,
		RunE: serveCommand,
	}
	cobraflags.RegisterMap(serveCmd, rootFlags)
	return serveCmd
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFiles()...)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl, postgres.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	store := postgres.NewTagStore(db)
	m := metrics.New(prometheus.DefaultRegisterer)
	pipeline := ingest.NewPipeline(store, logger, m)

	mailer := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	alerts := services.NewAlertService(mailer, renderer, cfg.AlertRecipients, logger)

	tagService := services.NewTagService(store, pipeline, alerts, logger, cfg.RequestTimeout)
	mux := httpdelivery.NewRouter(
		controllers.NewTagController(logger, tagService, nil),
		controllers.NewHealthController(logger, tagService),
		prometheus.DefaultGatherer,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpdelivery.NewHandler(mux, logger, m, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
