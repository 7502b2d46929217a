package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agenda/internal/api"
	"agenda/internal/config"
	"agenda/internal/database"
	"agenda/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rt.cfg, &rt.logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	if cfg.Backup.Enabled {
		backups := database.NewBackupService(a.db, cfg.Backup, logger)
		go backups.Start(ctx)
	}

	checks := map[string]api.Check{"mongo": a.db.Ping}
	if a.rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() }
	}

	// Assigned only when present so handlers see a nil interface otherwise.
	var oauth api.OAuth
	if a.oauth != nil {
		oauth = a.oauth
	}

	server := api.NewServer(a.directory, a.bookings, oauth, api.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AdminAPIKey:      cfg.Admin.APIKey,
		RequestTimeout:   cfg.RequestTimeout(),
		CalendarEnabled:  cfg.Calendar.Enabled,
		CalendarAuthMode: cfg.Calendar.AuthMode,
		CalendarID:       cfg.Calendar.CalendarID,
		CredentialsPath:  cfg.Calendar.CredentialsPath,
		Checks:           checks,
	}, logger)

	logger.Info().Str("addr", cfg.Server.Address).Str("timezone", cfg.Booking.Timezone).Msg("agenda api starting")
	return server.Run(ctx, cfg.Server.Address)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
