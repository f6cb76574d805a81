package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/rx-intake/internal/app"
	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/repository"
	"github.com/joseph-ayodele/rx-intake/internal/server"
)

func main() {
	var configFile string
	rootCmd := &cobra.Command{
		Use:   "rxintaked",
		Short: "Prescription intake and review queue gRPC server",
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (defaults to ./.env)")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(migrateCmd(&configFile))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(configFile string) (*common.Config, *slog.Logger, error) {
	cfg, err := common.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			a, err := app.Build(ctx, cfg, logger, app.Options{Registry: registry})
			if err != nil {
				logger.Error("failed to build application", "error", err)
				return err
			}
			defer a.Close()

			if err := a.DB.HealthCheck(ctx, 5*time.Second); err != nil {
				logger.Error("failed to ping database", "error", err)
				return err
			}

			// metrics endpoint
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
				if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics serve error", "error", err)
				}
			}()

			lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
			if err != nil {
				logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
				return err
			}
			svc := server.NewReviewService(a.Queue, a.Exporter, a.Intake, logger)
			grpcServer, hs := server.NewGRPCServer(svc, logger)

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("rx-intake listening", "addr", cfg.Server.GRPCAddr)
				serveErr <- grpcServer.Serve(lis)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-serveErr:
				logger.Error("gRPC serve error", "error", err)
			}

			hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			grpcServer.GracefulStop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
			return nil
		},
	}
}

func migrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the review store tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
			if err != nil {
				logger.Error("failed to open database", "error", err)
				return err
			}
			defer db.Close()

			if err := repository.Migrate(ctx, db); err != nil {
				logger.Error("migration failed", "error", err)
				return err
			}
			return nil
		},
	}
}
