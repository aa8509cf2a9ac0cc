// Command loadgen replays a weighted expiry workload against a running server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vendfleet/backend/internal/infrastructure/logger"
	"github.com/vendfleet/backend/internal/loadgen"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		logLevel   string
	)
	flag.StringVar(&configPath, "config", "loadgen.yaml", "Path to the loadgen YAML config")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
		Service:    "loadgen",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := loadgen.LoadConfig(configPath)
	if err != nil {
		log.Fatal("Failed to load config", zap.String("path", configPath), zap.Error(err))
	}

	metrics := loadgen.NewMetrics()
	var metricsServer *http.Server
	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", zap.Error(err))
			}
		}()
		log.Info("Serving metrics", zap.String("addr", cfg.Metrics.Listen))
	}

	runner, err := loadgen.NewRunner(cfg, metrics, log)
	if err != nil {
		log.Fatal("Failed to prepare run", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting load",
		zap.String("name", cfg.Name),
		zap.String("target", cfg.Target.BaseURL),
		zap.Float64("qps", cfg.QPS),
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
	)
	summary := runner.Run(ctx)

	log.Info("Load finished",
		zap.Int64("sent", summary.Sent),
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("duplicates", summary.Duplicates),
		zap.Int64("client_errors", summary.ClientErrs),
		zap.Int64("server_errors", summary.ServerErrs),
		zap.Int64("transport_errors", summary.TransportErrs),
		zap.Duration("elapsed", summary.Elapsed),
		zap.Float64("achieved_qps", float64(summary.Sent)/summary.Elapsed.Seconds()),
	)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	if summary.ServerErrs > 0 {
		os.Exit(2)
	}
}
