package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sitehost/internal/config"
	"sitehost/internal/db"
	httpapi "sitehost/internal/http"
	"sitehost/internal/logger"
	"sitehost/internal/migrations"
	"sitehost/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zlog, closeLog, err := logger.New(cfg.LogDir, cfg.LogRetentionDays, true)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Errorw("server stopped", "err", err)
		closeLog()
		log.Fatalf("server: %v", err)
	}
	zlog.Infow("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, zlog *zap.SugaredLogger) error {
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := migrations.Apply(ctx, database, cfg.MigrationsDir); err != nil {
		return err
	}
	store, err := services.NewStore(cfg.StorageRoot)
	if err != nil {
		return err
	}

	hub := services.NewMetricsHub()
	server := httpapi.NewServer(database, cfg, store, hub, zlog)

	if cfg.OrphanSweepOnStart {
		if _, err := server.Reconciler.Sweep(ctx); err != nil {
			zlog.Warnw("startup orphan sweep failed", "err", err)
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		metricsLoop(gctx, server)
		return nil
	})
	g.Go(func() error {
		zlog.Infow("listening", "addr", httpServer.Addr, "storage", cfg.StorageRoot)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func metricsLoop(ctx context.Context, server *httpapi.Server) {
	if server.Config.MetricsSampleSeconds <= 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(server.Config.MetricsSampleSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := services.CaptureMetrics(ctx, server.DB, server.Config.StorageRoot)
			if err != nil {
				server.Log.Warnw("metrics capture failed", "err", err)
				continue
			}
			server.MetricsHub.Broadcast(sample)
		case <-ctx.Done():
			return
		}
	}
}
