package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/obsidianstack/csbounds/exporter/internal/api"
	"github.com/obsidianstack/csbounds/exporter/internal/compute"
	"github.com/obsidianstack/csbounds/exporter/internal/config"
	"github.com/obsidianstack/csbounds/exporter/internal/ws"
	"github.com/obsidianstack/csbounds/pkg/martingale"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("csexporter starting", "config", *configPath)

	if err := martingale.VerifyConstants(); err != nil {
		slog.Error("engine constants corrupted", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"listen_addr", cfg.Exporter.ListenAddr,
		"metrics_path", cfg.Exporter.MetricsPath,
		"bounds", len(cfg.Exporter.Bounds),
	)
	if len(cfg.Exporter.Bounds) == 0 {
		slog.Warn("no bounds configured, only the ad hoc endpoints will return data")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine := compute.NewEngine(cfg.Exporter.Bounds)

	// WebSocket hub pushes the catalogue to dashboards on every reload.
	hub := ws.New(engine)
	go hub.Run(ctx)

	// Hot reload swaps the catalogue; the listener and metrics path stay fixed.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			if updated.Exporter.ListenAddr != cfg.Exporter.ListenAddr ||
				updated.Exporter.MetricsPath != cfg.Exporter.MetricsPath {
				slog.Warn("listen_addr and metrics_path changes need a restart")
			}
			engine.Update(updated.Exporter.Bounds)
			hub.Notify()
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	httpMux := http.NewServeMux()
	httpMux.Handle("/", api.New(engine, cfg.Exporter.MetricsPath))
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:              cfg.Exporter.ListenAddr,
		Handler:           httpMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Exporter.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("csexporter shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "err", err)
	}
}
