package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"escrowkit/config"
	"escrowkit/core"
	"escrowkit/observability/logging"
	"escrowkit/observability/metrics"
	"escrowkit/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "Path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("escrowd", "error", "").Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger := logging.Setup("escrowd", cfg.LogLevel, cfg.LogPath)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("failed to open database", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	node, err := core.NewNode(db, cfg, logger, nil)
	if err != nil {
		logger.Error("failed to construct node", "error", err)
		_ = db.Close()
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
	go func() {
		logger.Info("metrics listening", "addr", cfg.MetricsAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	_ = server.Close()
	if err := node.Close(); err != nil {
		logger.Error("failed to close node", "error", err)
		os.Exit(1)
	}
}
