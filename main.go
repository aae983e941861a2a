package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fitbridge/fitbridge/pkg/config"
	"github.com/fitbridge/fitbridge/pkg/database"
	"github.com/fitbridge/fitbridge/pkg/garmin"
	"github.com/fitbridge/fitbridge/pkg/handlers"
	"github.com/fitbridge/fitbridge/pkg/middleware"
	"github.com/fitbridge/fitbridge/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("data_dir", cfg.DataDir),
		zap.String("sync_module", cfg.Sync.Module),
		zap.Duration("sync_timeout", cfg.Sync.Timeout()))

	configWriter := garmin.NewConfigWriter(cfg.DataDir, cfg.ConfigFilePath())
	runner := garmin.NewRunner(cfg.Sync.PythonBin, cfg.Sync.Module, cfg.Sync.WorkDir, cfg.Sync.Timeout())
	store := database.NewActivityStore(cfg.DatabasePath())

	// The data dir and config file may not survive restarts on ephemeral
	// filesystems; recreate the blank config at startup so the tool always
	// has a complete file to read.
	if err := configWriter.Clear(); err != nil {
		logger.Fatal("Failed to initialize sync config file", zap.Error(err))
	}

	mux := http.NewServeMux()

	// Register handlers
	activitiesHandler := handlers.NewActivitiesHandler(configWriter, runner, store, logger)
	activitiesHandler.RegisterRoutes(mux)

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	// Serve the static login page from the embedded UI
	distFS, err := fs.Sub(ui.DistFS(), "dist")
	if err != nil {
		logger.Fatal("Failed to access embedded UI", zap.Error(err))
	}
	mux.Handle("/", http.FileServer(http.FS(distFS)))

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info("Starting fitbridge",
			zap.String("addr", addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
