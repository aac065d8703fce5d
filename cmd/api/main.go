package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mlmdview/infrastructure/config"
	"mlmdview/infrastructure/di"
	"mlmdview/interfaces/http/rest"
	"mlmdview/pkg/ratelimit"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	server := rest.NewServer(cfg.ServerAddress, container.Router.Setup(), container.Logger)
	if limiter, ok := container.Limiter.(*ratelimit.ClientLimiter); ok {
		server.Go(func(ctx context.Context) error {
			return limiter.Run(ctx, 5*time.Minute)
		})
	}

	container.Logger.Info("Serving lineage graphs",
		zap.String("environment", cfg.Environment),
		zap.String("backend", cfg.StoreBackend),
	)

	if err := server.Run(ctx); err != nil {
		container.Logger.Error("Server stopped with error", zap.Error(err))
	}

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
	log.Println("Server stopped")
}
