package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"esgdash/internal"
	"esgdash/internal/config"
	"esgdash/internal/container"
	"esgdash/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer func() {
		if err := appContainer.Shutdown(); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}()

	server, err := ui.NewServer(ui.Deps{
		Catalog:   appConfig.Catalog,
		Loader:    appContainer.Loader,
		Pipeline:  appContainer.Pipeline,
		Summaries: appContainer.Summaries,
		Metrics:   appContainer.Metrics,
		Logger:    logger,
		GinMode:   appConfig.Server.GinMode,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	logger.Info("Serving %d datasets from %s (summarizer enabled: %v)",
		len(appConfig.Catalog.Datasets), appConfig.Data.Dir, appConfig.AI.Enabled())

	if err := server.Run(ctx, ":"+appConfig.Server.Port); err != nil {
		logger.Error("Server error: %v", err)
		os.Exit(1)
	}
}
