package main

import (
	"context"
	"os"

	"investbot/config"
	"investbot/pkg/bot"
	"investbot/pkg/logger"
	"investbot/storage/postgres"
)

// Registers webhooks for every configured bot role. Run once after
// deploying or whenever the public base URL changes.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName+"-set-webhooks", cfg.LoggerLevel)

	ctx := context.Background()

	pgStore, err := postgres.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pgStore.Close()

	registry, err := bot.NewRegistry(cfg, pgStore.Bot(), log)
	if err != nil {
		log.Error("Failed to initialize bot registry", logger.Error(err))
		os.Exit(1)
	}

	failed := false
	for role, err := range registry.SetupAll(ctx) {
		if err != nil {
			failed = true
			log.Error("webhook setup failed", logger.String("role", string(role)), logger.Error(err))
			continue
		}
		log.Info("webhook registered", logger.String("role", string(role)))
	}
	if failed {
		os.Exit(1)
	}
}
