package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"investbot/api"
	"investbot/config"
	"investbot/pkg/ai"
	"investbot/pkg/bot"
	"investbot/pkg/dispatch"
	"investbot/pkg/logger"
	"investbot/pkg/notify"
	"investbot/pkg/otp"
	"investbot/service"
	"investbot/storage/postgres"
	redisstore "investbot/storage/redis"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	var challengeStore otp.ChallengeStore
	if cfg.RedisOTPStore {
		challengeStore = redisstore.NewChallengeStore(
			fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
			cfg.RedisPassword,
		)
		log.Info("using redis challenge store")
	} else {
		challengeStore = otp.NewMemoryStore()
	}
	otpManager := otp.NewManager(challengeStore, registry, cfg.OpsChatID, log)

	responder := ai.NewResponder(cfg, pgStore, log)

	queue := notify.NewMemoryQueue()
	engine := notify.NewEngine(queue, pgStore, registry, log)

	dispatcher := dispatch.NewDispatcher(registry, pgStore, responder, engine, log)
	router := bot.NewRouter(registry, pgStore, dispatcher, log)

	svc := service.New(registry, engine, responder, pgStore, log)
	server := api.NewServer(registry, router, otpManager, svc, log)

	go engine.RunDispatchLoop(ctx)
	go otpManager.RunSweeper(ctx)

	go func() {
		if err := server.Run(cfg.AppPort); err != nil {
			log.Error("http server stopped", logger.Error(err))
			cancel()
		}
	}()

	log.Info("🚀 Multi-bot backend is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
}
