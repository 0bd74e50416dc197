package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"screenstate/config"
	telegram "screenstate/internal/api"
	"screenstate/internal/container"
	"screenstate/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	cleanup, err := logging.Init(cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to init logging: %v", err)
	}
	defer cleanup()

	// Собираем движок и сервисы приложения
	appContainer, err := container.New(cfg, container.NewAdapters(cfg))
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.RecognitionService)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("bot is running", "states", len(appContainer.Engine.Stats().States))
	if err := bot.Run(ctx); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	slog.Info("bot stopped")
}
