package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/config"
	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/mail"
	"github.com/tazhibayda/workspace-service/internal/queue"
)

func main() {
	cfg := config.Load()

	lg, err := log.Init(cfg.LogProd)
	if err != nil {
		panic(err)
	}
	defer lg.Sync()

	if cfg.RabbitURL == "" {
		lg.Fatal("RABBIT_URL is required")
	}
	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, cfg.RabbitBindKey)
	if err != nil {
		lg.Fatal("rabbit consumer init failed", zap.Error(err))
	}
	defer cons.Close()

	sender := mail.NewSender(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("notifier up",
		zap.String("exchange", cfg.RabbitExchange), zap.String("queue", cfg.RabbitQueue),
		zap.String("key", cfg.RabbitBindKey), zap.Int("workers", cfg.RabbitConcurrency))

	if err := cons.Consume(ctx, cfg.RabbitConcurrency, sender.Handle); err != nil {
		lg.Fatal("consumer stopped", zap.Error(err))
	}
}
