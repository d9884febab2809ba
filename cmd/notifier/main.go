package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"market/internal/config"
	kafkax "market/internal/kafka"
	"market/internal/market"
	"market/internal/notify"
	"market/internal/postgres"
	"market/internal/redisx"
	"market/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Store: &store.NotificationRepo{DB: db},
		Redis: rdb,
		Log:   logger,
	}

	group := getenv("NOTIFIER_GROUP", "market-notifier")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), 4)

	var wg sync.WaitGroup
	for _, topic := range []string{market.TopicOrderReserved, market.TopicSaleApproved} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, logger)
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			logger.Info("consumer started",
				zap.String("group", group), zap.String("topic", topic), zap.Int("workers", workers))
			if err := cons.Start(ctx, svc.HandleEvent); err != nil {
				logger.Error("consumer exit", zap.String("topic", topic), zap.Error(err))
				cancel()
			}
		}(topic)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down notifier")
	cancel()
	wg.Wait()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
