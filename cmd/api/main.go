package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"market/internal/auth"
	"market/internal/config"
	"market/internal/httpx"
	kafkax "market/internal/kafka"
	"market/internal/market"
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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per order topic
	pReserved := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderReserved, 1024, logger)
	pReserved.Start(ctx)
	pApproved := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicSaleApproved, 1024, logger)
	pApproved.Start(ctx)

	// Auth
	hasher := auth.Hasher{Cost: cfg.BcryptCost}
	tokens := &auth.TokenManager{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}

	// Stores & handlers
	members := &store.MemberRepo{DB: db}
	products := &store.ProductRepo{DB: db}
	orders := &store.OrderRepo{DB: db}

	ah := &httpx.AuthHandler{Members: members, Hasher: hasher, Tokens: tokens}
	ph := &httpx.ProductHandler{Products: products, Redis: rdb}
	oh := &httpx.OrderHandler{
		Orders:           orders,
		Products:         products,
		Redis:            rdb,
		ProducerReserved: pReserved,
		ProducerApproved: pApproved,
		Service:          cfg.ServiceName,
	}

	router := httpx.NewRouter()
	httpx.MountRoutes(router, auth.Middleware(tokens), ah, ph, oh)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	pReserved.Close() // close inbox -> flush & close writer
	pApproved.Close()
	pReserved.WaitClosed()
	pApproved.WaitClosed()
}
