package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront-cart/internal/config"
	carthttp "github.com/fjod/storefront-cart/internal/http"
	"github.com/fjod/storefront-cart/internal/logger"
	"github.com/fjod/storefront-cart/internal/poller"
	"github.com/fjod/storefront-cart/internal/service"
	"github.com/fjod/storefront-cart/internal/storage"
	"github.com/fjod/storefront-cart/internal/storage/breaker"
	"github.com/fjod/storefront-cart/internal/storage/memory"
	mongostorage "github.com/fjod/storefront-cart/internal/storage/mongo"
	redisstorage "github.com/fjod/storefront-cart/internal/storage/redis"
	"github.com/fjod/storefront-cart/internal/storage/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("storefront-cart", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer closeStorage()
	log.Info("storage ready", zap.String("backend", cfg.StorageBackend))

	carts := service.NewCartService(st, cfg.Pricing(), log)

	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(carts, poller.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, log)
		defer p.Close()
		go p.Run(ctx)
		log.Info("checkout poller started", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	cartHandler := carthttp.NewCartHandler(carts, cfg.RequestTimeout, log)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      carthttp.NewRouter(cartHandler, log, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront cart listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// openStorage builds the configured backend. Remote backends sit behind a
// circuit breaker.
func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (storage.Storage, func(), error) {
	onStateChange := func(name string, from, to gobreaker.State) {
		log.Warn("storage breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	switch cfg.StorageBackend {
	case config.BackendMemory:
		return memory.New(), func() {}, nil

	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		s := breaker.New(redisstorage.New(client, cfg.RedisTTL), breaker.Settings{
			Name:          "redis",
			OpenTimeout:   30 * time.Second,
			OnStateChange: onStateChange,
		})
		return s, func() { client.Close() }, nil

	case config.BackendMongo:
		db, err := mongostorage.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		ms := mongostorage.New(db)
		if err := ms.CreateIndexes(ctx, cfg.MongoTTL); err != nil {
			db.Client().Disconnect(context.Background())
			return nil, nil, err
		}
		s := breaker.New(ms, breaker.Settings{
			Name:          "mongo",
			OpenTimeout:   30 * time.Second,
			OnStateChange: onStateChange,
		})
		return s, func() { db.Client().Disconnect(context.Background()) }, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
