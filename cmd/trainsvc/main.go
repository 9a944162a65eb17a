package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/railgo/railgo/docs"
	"github.com/railgo/railgo/internal/app"
	"github.com/railgo/railgo/internal/config"
	"github.com/railgo/railgo/internal/postgres"
	"github.com/railgo/railgo/internal/redis"
	postgresrepo "github.com/railgo/railgo/internal/repository/postgres"
	redisrepo "github.com/railgo/railgo/internal/repository/redis"
	"github.com/railgo/railgo/internal/service/train"
	httpgin "github.com/railgo/railgo/internal/transport/http/gin"
)

// @title RailGo Train Service API
// @version 1.0
// @description Train catalog and seat engine.
// @host localhost:8082
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New(8082)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN()})
	if err != nil {
		logger.Error("failed to initialize postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Error("failed to initialize redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store := postgresrepo.NewStore(pool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewTrainsPubSub(rdb)

	svc := train.New(store.Trains(), cache, pubsub)

	router := httpgin.NewTrainRouter(svc, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	application := app.New(addr, router, logger)

	// other instances' seat mutations invalidate this instance's cache
	invalidator := func(ctx context.Context) error {
		return pubsub.Subscribe(ctx, func(ctx context.Context, prn, travelDate string) {
			_ = cache.InvalidateTrain(ctx, prn, travelDate)
		})
	}

	if err := application.Run(ctx, invalidator); err != nil {
		logger.Error("service finished with error", "error", err)
		os.Exit(1)
	}
}
