package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/railgo/railgo/docs"
	"github.com/railgo/railgo/internal/app"
	"github.com/railgo/railgo/internal/clients"
	"github.com/railgo/railgo/internal/config"
	"github.com/railgo/railgo/internal/postgres"
	"github.com/railgo/railgo/internal/redis"
	postgresrepo "github.com/railgo/railgo/internal/repository/postgres"
	redisrepo "github.com/railgo/railgo/internal/repository/redis"
	"github.com/railgo/railgo/internal/resilience"
	"github.com/railgo/railgo/internal/service/user"
	httpgin "github.com/railgo/railgo/internal/transport/http/gin"
)

// @title RailGo User Service API
// @version 1.0
// @description Accounts and the booking orchestrator.
// @host localhost:8081
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New(8081)
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
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, redisrepo.KeyRateLimitPrefix("booking"), 10, time.Minute)
	idem := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// one breaker per named call site, shared settings
	calls := resilience.NewGroup(resilience.Config{})

	trainClient := clients.NewTrainClient(cfg.Peers.TrainURL, calls, logger)
	ticketClient := clients.NewTicketClient(cfg.Peers.TicketURL, calls, logger)
	mailClient := clients.NewMailClient(cfg.Peers.MailURL, calls, logger)

	svc := user.New(store.Users(), trainClient, ticketClient, mailClient, logger)

	router := httpgin.NewUserRouter(svc, idem, limiter, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := app.New(addr, router, logger).Run(ctx); err != nil {
		logger.Error("service finished with error", "error", err)
		os.Exit(1)
	}
}
