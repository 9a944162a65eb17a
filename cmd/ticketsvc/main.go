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
	postgresrepo "github.com/railgo/railgo/internal/repository/postgres"
	"github.com/railgo/railgo/internal/service/ticket"
	httpgin "github.com/railgo/railgo/internal/transport/http/gin"
)

// @title RailGo Ticket Service API
// @version 1.0
// @description Ticket registry.
// @host localhost:8083
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New(8083)
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

	store := postgresrepo.NewStore(pool)
	svc := ticket.New(store.Tickets())

	router := httpgin.NewTicketRouter(svc, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := app.New(addr, router, logger).Run(ctx); err != nil {
		logger.Error("service finished with error", "error", err)
		os.Exit(1)
	}
}
