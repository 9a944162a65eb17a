package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	gomail "gopkg.in/gomail.v2"

	_ "github.com/railgo/railgo/docs"
	"github.com/railgo/railgo/internal/app"
	"github.com/railgo/railgo/internal/config"
	"github.com/railgo/railgo/internal/service/mail"
	httpgin "github.com/railgo/railgo/internal/transport/http/gin"
)

// @title RailGo Mail Service API
// @version 1.0
// @description Notification sink.
// @host localhost:8084
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New(8084)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dialer := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	svc := mail.New(dialer, cfg.SMTP.From)

	router := httpgin.NewMailRouter(svc, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := app.New(addr, router, logger).Run(context.Background()); err != nil {
		logger.Error("service finished with error", "error", err)
		os.Exit(1)
	}
}
