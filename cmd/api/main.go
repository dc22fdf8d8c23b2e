package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	_ "github.com/noah-isme/referral-api/api/swagger"
	"github.com/noah-isme/referral-api/internal/server"
	"github.com/noah-isme/referral-api/pkg/config"
	"github.com/noah-isme/referral-api/pkg/logger"
)

// @title Referral API
// @version 1.0.0
// @description College referral tracking for student registrations
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("server init failed", "error", err)
	}
	if err := srv.Run(ctx); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	logr.Info("server stopped")
}
