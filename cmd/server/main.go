// Main entry point: loads config, opens the database pool, and serves HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cryptofolio/api/internal/api"
	"github.com/cryptofolio/api/internal/auth"
	"github.com/cryptofolio/api/internal/config"
	"github.com/cryptofolio/api/internal/db"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()

	log := zap.Must(zap.NewProduction())
	defer func() { _ = log.Sync() }()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	authService := auth.NewService(database, cfg.SecretKey, cfg.BcryptWorkFactor)
	handler := api.NewHandler(database, authService, log)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info("starting server", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := http.ListenAndServe(addr, handler.Router()); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
