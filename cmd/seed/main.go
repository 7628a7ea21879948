// Seed the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cryptofolio/api/internal/auth"
	"github.com/cryptofolio/api/internal/config"
	"github.com/cryptofolio/api/internal/db"
	"github.com/cryptofolio/api/internal/models"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()

	log := zap.Must(zap.NewDevelopment())
	defer func() { _ = log.Sync() }()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Skip seeding when demo data is already present.
	var count int
	if err := database.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		log.Fatal("failed to check users", zap.Error(err))
	}
	if count > 0 {
		fmt.Printf("Database already has %d users. No need to seed.\n", count)
		os.Exit(0)
	}

	authService := auth.NewService(database, cfg.SecretKey, cfg.BcryptWorkFactor)

	users := []struct {
		username, password, email, fiat string
	}{
		{"demo1", "password1", "demo1@example.com", "USD"},
		{"demo2", "password2", "demo2@example.com", "EUR"},
	}
	for _, u := range users {
		hash, err := authService.HashPassword(u.password)
		if err != nil {
			log.Fatal("failed to hash password", zap.Error(err))
		}
		if _, err := database.CreateUser(ctx, &models.User{
			Username:           u.username,
			PasswordHash:       hash,
			Email:              u.email,
			NativeFiatCurrency: u.fiat,
		}); err != nil {
			log.Fatal("failed to create user", zap.String("username", u.username), zap.Error(err))
		}
	}

	wallets := []models.Wallet{
		{UserID: "demo1", CurrencyName: "USD", CurrencyAmount: 2500, CurrencyType: "fiat"},
		{UserID: "demo1", CurrencyName: "BTC", CurrencyAmount: 0.25, CurrencyType: "crypto"},
		{UserID: "demo2", CurrencyName: "ETH", CurrencyAmount: 3.5, CurrencyType: "crypto"},
	}
	for i := range wallets {
		if _, err := database.CreateWallet(ctx, &wallets[i]); err != nil {
			log.Fatal("failed to create wallet", zap.Error(err))
		}
	}

	watched := []models.WatchlistEntry{
		{UserID: "demo1", CryptoName: "BTC"},
		{UserID: "demo1", CryptoName: "ETH"},
		{UserID: "demo2", CryptoName: "DOGE"},
	}
	for i := range watched {
		if _, err := database.CreateWatchlistEntry(ctx, &watched[i]); err != nil {
			log.Fatal("failed to create watchlist entry", zap.Error(err))
		}
	}

	if _, err := database.CreateTransaction(ctx, &models.Transaction{
		UserID:              "demo1",
		TransactionType:     "buy",
		StartCurrencyName:   "USD",
		StartCurrencyAmount: 2000,
		StartCurrencyType:   "fiat",
		EndCurrencyName:     "BTC",
		EndCurrencyAmount:   0.1,
		EndCurrencyType:     "crypto",
		TimestampUTC:        time.Now().UTC(),
	}); err != nil {
		log.Fatal("failed to create transaction", zap.Error(err))
	}

	fmt.Println("Seeded demo users, wallets, watchlists, and one ledger entry.")
}
