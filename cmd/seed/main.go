package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront-kit/internal/config"
	"storefront-kit/internal/db"
	"storefront-kit/internal/logging"
	"storefront-kit/internal/migrate"
	"storefront-kit/internal/seed"
)

func main() {
	var cartID string
	flag.StringVar(&cartID, "cart", "", "Existing cart id to attach to the first development session")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	sessions := append([]seed.Session(nil), seed.DefaultSessions...)
	sessions[0].CartID = cartID
	if err := seed.Apply(ctx, pool, sessions); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	for _, s := range sessions {
		logger.Info("seeded session", zap.String("token", s.Token), zap.String("sessionId", s.SessionID))
	}
}
