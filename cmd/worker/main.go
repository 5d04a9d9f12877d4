package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"coursemart/internal/config"
	"coursemart/internal/database"
	"coursemart/internal/logger"
	"coursemart/internal/orchestrator/fulfillment"
	"coursemart/internal/orchestrator/scheduler"
	"coursemart/internal/pgmq"
	"coursemart/internal/pricing"
	"coursemart/internal/repository"
	"coursemart/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Worker mode: fulfillment|scheduler")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.SecretManagerEnabled {
		secrets, err := service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		service.ResolveSecrets(ctx, cfg, secrets, logger)
		secrets.Close()
	}

	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB pool: %v", err)
	}
	defer pool.Close()

	orderRepo := repository.NewOrderRepo(pool)

	// Dispatch to the selected orchestrator
	var runErr error
	switch *mode {
	case "fulfillment":
		db, err := database.OpenQueueDB(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to open queue DB: %v", err)
		}
		defer db.Close()
		logger.Info().Msg("PGMQ client initialized")

		prices := pricing.Default()
		var email service.EmailService
		if cfg.SendgridAPIKey != "" {
			email = service.NewSendgridEmailService(cfg.SendgridAPIKey, cfg.EmailFromName, cfg.EmailFromAddr, prices, logger)
		} else {
			logger.Warn().Msg("SENDGRID_API_KEY not set; receipts are written to the log")
			email = service.NewLogEmailService(prices, logger)
		}
		w := fulfillment.New(pgmq.New(db), orderRepo, repository.NewUserRepo(pool), email, fulfillment.OptionsFromConfig(cfg), logger)
		runErr = w.Run(ctx)
	case "scheduler":
		ttl := time.Duration(cfg.OrderPendingTTLMin) * time.Minute
		s := scheduler.New(orderRepo, repository.NewCouponRepo(pool), cfg.ExpiryCron, ttl, logger)
		runErr = s.Run(ctx)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
