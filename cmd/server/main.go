package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/easyfinance/accounts/internal/adapters/auth"
	"github.com/easyfinance/accounts/internal/adapters/eventbus"
	"github.com/easyfinance/accounts/internal/adapters/httpapi"
	"github.com/easyfinance/accounts/internal/adapters/plaid"
	"github.com/easyfinance/accounts/internal/adapters/postgres"
	"github.com/easyfinance/accounts/internal/adapters/redis"
	"github.com/easyfinance/accounts/internal/adapters/security"
	"github.com/easyfinance/accounts/internal/adapters/telegram"
	"github.com/easyfinance/accounts/internal/core/domain"
	"github.com/easyfinance/accounts/internal/core/ports"
	"github.com/easyfinance/accounts/internal/core/services/accounts"
	"github.com/easyfinance/accounts/internal/core/services/alerts"
	"github.com/easyfinance/accounts/internal/shared/config"
	"github.com/easyfinance/accounts/internal/shared/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev(), cfg.LogLevel)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("store", cfg.StoreDriver).
		Str("plaid_env", cfg.Plaid.Env).
		Bool("telegram_alerts", cfg.Telegram.Enabled()).
		Msg("Configuration loaded")

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize the Security Service
	keyBytes, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to decode ENCRYPTION_KEY. It must be hex-encoded.")
	}
	secSvc, err := security.NewAESService(keyBytes, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize security service")
	}

	// 4. Initialize Storage
	repo, closeStore, err := newBankRepository(ctx, cfg, secSvc, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer closeStore()

	// 5. Initialize the aggregator client
	plaidURL, err := plaid.BaseURL(cfg.Plaid.Env)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Invalid PLAID_ENV")
	}
	plaidClient := plaid.NewClient(plaid.Options{
		BaseURL:      plaidURL,
		ClientID:     cfg.Plaid.ClientID,
		Secret:       cfg.Plaid.Secret,
		CountryCodes: cfg.Plaid.CountryCodes,
	}, &baseLogger)

	// 6. Initialize the event bus and its subscribers
	bus := eventbus.NewInMemoryBus(&baseLogger)
	bus.Subscribe(domain.TopicBanksReplaced, accounts.NewRetentionAudit(&baseLogger))
	if cfg.Telegram.Enabled() {
		api, err := telegram.NewBotAPI(cfg.Telegram.BotToken, &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
		}
		alert := alerts.NewReloginAlert(
			telegram.NewClient(api, &baseLogger),
			cfg.Telegram.ChatID,
			cfg.Telegram.LinkURL,
			cfg.Telegram.AlertCooldown,
			&baseLogger,
		)
		bus.Subscribe(domain.TopicReloginRequired, alert.Handle)
	}

	// 7. Initialize the accounts service and HTTP API
	svc := accounts.NewService(repo, plaidClient, bus, domain.PlaidVars{
		Env:        cfg.Plaid.Env,
		Key:        cfg.Plaid.PublicKey,
		ClientName: cfg.Plaid.ClientName,
		Product:    cfg.Plaid.Products,
	}, &baseLogger)

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize token service")
	}

	router := httpapi.NewRouter(httpapi.NewAccountsHandler(svc), tokens, &baseLogger)
	server := httpapi.NewServer(cfg.HTTPAddr, router, &baseLogger)

	baseLogger.Info().Msg("All services initialized successfully")

	// 8. Run until SIGINT/SIGTERM
	if err := server.Start(ctx); err != nil {
		baseLogger.Error().Err(err).Msg("Server exited with error")
	}

	bus.Wait()
	baseLogger.Info().Msg("Application stopped")
}

// newBankRepository builds the repository for the configured driver and
// returns a function that releases its connections.
func newBankRepository(ctx context.Context, cfg *config.Config, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) (ports.BankRepository, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.DatabaseURL, baseLogger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewBankRepository(db, secSvc, baseLogger), db.Close, nil

	case "redis":
		rdb, err := redis.Connect(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, baseLogger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				baseLogger.Warn().Err(err).Msg("Failed to close redis client")
			}
		}
		return redis.NewBankRepository(rdb, cfg.Redis.Key, secSvc, baseLogger), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}
