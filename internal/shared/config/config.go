package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string `validate:"required"`
	LogLevel string `validate:"oneof=trace debug info warn error"`
	HTTPAddr string `validate:"required"`

	StoreDriver string `validate:"oneof=postgres redis"`
	DatabaseURL string `validate:"required_if=StoreDriver postgres"`
	Redis       RedisConfig

	// EncryptionKey is the hex-encoded AES-256 key sealing access tokens.
	EncryptionKey string `validate:"required,len=64,hexadecimal"`

	Auth     AuthConfig
	Plaid    PlaidConfig
	Telegram TelegramConfig
}

// RedisConfig is used when StoreDriver is "redis".
type RedisConfig struct {
	Addr     string `validate:"required"`
	Password string
	DB       int    `validate:"gte=0"`
	Key      string `validate:"required"`
}

type AuthConfig struct {
	JWTSecret string        `validate:"required"`
	TokenTTL  time.Duration `validate:"gt=0"`
}

type PlaidConfig struct {
	Env          string `validate:"oneof=sandbox development production"`
	ClientID     string `validate:"required"`
	Secret       string `validate:"required"`
	PublicKey    string
	ClientName   string   `validate:"required"`
	Products     []string `validate:"min=1,dive,required"`
	CountryCodes []string `validate:"min=1,dive,len=2"`
}

// TelegramConfig enables relogin alerts when BotToken is set.
type TelegramConfig struct {
	BotToken      string
	ChatID        int64         `validate:"required_with=BotToken"`
	LinkURL       string        `validate:"omitempty,url"`
	AlertCooldown time.Duration `validate:"gt=0"`
}

// Enabled reports whether alerts should be sent.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

// IsDev reports whether the app runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

var bindings = map[string]string{
	"app.env":                 "APP_ENV",
	"log.level":               "LOG_LEVEL",
	"http.addr":               "HTTP_ADDR",
	"store.driver":            "STORE_DRIVER",
	"postgres.url":            "DATABASE_URL",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"redis.key":               "REDIS_KEY",
	"encryption.key":          "ENCRYPTION_KEY",
	"auth.jwt_secret":         "JWT_SECRET",
	"auth.token_ttl":          "JWT_TTL",
	"plaid.env":               "PLAID_ENV",
	"plaid.client_id":         "PLAID_CLIENT_ID",
	"plaid.secret":            "PLAID_SECRET",
	"plaid.public_key":        "PLAID_PUBLIC_KEY",
	"plaid.client_name":       "PLAID_CLIENT_NAME",
	"plaid.products":          "PLAID_PRODUCTS",
	"plaid.country_codes":     "PLAID_COUNTRY_CODES",
	"telegram.bot_token":      "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":        "TELEGRAM_CHAT_ID",
	"telegram.link_url":       "TELEGRAM_LINK_URL",
	"telegram.alert_cooldown": "TELEGRAM_ALERT_COOLDOWN",
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	// 1. Get values directly from viper
	cfg := Config{
		AppEnv:      v.GetString("app.env"),
		LogLevel:    strings.ToLower(v.GetString("log.level")),
		HTTPAddr:    v.GetString("http.addr"),
		StoreDriver: v.GetString("store.driver"),
		DatabaseURL: v.GetString("postgres.url"),
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Key:      v.GetString("redis.key"),
		},
		EncryptionKey: v.GetString("encryption.key"),
		Auth:          authConfig(v),
		Plaid: PlaidConfig{
			Env:          v.GetString("plaid.env"),
			ClientID:     v.GetString("plaid.client_id"),
			Secret:       v.GetString("plaid.secret"),
			PublicKey:    v.GetString("plaid.public_key"),
			ClientName:   v.GetString("plaid.client_name"),
			Products:     splitList(v.GetString("plaid.products")),
			CountryCodes: splitList(v.GetString("plaid.country_codes")),
		},
		Telegram: TelegramConfig{
			BotToken:      v.GetString("telegram.bot_token"),
			ChatID:        v.GetInt64("telegram.chat_id"),
			LinkURL:       v.GetString("telegram.link_url"),
			AlertCooldown: v.GetDuration("telegram.alert_cooldown"),
		},
	}

	// 2. Validation
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadAuth loads only the token settings. It lets tooling mint tokens
// without the full service configuration.
func LoadAuth() (*AuthConfig, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	cfg := authConfig(v)
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid auth configuration: %w", err)
	}
	return &cfg, nil
}

func newViper() (*viper.Viper, error) {
	// 1. Load .env file into the process environment
	if err := godotenv.Load(); err != nil {
		// A missing file is fine; the environment may be set by the OS.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// 2. Explicitly bind viper keys to env var names
	v := viper.New()
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	// 3. Set defaults
	v.SetDefault("app.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "easyfinance:banks")
	v.SetDefault("auth.token_ttl", "720h")
	v.SetDefault("plaid.env", "sandbox")
	v.SetDefault("plaid.client_name", "Easy finance")
	v.SetDefault("plaid.products", "transactions")
	v.SetDefault("plaid.country_codes", "US")
	v.SetDefault("telegram.alert_cooldown", "24h")

	return v, nil
}

func authConfig(v *viper.Viper) AuthConfig {
	return AuthConfig{
		JWTSecret: v.GetString("auth.jwt_secret"),
		TokenTTL:  v.GetDuration("auth.token_ttl"),
	}
}

// splitList parses a comma separated env value, dropping empty items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
