// Command token mints a bearer token for the accounts API.
//
//	token --sub owner --ttl 24h
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/easyfinance/accounts/internal/adapters/auth"
	"github.com/easyfinance/accounts/internal/shared/config"
	"github.com/easyfinance/accounts/internal/shared/logger"

	"github.com/alecthomas/kingpin/v2"
)

var (
	app     = kingpin.New("token", "Mint a bearer token for the accounts API.")
	subject = app.Flag("sub", "Token subject.").Default("owner").String()
	ttl     = app.Flag("ttl", "Token lifetime. Defaults to JWT_TTL.").Duration()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.LoadAuth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logger.New(true, "warn")

	expiresIn := cfg.TokenTTL
	if *ttl > 0 {
		expiresIn = *ttl
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, expiresIn, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize token service")
	}

	token, err := tokens.Generate(*subject)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to generate token")
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Now().Add(expiresIn).Format(time.RFC3339))
}
