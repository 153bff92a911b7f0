package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options configures the redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings the server.
func Connect(ctx context.Context, opts Options, baseLogger *zerolog.Logger) (*goredis.Client, error) {
	log := baseLogger.With().Str("component", "redis").Logger()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", opts.Addr).Msg("Failed to ping redis")
		_ = rdb.Close()
		return nil, err
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Redis connection established")
	return rdb, nil
}
