package store

import (
	"time"

	"opengov/internal/platform/config"
	"opengov/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Config selects and tunes the backends Open dials
type Config struct {
	AppName string
	PG      PGConfig
	RDS     RedisConfig
}

// PGConfig tunes the postgres pool and SQL logging
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the boot ping loop; <= 0 means 20
	ConnectRetries int
	PingTimeout    time.Duration
}

// RedisConfig points at the redis used for the cross-process pass lock
type RedisConfig struct {
	Enabled     bool
	URL         string
	PingTimeout time.Duration
}

// ConfigFromEnv reads DATABASE_URL, REDIS_URL and SERVICE_PGSQL_* from root.
// Redis is enabled only when REDIS_URL is set.
func ConfigFromEnv(root config.Conf, appName string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	redisURL := root.MayString("REDIS_URL", "")
	return Config{
		AppName: appName,
		PG: PGConfig{
			Enabled:        true,
			URL:            root.MustString("DATABASE_URL"),
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 4)),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 500),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 20),
		},
		RDS: RedisConfig{Enabled: redisURL != "", URL: redisURL},
	}
}

// Option adjusts a Store before any backend is dialed
type Option func(*Store) error

// WithLogger sets the logger handed to the SQL tracer and boot retries
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error { s.Log = log; return nil }
}

// WithRedis supplies a ready client (miniredis in tests); Open will not dial one
func WithRedis(rc redis.UniversalClient) Option {
	return func(s *Store) error { s.RDS = rc; return nil }
}
