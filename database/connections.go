package database

import (
	"context"

	"github.com/rightfit/rightfit-navigation/config"
	"github.com/rightfit/rightfit-navigation/logging"
)

// Connections holds the service's backing stores. Redis is optional.
type Connections struct {
	Postgres *Postgres
	Redis    *RedisClient

	logger *logging.Logger
}

// NewConnectionsFromConfig connects to Postgres and, when REDIS_URL is set,
// to Redis.
func NewConnectionsFromConfig(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Connections, error) {
	logger = logging.OrDiscard(logger)
	conns := &Connections{logger: logger}

	pg, err := NewPostgres(ctx, DefaultPostgresConfig(cfg.DatabaseURL), logger)
	if err != nil {
		return nil, err
	}
	conns.Postgres = pg

	if cfg.RedisURL != "" {
		r, err := NewRedisClient(ctx, DefaultRedisConfig(cfg.RedisURL))
		if err != nil {
			conns.Close()
			return nil, err
		}
		conns.Redis = r
		logger.Info("connected to redis")
	}

	return conns, nil
}

// Close closes all connections.
func (c *Connections) Close() {
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			c.logger.Error("error closing postgres connection", "error", err.Error())
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("error closing redis connection", "error", err.Error())
		}
	}
}

// HealthCheck pings every configured connection.
func (c *Connections) HealthCheck(ctx context.Context) map[string]error {
	results := make(map[string]error)
	if c.Postgres != nil {
		results["postgres"] = c.Postgres.Ping(ctx)
	}
	if c.Redis != nil {
		results["redis"] = c.Redis.Ping(ctx)
	}
	return results
}
