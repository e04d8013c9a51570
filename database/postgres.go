// Package database opens the Postgres property store and the optional Redis
// client shared by the provider cache and rate limiter.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rightfit/rightfit-navigation/logging"
)

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
}

// DefaultPostgresConfig returns the pool defaults.
func DefaultPostgresConfig(dsn string) PostgresConfig {
	return PostgresConfig{
		DSN:          dsn,
		MaxOpenConns: 25,
		MaxIdleConns: 5,
		MaxLifetime:  5 * time.Minute,
		AutoMigrate:  true,
	}
}

// Postgres wraps a GORM connection to the property store.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres opens the database, retrying while the server is unreachable,
// and migrates the schema when configured to.
func NewPostgres(ctx context.Context, config PostgresConfig, logger *logging.Logger) (*Postgres, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("database URL is not configured")
	}
	logger = logging.OrDiscard(logger).WithComponent("postgres")

	attempt := 0
	db, err := RetryWithResult(ctx, ConnectRetryConfig(), func() (*gorm.DB, error) {
		attempt++
		db, err := open(ctx, config)
		if err != nil {
			logger.Warn("postgres connection attempt failed", "attempt", attempt, "error", err.Error())
		}
		return db, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if config.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	logger.Info("connected to postgres", "attempts", attempt)
	return &Postgres{db: db}, nil
}

func open(ctx context.Context, config PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.MaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// DB returns the underlying GORM handle.
func (p *Postgres) DB() *gorm.DB {
	return p.db
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
