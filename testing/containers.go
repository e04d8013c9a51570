package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer provides a Redis container for the shared cache and the
// distributed geocode limiter.
type RedisContainer struct {
	*redis.RedisContainer
	ConnectionString string
}

// StartRedisContainer starts a Redis container for integration tests.
func StartRedisContainer(ctx context.Context) (*RedisContainer, error) {
	container, err := redis.Run(ctx,
		"redis:7-alpine",
		redis.WithLogLevel(redis.LogLevelNotice),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start Redis container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Redis connection string: %w", err)
	}

	return &RedisContainer{
		RedisContainer:   container,
		ConnectionString: connStr,
	}, nil
}

// PostgresContainer provides a Postgres container for the property store.
type PostgresContainer struct {
	testcontainers.Container
	ConnectionString string
}

const (
	postgresUser     = "rightfit"
	postgresPassword = "rightfit"
	postgresDB       = "navigation_test"
)

// StartPostgresContainer starts a Postgres container for integration tests.
func StartPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// The server logs readiness once for the init pass and once for real.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Postgres host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Postgres port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, host, port.Port(), postgresDB)

	return &PostgresContainer{
		Container:        container,
		ConnectionString: connStr,
	}, nil
}

// Terminate terminates the container.
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}

// ContainerCleanup provides a cleanup function for t.Cleanup.
type ContainerCleanup interface {
	Terminate(ctx context.Context) error
}

// CleanupContainer returns a cleanup function for testing.T.Cleanup.
func CleanupContainer(ctx context.Context, c ContainerCleanup) func() {
	return func() {
		if err := c.Terminate(ctx); err != nil {
			// Log but don't fail on cleanup
			fmt.Printf("failed to terminate container: %v\n", err)
		}
	}
}
