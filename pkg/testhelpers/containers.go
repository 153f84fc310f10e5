// Package testhelpers starts shared containers for integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gradpath/gradpath-engine/pkg/config"
)

const (
	PostgresImage = "postgres:16-alpine"
	RedisImage    = "redis:7-alpine"
)

// PostgresContainer is a running PostgreSQL server shared across tests.
type PostgresContainer struct {
	Container testcontainers.Container
	Config    config.DatabaseConfig
}

// RedisContainer is a running Redis server shared across tests.
type RedisContainer struct {
	Container testcontainers.Container
	Config    config.RedisConfig
}

var (
	sharedPostgres     *PostgresContainer
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error

	sharedRedis     *RedisContainer
	sharedRedisOnce sync.Once
	sharedRedisErr  error
)

// GetPostgres returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgres, sharedPostgresErr = setupPostgres()
	})

	if sharedPostgresErr != nil {
		t.Fatalf("Failed to setup postgres container: %v", sharedPostgresErr)
	}
	return sharedPostgres
}

func setupPostgres() (*PostgresContainer, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "gradpath_test",
			"POSTGRES_USER":     "gradpath",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The server restarts once after init; wait for the second ready line.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, port, err := hostPort(ctx, container, "5432")
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		Container: container,
		Config: config.DatabaseConfig{
			Host:           host,
			Port:           port,
			User:           "gradpath",
			Password:       "test_password",
			Database:       "gradpath_test",
			MaxConnections: 5,
			SSLMode:        "disable",
		},
	}, nil
}

// GetRedis returns a shared Redis container for integration tests.
func GetRedis(t *testing.T) *RedisContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedRedisOnce.Do(func() {
		sharedRedis, sharedRedisErr = setupRedis()
	})

	if sharedRedisErr != nil {
		t.Fatalf("Failed to setup redis container: %v", sharedRedisErr)
	}
	return sharedRedis
}

func setupRedis() (*RedisContainer, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        RedisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, port, err := hostPort(ctx, container, "6379")
	if err != nil {
		return nil, err
	}

	return &RedisContainer{
		Container: container,
		Config:    config.RedisConfig{Host: host, Port: port},
	}, nil
}

func hostPort(ctx context.Context, c testcontainers.Container, port string) (string, int, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get container host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return "", 0, fmt.Errorf("failed to get container port: %w", err)
	}
	p, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return "", 0, fmt.Errorf("invalid mapped port %q: %w", mapped.Port(), err)
	}
	return host, p, nil
}
