//go:build integration

package testutils

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/greenbite/mealplanner/internal/infrastructure/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage    = "postgres:15-alpine"
	pgDatabase = "mealplanner_test"
	pgUser     = "planner"
	pgPassword = "planner"
	pgPort     = nat.Port("5432/tcp")
)

// SetupPostgres starts a disposable PostgreSQL container and returns an app config
// pointing at it. The container is terminated when the test ends.
func SetupPostgres(t *testing.T) *config.Config {
	t.Helper()
	ctx := context.Background()

	dsn := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, host, port.Port(), pgDatabase)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pgImage,
			ExposedPorts: []string{string(pgPort)},
			Env: map[string]string{
				"POSTGRES_DB":       pgDatabase,
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
			},
			WaitingFor: wait.ForSQL(pgPort, "pgx", dsn).WithStartupTimeout(time.Minute),
			Tmpfs:      map[string]string{"/var/lib/postgresql/data": "rw"},
		},
		Started: true,
	})
	require.NoError(t, err, "postgres container did not start")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, pgPort)
	require.NoError(t, err)

	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:          "postgres",
			Host:            host,
			Port:            portNum,
			Database:        pgDatabase,
			Username:        pgUser,
			Password:        pgPassword,
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Minute,
			LogLevel:        "silent",
		},
	}
}
