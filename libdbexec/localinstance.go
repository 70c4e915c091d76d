package libdbexec

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupLocalInstance starts a disposable Postgres container and returns its
// connection string, the container handle, and a cleanup function. Intended
// for integration tests.
func SetupLocalInstance(ctx context.Context, dbName, dbUser, dbPassword string) (string, testcontainers.Container, func(), error) {
	cleanup := func() {}

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return "", nil, cleanup, err
	}

	cleanup = func() {
		timeout := time.Second
		_ = container.Stop(ctx, &timeout)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", container, cleanup, err
	}
	return connStr, container, cleanup, nil
}
