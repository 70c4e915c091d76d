package libbus

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

// SetupNatsInstance starts a disposable NATS container and returns its client
// URL. Intended for tests and local development.
func SetupNatsInstance(ctx context.Context) (string, testcontainers.Container, func(), error) {
	cleanup := func() {}

	container, err := nats.Run(ctx, "docker.io/nats:2.10")
	if err != nil {
		return "", nil, cleanup, err
	}

	cleanup = func() {
		timeout := time.Second
		err := container.Stop(ctx, &timeout)
		if err != nil {
			panic(err)
		}
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		return "", nil, cleanup, err
	}
	return url, container, cleanup, nil
}

// NewTestPubSub stands up a NATS-backed Messenger on a disposable container.
func NewTestPubSub() (Messenger, func(), error) {
	ctx := context.Background()
	url, _, cleanup, err := SetupNatsInstance(ctx)
	if err != nil {
		return nil, cleanup, err
	}
	ps, err := NewPubSub(ctx, &Config{NATSURL: url})
	if err != nil {
		return nil, cleanup, err
	}
	wrapped := func() {
		_ = ps.Close()
		cleanup()
	}
	return ps, wrapped, nil
}
