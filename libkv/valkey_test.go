package libkv_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/atelierline/storesync/libkv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/valkey"
)

func SetupLocalValKeyInstance(ctx context.Context) (string, testcontainers.Container, func(), error) {
	cleanup := func() {}

	container, err := valkey.Run(ctx, "docker.io/valkey/valkey:7.2.5")
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

	conn, err := container.ConnectionString(ctx)
	if err != nil {
		return "", nil, cleanup, err
	}
	return conn, container, cleanup, nil
}

func TestUnit_ValkeyCRUD(t *testing.T) {
	ctx := context.Background()

	connStr, _, cleanup, err := SetupLocalValKeyInstance(ctx)
	require.NoError(t, err)
	defer cleanup()

	u, err := url.Parse(connStr)
	require.NoError(t, err)
	addr := u.Host

	cfg := libkv.Config{
		KVAddr:     addr,
		KVPassword: "",
	}
	manager, err := libkv.NewManager(cfg, 10*time.Second)
	require.NoError(t, err)
	defer manager.Close()

	kv, err := manager.Executor(ctx)
	require.NoError(t, err)

	key := "cart_user_7"
	value := json.RawMessage(`[{"quantity":2}]`)

	err = kv.Set(ctx, key, value)
	require.NoError(t, err)

	retrieved, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)

	exists, err := kv.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	keys, err := kv.Keys(ctx, "cart_")
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	err = kv.Delete(ctx, key)
	require.NoError(t, err)

	_, err = kv.Get(ctx, key)
	assert.ErrorIs(t, err, libkv.ErrNotFound)

	exists, err = kv.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
