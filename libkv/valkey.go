package libkv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

type valkeyManager struct {
	client  valkey.Client
	timeout time.Duration
}

// NewManager connects to a valkey instance. Every operation issued through
// the returned manager is bounded by opTimeout when it is positive.
func NewManager(cfg Config, opTimeout time.Duration) (Manager, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{cfg.KVAddr},
		Password:    cfg.KVPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("libkv: failed to connect to valkey: %w", err)
	}
	return &valkeyManager{client: client, timeout: opTimeout}, nil
}

func (m *valkeyManager) Executor(ctx context.Context) (Executor, error) {
	return &valkeyExecutor{client: m.client, timeout: m.timeout}, nil
}

func (m *valkeyManager) Close() error {
	m.client.Close()
	return nil
}

type valkeyExecutor struct {
	client  valkey.Client
	timeout time.Duration
}

func (e *valkeyExecutor) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return ctx, func() {}
}

func (e *valkeyExecutor) Get(ctx context.Context, key string) (json.RawMessage, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()
	resp := e.client.Do(ctx, e.client.B().Get().Key(key).Build())
	b, err := resp.AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("libkv: get %q: %w", key, err)
	}
	return json.RawMessage(b), nil
}

func (e *valkeyExecutor) Set(ctx context.Context, key string, value json.RawMessage) error {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()
	if err := e.client.Do(ctx, e.client.B().Set().Key(key).Value(string(value)).Build()).Error(); err != nil {
		return fmt.Errorf("libkv: set %q: %w", key, err)
	}
	return nil
}

func (e *valkeyExecutor) Delete(ctx context.Context, key string) error {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()
	if err := e.client.Do(ctx, e.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("libkv: delete %q: %w", key, err)
	}
	return nil
}

func (e *valkeyExecutor) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()
	n, err := e.client.Do(ctx, e.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("libkv: exists %q: %w", key, err)
	}
	return n > 0, nil
}

func (e *valkeyExecutor) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()
	keys, err := e.client.Do(ctx, e.client.B().Keys().Pattern(prefix+"*").Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("libkv: keys %q: %w", prefix, err)
	}
	return keys, nil
}

var _ Executor = (*valkeyExecutor)(nil)
