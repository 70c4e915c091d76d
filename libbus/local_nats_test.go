package libbus_test

import (
	"context"
	"testing"
	"time"

	libbus "github.com/atelierline/storesync/libbus"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func TestSystem_StartupNATSCluster(t *testing.T) {
	ctx := context.TODO()
	url, container, cleanup, err := libbus.SetupNatsInstance(ctx)
	defer cleanup()
	require.NoError(t, err)
	require.True(t, container.IsRunning())
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	err = nc.Publish("foo", []byte("Hello World"))
	require.NoError(t, err)
}

func TestSystem_NatsStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ps, cleanup, err := libbus.NewTestPubSub()
	defer cleanup()
	require.NoError(t, err)

	streamCh := make(chan []byte, 1)
	sub, err := ps.Stream(ctx, libbus.SubjectChatUpdated, streamCh)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, ps.Publish(ctx, libbus.SubjectChatUpdated, []byte("c1")))

	select {
	case received := <-streamCh:
		require.Equal(t, []byte("c1"), received)
	case <-ctx.Done():
		t.Fatal("timed out waiting for streamed message")
	}
}
