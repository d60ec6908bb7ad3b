package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/config"
	"github.com/sitewatch/analytics-pipeline/internal/queue"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := config.Queue{
		Host: mr.Host(),
		Port: mr.Port(),
		Key:  "analytics:events",
	}

	client, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}

func TestClient_NewClient_UnreachableServer(t *testing.T) {
	cfg := config.Queue{Host: "127.0.0.1", Port: "1", Key: "analytics:events"}

	client, err := NewClient(context.Background(), cfg, zap.NewNop())

	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestClient_Push_AppendsToTheSharedKey(t *testing.T) {
	client, mr := newTestClient(t)

	err := client.Push(context.Background(), []byte(`{"site_id":"a"}`))
	assert.NoError(t, err)

	entries, err := mr.List("analytics:events")
	require.NoError(t, err)
	assert.Equal(t, []string{`{"site_id":"a"}`}, entries)
}

func TestClient_PushPop_FIFO(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Push(ctx, []byte("first")))
	require.NoError(t, client.Push(ctx, []byte("second")))

	got, err := client.Pop(ctx, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	got, err = client.Pop(ctx, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestClient_Pop_EmptyQueueTimesOut(t *testing.T) {
	client, _ := newTestClient(t)

	got, err := client.Pop(context.Background(), 100*time.Millisecond)

	assert.ErrorIs(t, err, queue.ErrEmpty)
	assert.Nil(t, got)
}

func TestClient_Pop_DeliversEachEntryOnce(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Push(ctx, []byte("only")))

	_, err := client.Pop(ctx, time.Second)
	require.NoError(t, err)

	_, err = client.Pop(ctx, 100*time.Millisecond)
	assert.ErrorIs(t, err, queue.ErrEmpty)
}

func TestClient_Ping(t *testing.T) {
	client, mr := newTestClient(t)

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}
