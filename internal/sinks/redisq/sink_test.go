package redisq

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectordotdev/vector-sub015/internal/ackfabric"
	"github.com/vectordotdev/vector-sub015/internal/event"
)

func TestSinkWritePushesToList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sink := NewWithClient(client, "vector:test")
	require.NoError(t, sink.Healthcheck(context.Background()))

	e := event.NewLogEvent()
	e.Fields.Set("message", event.String("hi"))
	status, err := sink.Write(context.Background(), event.FromLog(e))
	require.NoError(t, err)
	assert.Equal(t, ackfabric.Delivered, status)

	vals, err := client.LRange(context.Background(), "vector:test", 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Contains(t, vals[0], "hi")
}
