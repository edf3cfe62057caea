package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/models"
)

func newMiniredisCache(t *testing.T, clock clockwork.Clock) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "analysis:", 3*time.Minute, clock, logger.NewTestLogger(t)), mr
}

func TestRedis_PutThenGet(t *testing.T) {
	c, mr := newMiniredisCache(t, clockwork.NewFakeClock())
	ctx := context.Background()

	_, ok := c.Get(ctx, "Chess")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "Chess", sampleResponse(0.25)))
	got, ok := c.Get(ctx, "Chess")
	require.True(t, ok)
	assert.Equal(t, sampleResponse(0.25), got)

	assert.True(t, mr.Exists("analysis:Chess"))
	assert.Equal(t, 3*time.Minute, mr.TTL("analysis:Chess"))
}

func TestRedis_ReadPathChecksAge(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, mr := newMiniredisCache(t, clock)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "Chess", sampleResponse(0.25)))
	clock.Advance(3 * time.Minute)

	_, ok := c.Get(ctx, "Chess")
	assert.False(t, ok, "absent at TTL even though redis still holds the key")
	assert.True(t, mr.Exists("analysis:Chess"))
}

func TestRedis_KeyExpiryInRedis(t *testing.T) {
	c, mr := newMiniredisCache(t, clockwork.NewFakeClock())
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "Chess", sampleResponse(0.25)))
	mr.FastForward(3 * time.Minute)

	_, ok := c.Get(ctx, "Chess")
	assert.False(t, ok)
}

func TestRedis_UndecodableEntryIsMiss(t *testing.T) {
	c, mr := newMiniredisCache(t, clockwork.NewFakeClock())
	require.NoError(t, mr.Set("analysis:broken", "{not json"))

	_, ok := c.Get(context.Background(), "broken")
	assert.False(t, ok)
}

func TestRedis_ReadErrorIsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "analysis:", time.Minute, clockwork.NewFakeClock(), logger.NewTestLogger(t))

	mock.ExpectGet("analysis:Chess").SetErr(errors.New("connection reset by peer"))

	_, ok := c.Get(context.Background(), "Chess")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_WriteErrorIsReturned(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client, mock := redismock.NewClientMock()
	c := NewRedis(client, "analysis:", time.Minute, clock, logger.NewTestLogger(t))

	value := sampleResponse(0.5)
	data, err := json.Marshal(models.CacheEntry{CreatedAt: clock.Now().UTC(), Value: value})
	require.NoError(t, err)
	mock.ExpectSet("analysis:Chess", data, time.Minute).SetErr(errors.New("OOM command not allowed"))

	err = c.Put(context.Background(), "Chess", value)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OOM")
	assert.NoError(t, mock.ExpectationsWereMet())
}
