package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
)

func newTestCache(t *testing.T) (*Ranking, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	l, err := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRanking(client, time.Minute, l), mr
}

func TestRankingRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, 10)
	assert.False(t, ok, "empty cache must miss")

	records := []game.ScoreRecord{
		{ID: "a", WalletAddress: "0xw1", Score: 300, Timestamp: 4},
		{ID: "b", WalletAddress: "0xw2", Score: 200, Timestamp: 2},
	}
	c.Set(ctx, 10, records)

	got, ok := c.Get(ctx, 10)
	require.True(t, ok)
	assert.Equal(t, records, got)

	// A different limit is a different entry
	_, ok = c.Get(ctx, 5)
	assert.False(t, ok)
}

func TestRankingInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, 10, []game.ScoreRecord{{ID: "a", WalletAddress: "0xw1", Score: 1}})
	_, ok := c.Get(ctx, 10)
	require.True(t, ok)

	c.Invalidate(ctx)

	_, ok = c.Get(ctx, 10)
	assert.False(t, ok, "stale generation must miss")
}

func TestRankingBackendDownIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, 10, []game.ScoreRecord{{ID: "a", WalletAddress: "0xw1", Score: 1}})
	mr.Close()

	_, ok := c.Get(ctx, 10)
	assert.False(t, ok)
}
