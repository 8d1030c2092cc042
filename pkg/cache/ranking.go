package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
)

const genKey = "leaderboard:gen"

// Ranking is a read-through cache for the top-N ranking query. Entries are
// keyed by a generation counter; invalidation bumps the counter instead of
// scanning for keys, and stale generations age out via TTL.
type Ranking struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRanking creates a Ranking cache
func NewRanking(client *redis.Client, ttl time.Duration, l *logger.Logger) *Ranking {
	return &Ranking{client: client, ttl: ttl, logger: l}
}

func (c *Ranking) key(ctx context.Context, limit int) (string, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("leaderboard:top:%d:%d", gen, limit), nil
}

// Get returns the cached ranking for limit, if present. Cache errors are
// logged and reported as a miss so the caller falls through to the store.
func (c *Ranking) Get(ctx context.Context, limit int) ([]game.ScoreRecord, bool) {
	key, err := c.key(ctx, limit)
	if err != nil {
		c.logger.Warn("ranking cache unavailable")
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Error("failed to read ranking cache", err)
		}
		return nil, false
	}

	var records []game.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Error("failed to decode cached ranking", err)
		return nil, false
	}
	return records, true
}

// Set stores the ranking for limit under the current generation
func (c *Ranking) Set(ctx context.Context, limit int, records []game.ScoreRecord) {
	key, err := c.key(ctx, limit)
	if err != nil {
		return
	}

	data, err := json.Marshal(records)
	if err != nil {
		c.logger.Error("failed to encode ranking for cache", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("failed to write ranking cache", err)
	}
}

// Invalidate discards every cached ranking by advancing the generation
func (c *Ranking) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		c.logger.Error("failed to invalidate ranking cache", err)
	}
}
