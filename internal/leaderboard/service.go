package leaderboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/cache"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/firehose"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/metrics"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/store"
)

// Limits holds the default caps applied when a query does not name one
type Limits struct {
	Ranking int
	History int
}

// Service owns score persistence and the derived leaderboard views.
// Both the real-time relay and the HTTP API submit scores through it, so the
// firehose and cache invalidation hooks fire on every write path.
type Service struct {
	store    store.Store
	cache    *cache.Ranking // nil when the cache is disabled
	firehose firehose.Publisher
	logger   *logger.Logger
	limits   Limits
}

// NewService creates a new leaderboard Service
func NewService(st store.Store, rc *cache.Ranking, fh firehose.Publisher, l *logger.Logger, limits Limits) *Service {
	if fh == nil {
		fh = firehose.Nop{}
	}
	return &Service{
		store:    st,
		cache:    rc,
		firehose: fh,
		logger:   l,
		limits:   limits,
	}
}

// Submit persists one score submission and returns the created record
func (s *Service) Submit(ctx context.Context, sub game.ScoreSubmission) (game.ScoreRecord, error) {
	if err := sub.Validate(); err != nil {
		return game.ScoreRecord{}, fmt.Errorf("invalid submission: %w", err)
	}

	rec := game.NewScoreRecord(sub)
	if err := s.store.InsertScore(ctx, rec); err != nil {
		return game.ScoreRecord{}, fmt.Errorf("failed to persist score: %w", err)
	}
	metrics.ScoresPersistedTotal.Inc()

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.firehose.Publish(ctx, rec)

	s.logger.Debug("score persisted",
		zap.String("wallet", rec.WalletAddress),
		zap.Int64("score", rec.Score))
	return rec, nil
}

// Ranking returns the best record per wallet, sorted descending by score
func (s *Service) Ranking(ctx context.Context, limit int) ([]game.ScoreRecord, error) {
	if limit <= 0 {
		limit = s.limits.Ranking
	}

	if s.cache != nil {
		if records, ok := s.cache.Get(ctx, limit); ok {
			metrics.RankingCacheHitsTotal.Inc()
			return records, nil
		}
	}

	start := time.Now()
	records, err := s.store.TopScores(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	metrics.QueryLatency.Observe(time.Since(start).Seconds())

	if s.cache != nil {
		s.cache.Set(ctx, limit, records)
	}
	return records, nil
}

// History returns raw submissions, optionally filtered to one wallet
func (s *Service) History(ctx context.Context, wallet string, limit int) ([]game.ScoreRecord, error) {
	if limit <= 0 {
		limit = s.limits.History
	}

	start := time.Now()
	records, err := s.store.History(ctx, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	metrics.QueryLatency.Observe(time.Since(start).Seconds())
	return records, nil
}

// Stats returns the global statistics
func (s *Service) Stats(ctx context.Context) (game.Stats, error) {
	start := time.Now()
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return game.Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	metrics.QueryLatency.Observe(time.Since(start).Seconds())
	return stats, nil
}

// Clear deletes every record for the wallet and returns the count removed
func (s *Service) Clear(ctx context.Context, wallet string) (int64, error) {
	deleted, err := s.store.DeleteByWallet(ctx, wallet)
	if err != nil {
		return 0, fmt.Errorf("failed to clear scores: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.logger.Info("scores cleared",
		zap.String("wallet", wallet),
		zap.Int64("deleted", deleted))
	return deleted, nil
}
