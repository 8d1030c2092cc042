package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/cache"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/store"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, rec game.ScoreRecord) {
	m.Called(ctx, rec)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// failingStore wraps MemoryStore and fails every operation
type failingStore struct {
	*store.MemoryStore
}

func (failingStore) TopScores(ctx context.Context, limit int) ([]game.ScoreRecord, error) {
	return nil, errors.New("store unavailable")
}

func (failingStore) History(ctx context.Context, wallet string, limit int) ([]game.ScoreRecord, error) {
	return nil, errors.New("store unavailable")
}

func (failingStore) Stats(ctx context.Context) (game.Stats, error) {
	return game.Stats{}, errors.New("store unavailable")
}

func (failingStore) InsertScore(ctx context.Context, rec game.ScoreRecord) error {
	return errors.New("store unavailable")
}

func testLimits() Limits { return Limits{Ranking: 10, History: 50} }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	require.NoError(t, err)
	return l
}

func TestSubmitCreatesRecord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewService(st, nil, nil, testLogger(t), testLimits())

	rec, err := svc.Submit(ctx, game.ScoreSubmission{WalletAddress: "0xabc", Score: 77, Timestamp: 1700000000})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "0xabc", rec.WalletAddress)
	assert.Equal(t, int64(77), rec.Score)
	assert.False(t, rec.Verified)

	history, err := svc.History(ctx, "0xabc", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec, history[0])
}

func TestSubmitRejectsInvalidSubmission(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil, nil, testLogger(t), testLimits())

	_, err := svc.Submit(context.Background(), game.ScoreSubmission{Score: 1})
	assert.Error(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalGames)
}

func TestSubmitPublishesToFirehose(t *testing.T) {
	mp := new(MockPublisher)
	mp.On("Publish", mock.Anything, mock.MatchedBy(func(rec game.ScoreRecord) bool {
		return rec.WalletAddress == "0xabc" && rec.Score == 5
	})).Once()

	svc := NewService(store.NewMemoryStore(), nil, mp, testLogger(t), testLimits())

	_, err := svc.Submit(context.Background(), game.ScoreSubmission{WalletAddress: "0xabc", Score: 5, Timestamp: 1})
	require.NoError(t, err)
	mp.AssertExpectations(t)
}

func TestRankingDefaultLimit(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewService(st, nil, nil, testLogger(t), Limits{Ranking: 2, History: 50})

	for i, wallet := range []string{"0xa", "0xb", "0xc"} {
		_, err := svc.Submit(ctx, game.ScoreSubmission{WalletAddress: wallet, Score: int64(100 + i), Timestamp: int64(i)})
		require.NoError(t, err)
	}

	ranked, err := svc.Ranking(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

func TestRankingUsesCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	l := testLogger(t)
	rc := cache.NewRanking(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, l)
	st := store.NewMemoryStore()
	svc := NewService(st, rc, nil, l, testLimits())

	_, err = svc.Submit(ctx, game.ScoreSubmission{WalletAddress: "0xa", Score: 100, Timestamp: 1})
	require.NoError(t, err)

	first, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A write that bypasses the service is invisible while cached
	require.NoError(t, st.InsertScore(ctx, game.NewScoreRecord(game.ScoreSubmission{WalletAddress: "0xb", Score: 200, Timestamp: 2})))

	cached, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	// Submitting through the service invalidates the cache
	_, err = svc.Submit(ctx, game.ScoreSubmission{WalletAddress: "0xc", Score: 300, Timestamp: 3})
	require.NoError(t, err)

	fresh, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestClearInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	l := testLogger(t)
	rc := cache.NewRanking(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, l)
	svc := NewService(store.NewMemoryStore(), rc, nil, l, testLimits())

	_, err = svc.Submit(ctx, game.ScoreSubmission{WalletAddress: "0xa", Score: 100, Timestamp: 1})
	require.NoError(t, err)

	ranked, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	deleted, err := svc.Clear(ctx, "0xa")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	ranked, err = svc.Ranking(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestQueryErrorsAreSurfaced(t *testing.T) {
	ctx := context.Background()
	svc := NewService(failingStore{store.NewMemoryStore()}, nil, nil, testLogger(t), testLimits())

	_, err := svc.Ranking(ctx, 10)
	assert.Error(t, err)

	_, err = svc.History(ctx, "", 10)
	assert.Error(t, err)

	_, err = svc.Stats(ctx)
	assert.Error(t, err)

	_, err = svc.Submit(ctx, game.ScoreSubmission{WalletAddress: "0xa"})
	assert.Error(t, err)
}
