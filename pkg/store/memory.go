package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
)

// MemoryStore implements Store in process memory. It backs the memory
// backend for local development and gives tests the same aggregation
// semantics as the database backends.
type MemoryStore struct {
	mu      sync.RWMutex
	records []game.ScoreRecord
	checks  []game.StatusCheck
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// InsertScore appends one score record
func (s *MemoryStore) InsertScore(ctx context.Context, rec game.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// TopScores reduces the history to one best record per wallet
func (s *MemoryStore) TopScores(ctx context.Context, limit int) ([]game.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := make(map[string]game.ScoreRecord)
	for _, rec := range s.records {
		cur, ok := best[rec.WalletAddress]
		if !ok || rec.Score > cur.Score || (rec.Score == cur.Score && rec.Timestamp > cur.Timestamp) {
			best[rec.WalletAddress] = rec
		}
	}

	ranked := make([]game.ScoreRecord, 0, len(best))
	for _, rec := range best {
		ranked = append(ranked, rec)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Timestamp != ranked[j].Timestamp {
			return ranked[i].Timestamp > ranked[j].Timestamp
		}
		return ranked[i].WalletAddress < ranked[j].WalletAddress
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// History returns raw records sorted descending by score
func (s *MemoryStore) History(ctx context.Context, wallet string, limit int) ([]game.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []game.ScoreRecord{}
	for _, rec := range s.records {
		if wallet == "" || rec.WalletAddress == wallet {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// DeleteByWallet removes every record for the wallet
func (s *MemoryStore) DeleteByWallet(ctx context.Context, wallet string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, rec := range s.records {
		if rec.WalletAddress == wallet {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// Stats computes the global statistics
func (s *MemoryStore) Stats(ctx context.Context) (game.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := game.Stats{TotalGames: int64(len(s.records))}
	if len(s.records) == 0 {
		return stats, nil
	}

	wallets := make(map[string]struct{})
	var sum int64
	stats.HighestScore = s.records[0].Score
	for _, rec := range s.records {
		wallets[rec.WalletAddress] = struct{}{}
		sum += rec.Score
		if rec.Score > stats.HighestScore {
			stats.HighestScore = rec.Score
		}
	}
	stats.UniquePlayers = int64(len(wallets))
	stats.AverageScore = math.Round(float64(sum)/float64(len(s.records))*100) / 100
	return stats, nil
}

// InsertStatusCheck appends one status check record
func (s *MemoryStore) InsertStatusCheck(ctx context.Context, check game.StatusCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, check)
	return nil
}

// StatusChecks returns up to limit status check records
func (s *MemoryStore) StatusChecks(ctx context.Context, limit int) ([]game.StatusCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := make([]game.StatusCheck, 0, len(s.checks))
	checks = append(checks, s.checks...)
	if len(checks) > limit {
		checks = checks[:limit]
	}
	return checks, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *MemoryStore) Close(ctx context.Context) error { return nil }
