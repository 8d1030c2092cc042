package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_scores (
	id UUID PRIMARY KEY,
	wallet_address TEXT NOT NULL,
	score BIGINT NOT NULL,
	ts BIGINT NOT NULL,
	verified BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_game_scores_wallet_score ON game_scores (wallet_address, score DESC);
CREATE INDEX IF NOT EXISTS idx_game_scores_score_ts ON game_scores (score DESC, ts DESC);
CREATE TABLE IF NOT EXISTS status_checks (
	id UUID PRIMARY KEY,
	client_name TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL
);
`

// PostgresStore implements Store using pgxpool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds database connection settings
type PostgresConfig struct {
	URI      string
	MinConns int32
	MaxConns int32
}

// NewPostgresStore creates a new PostgresStore and ensures the schema exists
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// InsertScore appends one score record
func (s *PostgresStore) InsertScore(ctx context.Context, rec game.ScoreRecord) error {
	const query = `INSERT INTO game_scores (id, wallet_address, score, ts, verified) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, query, rec.ID, rec.WalletAddress, rec.Score, rec.Timestamp, rec.Verified); err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// TopScores reduces the history to one best record per wallet in a single query
func (s *PostgresStore) TopScores(ctx context.Context, limit int) ([]game.ScoreRecord, error) {
	const query = `
		SELECT id, wallet_address, score, ts, verified FROM (
			SELECT DISTINCT ON (wallet_address) id, wallet_address, score, ts, verified
			FROM game_scores
			ORDER BY wallet_address, score DESC, ts DESC
		) best
		ORDER BY score DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	defer rows.Close()

	records := []game.ScoreRecord{}
	for rows.Next() {
		var rec game.ScoreRecord
		if err := rows.Scan(&rec.ID, &rec.WalletAddress, &rec.Score, &rec.Timestamp, &rec.Verified); err != nil {
			return nil, fmt.Errorf("failed to scan top score row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top scores query failed: %w", err)
	}
	return records, nil
}

// History returns raw records sorted descending by score
func (s *PostgresStore) History(ctx context.Context, wallet string, limit int) ([]game.ScoreRecord, error) {
	query := `SELECT id, wallet_address, score, ts, verified FROM game_scores ORDER BY score DESC LIMIT $1`
	args := []any{limit}
	if wallet != "" {
		query = `SELECT id, wallet_address, score, ts, verified FROM game_scores WHERE wallet_address = $1 ORDER BY score DESC LIMIT $2`
		args = []any{wallet, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []game.ScoreRecord{}
	for rows.Next() {
		var rec game.ScoreRecord
		if err := rows.Scan(&rec.ID, &rec.WalletAddress, &rec.Score, &rec.Timestamp, &rec.Verified); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	return records, nil
}

// DeleteByWallet removes every record for the wallet
func (s *PostgresStore) DeleteByWallet(ctx context.Context, wallet string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM game_scores WHERE wallet_address = $1`, wallet)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scores: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Stats computes the global statistics in one aggregate query
func (s *PostgresStore) Stats(ctx context.Context) (game.Stats, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(DISTINCT wallet_address),
		       COALESCE(MAX(score), 0),
		       COALESCE(ROUND(AVG(score)::numeric, 2), 0)::float8
		FROM game_scores
	`
	var stats game.Stats
	err := s.pool.QueryRow(ctx, query).Scan(&stats.TotalGames, &stats.UniquePlayers, &stats.HighestScore, &stats.AverageScore)
	if err != nil {
		return game.Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}

// InsertStatusCheck appends one status check record
func (s *PostgresStore) InsertStatusCheck(ctx context.Context, check game.StatusCheck) error {
	const query = `INSERT INTO status_checks (id, client_name, ts) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, query, check.ID, check.ClientName, check.Timestamp); err != nil {
		return fmt.Errorf("failed to insert status check: %w", err)
	}
	return nil
}

// StatusChecks returns up to limit status check records
func (s *PostgresStore) StatusChecks(ctx context.Context, limit int) ([]game.StatusCheck, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, client_name, ts FROM status_checks LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query status checks: %w", err)
	}
	defer rows.Close()

	checks := []game.StatusCheck{}
	for rows.Next() {
		var check game.StatusCheck
		if err := rows.Scan(&check.ID, &check.ClientName, &check.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan status check row: %w", err)
		}
		checks = append(checks, check)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("status checks query failed: %w", err)
	}
	return checks, nil
}

// Ping verifies connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool
func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
