package store

import (
	"context"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
)

// Store is the persistence contract for score records. Records are only ever
// inserted or bulk-deleted by wallet; nothing updates a record in place.
// Ranking must be computed server-side as one grouped operation so a query
// never sees a half-applied reduction of concurrent writes.
type Store interface {
	// InsertScore appends one immutable score record
	InsertScore(ctx context.Context, rec game.ScoreRecord) error

	// TopScores returns at most limit records, one per wallet: each
	// wallet's highest score, ties broken by the latest timestamp,
	// sorted descending by score.
	TopScores(ctx context.Context, limit int) ([]game.ScoreRecord, error)

	// History returns raw non-deduplicated records sorted descending by
	// score, optionally filtered to one wallet, capped at limit.
	History(ctx context.Context, wallet string, limit int) ([]game.ScoreRecord, error)

	// DeleteByWallet removes every record for the wallet and returns the
	// number removed. Zero matches is not an error.
	DeleteByWallet(ctx context.Context, wallet string) (int64, error)

	// Stats computes global aggregate statistics. An empty store yields
	// zero values, not an error.
	Stats(ctx context.Context) (game.Stats, error)

	// InsertStatusCheck appends one health-ping record
	InsertStatusCheck(ctx context.Context, check game.StatusCheck) error

	// StatusChecks returns up to limit health-ping records
	StatusChecks(ctx context.Context, limit int) ([]game.StatusCheck, error)

	// Ping verifies connectivity
	Ping(ctx context.Context) error

	// Close releases the underlying connections
	Close(ctx context.Context) error
}
