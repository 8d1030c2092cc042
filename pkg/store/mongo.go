package store

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
)

const statusCollection = "status_checks"

// MongoStore implements Store on a MongoDB collection
type MongoStore struct {
	client *mongo.Client
	scores *mongo.Collection
	status *mongo.Collection
}

// NewMongoStore creates a new MongoStore instance
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client: client,
		scores: db.Collection(collection),
		status: db.Collection(statusCollection),
	}
}

// EnsureIndexes creates the indexes backing the ranking and history queries
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.scores.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "walletAddress", Value: 1}, {Key: "score", Value: -1}}},
		{Keys: bson.D{{Key: "score", Value: -1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// InsertScore appends one score record
func (s *MongoStore) InsertScore(ctx context.Context, rec game.ScoreRecord) error {
	if _, err := s.scores.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// TopScores reduces the full history to one best record per wallet.
// The reduction runs as a single aggregation pipeline on the server.
func (s *MongoStore) TopScores(ctx context.Context, limit int) ([]game.ScoreRecord, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "timestamp", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$walletAddress"},
			{Key: "id", Value: bson.D{{Key: "$first", Value: "$id"}}},
			{Key: "walletAddress", Value: bson.D{{Key: "$first", Value: "$walletAddress"}}},
			{Key: "score", Value: bson.D{{Key: "$first", Value: "$score"}}},
			{Key: "timestamp", Value: bson.D{{Key: "$first", Value: "$timestamp"}}},
			{Key: "verified", Value: bson.D{{Key: "$first", Value: "$verified"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := s.scores.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top scores: %w", err)
	}
	defer cursor.Close(ctx)

	records := []game.ScoreRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode top scores: %w", err)
	}
	return records, nil
}

// History returns raw records sorted descending by score
func (s *MongoStore) History(ctx context.Context, wallet string, limit int) ([]game.ScoreRecord, error) {
	filter := bson.M{}
	if wallet != "" {
		filter["walletAddress"] = wallet
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.scores.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer cursor.Close(ctx)

	records := []game.ScoreRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

// DeleteByWallet removes every record for the wallet
func (s *MongoStore) DeleteByWallet(ctx context.Context, wallet string) (int64, error) {
	res, err := s.scores.DeleteMany(ctx, bson.M{"walletAddress": wallet})
	if err != nil {
		return 0, fmt.Errorf("failed to delete scores: %w", err)
	}
	return res.DeletedCount, nil
}

// Stats computes the global statistics
func (s *MongoStore) Stats(ctx context.Context) (game.Stats, error) {
	total, err := s.scores.CountDocuments(ctx, bson.M{})
	if err != nil {
		return game.Stats{}, fmt.Errorf("failed to count scores: %w", err)
	}

	wallets, err := s.scores.Distinct(ctx, "walletAddress", bson.M{})
	if err != nil {
		return game.Stats{}, fmt.Errorf("failed to count distinct wallets: %w", err)
	}

	stats := game.Stats{
		TotalGames:    total,
		UniquePlayers: int64(len(wallets)),
	}

	var top game.ScoreRecord
	err = s.scores.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "score", Value: -1}})).Decode(&top)
	switch err {
	case nil:
		stats.HighestScore = top.Score
	case mongo.ErrNoDocuments:
		// empty store, zero values stand
	default:
		return game.Stats{}, fmt.Errorf("failed to find highest score: %w", err)
	}

	avgPipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg_score", Value: bson.D{{Key: "$avg", Value: "$score"}}},
		}}},
	}
	cursor, err := s.scores.Aggregate(ctx, avgPipeline)
	if err != nil {
		return game.Stats{}, fmt.Errorf("failed to aggregate average score: %w", err)
	}
	defer cursor.Close(ctx)

	var avgResults []struct {
		AvgScore float64 `bson:"avg_score"`
	}
	if err := cursor.All(ctx, &avgResults); err != nil {
		return game.Stats{}, fmt.Errorf("failed to decode average score: %w", err)
	}
	if len(avgResults) > 0 {
		stats.AverageScore = math.Round(avgResults[0].AvgScore*100) / 100
	}

	return stats, nil
}

// InsertStatusCheck appends one status check record
func (s *MongoStore) InsertStatusCheck(ctx context.Context, check game.StatusCheck) error {
	if _, err := s.status.InsertOne(ctx, check); err != nil {
		return fmt.Errorf("failed to insert status check: %w", err)
	}
	return nil
}

// StatusChecks returns up to limit status check records
func (s *MongoStore) StatusChecks(ctx context.Context, limit int) ([]game.StatusCheck, error) {
	cursor, err := s.status.Find(ctx, bson.M{}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to query status checks: %w", err)
	}
	defer cursor.Close(ctx)

	checks := []game.StatusCheck{}
	if err := cursor.All(ctx, &checks); err != nil {
		return nil, fmt.Errorf("failed to decode status checks: %w", err)
	}
	return checks, nil
}

// Ping verifies connectivity
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
