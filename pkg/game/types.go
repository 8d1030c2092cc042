package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScoreRecord is one persisted score submission. Records are immutable once
// written; the ranking view is always derived from them at query time.
type ScoreRecord struct {
	ID            string `json:"id" bson:"id"`
	WalletAddress string `json:"walletAddress" bson:"walletAddress"`
	Score         int64  `json:"score" bson:"score"`
	Timestamp     int64  `json:"timestamp" bson:"timestamp"`
	Verified      bool   `json:"verified" bson:"verified"`
}

// ScoreSubmission is the client-supplied shape for scoreUpdate, gameEnd and
// the submit-score endpoint. The wallet address is an opaque untrusted string
// and the timestamp is whatever the client clock said.
type ScoreSubmission struct {
	WalletAddress string `json:"walletAddress"`
	Score         int64  `json:"score"`
	Timestamp     int64  `json:"timestamp"`
}

// Validate checks the submission shape
func (s ScoreSubmission) Validate() error {
	if s.WalletAddress == "" {
		return errors.New("walletAddress is required")
	}
	return nil
}

// NewScoreRecord builds a fresh record from a submission.
// Verified is always false here; nothing in this service ever flips it.
func NewScoreRecord(sub ScoreSubmission) ScoreRecord {
	return ScoreRecord{
		ID:            uuid.NewString(),
		WalletAddress: sub.WalletAddress,
		Score:         sub.Score,
		Timestamp:     sub.Timestamp,
		Verified:      false,
	}
}

// State is a transient game-state snapshot relayed between clients.
// It is never persisted.
type State struct {
	WalletAddress string  `json:"walletAddress"`
	Snake         [][]int `json:"snake"`
	Apple         []int   `json:"apple"`
	Score         int64   `json:"score"`
	Timestamp     int64   `json:"timestamp"`
}

// Validate checks the snapshot shape
func (s State) Validate() error {
	if s.WalletAddress == "" {
		return errors.New("walletAddress is required")
	}
	if s.Snake == nil {
		return errors.New("snake is required")
	}
	for i, seg := range s.Snake {
		if len(seg) != 2 {
			return fmt.Errorf("snake segment %d must be a 2D coordinate", i)
		}
	}
	if len(s.Apple) != 2 {
		return errors.New("apple must be a 2D coordinate")
	}
	return nil
}

// Stats holds global aggregate statistics over all score records
type Stats struct {
	TotalGames    int64   `json:"total_games"`
	UniquePlayers int64   `json:"unique_players"`
	HighestScore  int64   `json:"highest_score"`
	AverageScore  float64 `json:"average_score"`
}

// StatusCheck is a client health-ping record
type StatusCheck struct {
	ID         string    `json:"id" bson:"id"`
	ClientName string    `json:"client_name" bson:"client_name"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

// NewStatusCheck builds a status check with a generated id and server time
func NewStatusCheck(clientName string) StatusCheck {
	return StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}
}
