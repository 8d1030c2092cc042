package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/hub"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/metrics"
)

// Broadcaster is the fan-out surface the relay needs from the hub
type Broadcaster interface {
	Broadcast(payload []byte)
	BroadcastExcept(payload []byte, sender *hub.Client)
}

// Scores is the persistence surface the relay needs from the leaderboard service
type Scores interface {
	Submit(ctx context.Context, sub game.ScoreSubmission) (game.ScoreRecord, error)
}

// Service applies the per-kind relay policy to inbound real-time events.
// Every event is handled independently: validate, persist when score-bearing,
// then fan out. Nothing is ever reported back to the emitting client, the
// transport has no per-event acknowledgment.
type Service struct {
	hub    Broadcaster
	scores Scores
	logger *logger.Logger
}

// NewService creates a new relay Service
func NewService(b Broadcaster, scores Scores, l *logger.Logger) *Service {
	return &Service{
		hub:    b,
		scores: scores,
		logger: l,
	}
}

// HandleMessage processes one raw wire message from a connection.
// Malformed payloads and persistence failures are logged and swallowed.
func (s *Service) HandleMessage(ctx context.Context, sender *hub.Client, raw []byte) {
	ev, err := game.ParseEvent(raw)
	if err != nil {
		metrics.RelayEventsDiscardedTotal.Inc()
		s.logger.Debug("discarding event", zap.Error(err))
		return
	}
	metrics.RelayEventsReceivedTotal.WithLabelValues(ev.Name()).Inc()

	switch e := ev.(type) {
	case game.StateEvent:
		// Ephemeral telemetry: echo to the other clients, never store.
		s.relayExcept(e, sender)

	case game.ScoreEvent:
		// Persist first; a client must never see a broadcast for a
		// score that failed to reach the store.
		if _, err := s.scores.Submit(ctx, e.Submission); err != nil {
			metrics.RelayPersistErrorsTotal.Inc()
			s.logger.Error("dropping score update", err,
				zap.String("wallet", e.Submission.WalletAddress))
			return
		}
		s.relayExcept(e, sender)

	case game.GameEndEvent:
		if _, err := s.scores.Submit(ctx, e.Submission); err != nil {
			metrics.RelayPersistErrorsTotal.Inc()
			s.logger.Error("dropping game end", err,
				zap.String("wallet", e.Submission.WalletAddress))
			return
		}
		// Game end goes to everyone, sender included, so every client
		// refreshes its displayed ranking.
		s.relayAll(e)
	}
}

func (s *Service) relayExcept(ev game.Event, sender *hub.Client) {
	payload, err := game.EncodeEnvelope(ev.Name(), ev.Raw())
	if err != nil {
		s.logger.Error("failed to encode relay payload", err, zap.String("event", ev.Name()))
		return
	}
	s.hub.BroadcastExcept(payload, sender)
}

func (s *Service) relayAll(ev game.Event) {
	payload, err := game.EncodeEnvelope(ev.Name(), ev.Raw())
	if err != nil {
		s.logger.Error("failed to encode relay payload", err, zap.String("event", ev.Name()))
		return
	}
	s.hub.Broadcast(payload)
}
