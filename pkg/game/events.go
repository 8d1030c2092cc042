package game

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Wire event names shared with the browser client.
const (
	EventGameState   = "gameState"
	EventScoreUpdate = "scoreUpdate"
	EventGameEnd     = "gameEnd"
	EventConnected   = "connected"
)

// Envelope is the wire format for the real-time channel
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EncodeEnvelope marshals an event name and payload into wire bytes
func EncodeEnvelope(event string, data json.RawMessage) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Event is the closed set of inbound real-time events. Parsing produces
// exactly one of StateEvent, ScoreEvent or GameEndEvent; handlers dispatch
// with an exhaustive type switch so an unknown event name can never be
// silently half-handled.
type Event interface {
	Name() string
	// Raw returns the payload exactly as the client sent it, for
	// verbatim rebroadcast.
	Raw() json.RawMessage
}

// StateEvent carries a validated transient game-state snapshot
type StateEvent struct {
	State State
	raw   json.RawMessage
}

func (e StateEvent) Name() string         { return EventGameState }
func (e StateEvent) Raw() json.RawMessage { return e.raw }

// ScoreEvent carries a validated in-game score update
type ScoreEvent struct {
	Submission ScoreSubmission
	raw        json.RawMessage
}

func (e ScoreEvent) Name() string         { return EventScoreUpdate }
func (e ScoreEvent) Raw() json.RawMessage { return e.raw }

// GameEndEvent carries the final score of a finished game
type GameEndEvent struct {
	Submission ScoreSubmission
	raw        json.RawMessage
}

func (e GameEndEvent) Name() string         { return EventGameEnd }
func (e GameEndEvent) Raw() json.RawMessage { return e.raw }

// ParseEvent decodes one wire message into a typed event.
// Unknown event names and payloads that fail validation are errors; the
// caller logs and drops them without replying.
func ParseEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	switch env.Event {
	case EventGameState:
		var state State
		if err := json.Unmarshal(env.Data, &state); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		if err := state.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Event, err)
		}
		return StateEvent{State: state, raw: env.Data}, nil

	case EventScoreUpdate, EventGameEnd:
		var sub ScoreSubmission
		if err := json.Unmarshal(env.Data, &sub); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
		if err := sub.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Event, err)
		}
		if env.Event == EventGameEnd {
			return GameEndEvent{Submission: sub, raw: env.Data}, nil
		}
		return ScoreEvent{Submission: sub, raw: env.Data}, nil

	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}
