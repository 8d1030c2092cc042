package firehose

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/game"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/metrics"
)

// Publisher streams persisted score records to downstream consumers.
// Publishing is fire-and-forget: failures are logged and counted, never
// surfaced to the client that submitted the score.
type Publisher interface {
	Publish(ctx context.Context, rec game.ScoreRecord)
	Close() error
}

// Config holds Kafka publisher configuration
type Config struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher implements Publisher using kafka-go
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewKafkaPublisher creates a new KafkaPublisher instance
func NewKafkaPublisher(cfg Config, l *logger.Logger) *KafkaPublisher {
	p := &KafkaPublisher{logger: l}
	p.writer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Async:    true, // Non-blocking
		Balancer: &kafka.LeastBytes{},
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				metrics.FirehosePublishErrorsTotal.Inc()
				l.Error("failed to publish score records", err)
			}
		},
	}
	return p
}

// Publish sends one score record keyed by wallet address
func (p *KafkaPublisher) Publish(ctx context.Context, rec game.ScoreRecord) {
	value, err := json.Marshal(rec)
	if err != nil {
		p.logger.Error("failed to serialize score record", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(rec.WalletAddress),
		Value: value,
	}

	// Async writer: WriteMessages only fails on structural errors,
	// delivery outcomes arrive via the Completion callback.
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.FirehosePublishErrorsTotal.Inc()
		p.logger.Error("failed to enqueue score record", err)
	}
}

// Close gracefully shuts down the publisher
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop is a Publisher that discards everything, used when the firehose is
// not configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, rec game.ScoreRecord) {}
func (Nop) Close() error                                      { return nil }
