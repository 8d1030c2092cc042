package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/internal/api"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/internal/leaderboard"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/internal/relay"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/cache"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/config"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/firehose"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/hub"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/logger"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/retry"
	"github.com/Dropxtor/SUCCINCT-FUN-SNAKE/pkg/store"
)

func main() {
	// 1. Load config
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("snake relay initializing",
		zap.String("env", cfg.Environment),
		zap.String("backend", cfg.Store.Backend))

	// 3. Initialize score store
	st, err := buildStore(context.Background(), cfg, l)
	if err != nil {
		l.Error("failed to initialize store", err)
		os.Exit(1)
	}
	defer st.Close(context.Background())

	if err := retry.Do(context.Background(), func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return st.Ping(pingCtx)
	}, retry.DefaultOptions()); err != nil {
		l.Error("store is unreachable", err)
		os.Exit(1)
	}

	// 4. Optional ranking cache
	var rankingCache *cache.Ranking
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		rankingCache = cache.NewRanking(client, cfg.Redis.TTL, l)
		l.Info("ranking cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Optional score firehose
	var publisher firehose.Publisher = firehose.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := firehose.NewKafkaPublisher(firehose.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, l)
		defer kp.Close()
		publisher = kp
		l.Info("score firehose enabled", zap.String("topic", cfg.Kafka.Topic))
	}

	// 6. Build services
	connHub := hub.New(cfg.Hub.SendBuffer, l)
	scores := leaderboard.NewService(st, rankingCache, publisher, l, leaderboard.Limits{
		Ranking: cfg.Leaderboard.DefaultLimit,
		History: cfg.Leaderboard.HistoryLimit,
	})
	eventRelay := relay.NewService(connHub, scores, l)

	// 7. Start HTTP server
	server := api.New(cfg.HTTP.Addr, connHub, eventRelay, scores, st, l)
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("snake relay started", zap.String("addr", cfg.HTTP.Addr))

	select {
	case <-ctx.Done():
		l.Info("snake relay stopping")
	case err := <-errChan:
		if err != nil {
			l.Error("server failed", err)
		}
	}

	// 8. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("shutdown incomplete", err)
	}
}

func buildStore(ctx context.Context, cfg *config.AppConfig, l *logger.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoDB.ConnectTimeout)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoDB.URI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		st := store.NewMongoStore(client, cfg.MongoDB.Database, cfg.MongoDB.Collection)
		if err := st.EnsureIndexes(connectCtx); err != nil {
			l.Warn("failed to ensure indexes", zap.Error(err))
		}
		return st, nil

	case config.BackendPostgres:
		return store.NewPostgresStore(ctx, store.PostgresConfig{
			URI:      cfg.Postgres.URI,
			MinConns: int32(cfg.Postgres.MinConns),
			MaxConns: int32(cfg.Postgres.MaxConns),
		})

	case config.BackendMemory:
		l.Warn("using in-memory store, scores will not survive a restart")
		return store.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
