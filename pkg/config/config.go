package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends selectable via store.backend.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// AppConfig holds the complete configuration for the application
type AppConfig struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	ServiceName string            `mapstructure:"service_name"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Store       StoreConfig       `mapstructure:"store"`
	MongoDB     MongoConfig       `mapstructure:"mongodb"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Hub         HubConfig         `mapstructure:"hub"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type PostgresConfig struct {
	URI      string `mapstructure:"uri"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// RedisConfig enables the ranking cache when Addr is set.
type RedisConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// KafkaConfig enables the score firehose when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type HubConfig struct {
	SendBuffer int `mapstructure:"send_buffer"`
}

type LeaderboardConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	HistoryLimit int `mapstructure:"history_limit"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	// Default values
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("store.backend", BackendMongo)
	v.SetDefault("mongodb.collection", "game_scores")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("postgres.max_conns", 20)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("redis.ttl", 5*time.Second)
	v.SetDefault("hub.send_buffer", 64)
	v.SetDefault("leaderboard.default_limit", 10)
	v.SetDefault("leaderboard.history_limit", 50)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// Bind environment variables explicitly for nested structs to ensure Unmarshal picks them up
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("http.addr", "HTTP_ADDR")
	v.BindEnv("store.backend", "STORE_BACKEND")
	v.BindEnv("mongodb.uri", "MONGODB_URI")
	v.BindEnv("mongodb.database", "MONGODB_DATABASE")
	v.BindEnv("mongodb.collection", "MONGODB_COLLECTION")
	v.BindEnv("postgres.uri", "POSTGRES_URI")
	v.BindEnv("postgres.max_conns", "POSTGRES_MAX_CONNS")
	v.BindEnv("postgres.min_conns", "POSTGRES_MIN_CONNS")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.ttl", "REDIS_TTL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("hub.send_buffer", "HUB_SEND_BUFFER")
	v.BindEnv("leaderboard.default_limit", "LEADERBOARD_DEFAULT_LIMIT")
	v.BindEnv("leaderboard.history_limit", "LEADERBOARD_HISTORY_LIMIT")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Manual check for Kafka brokers if they came as a single string from env
	brokers := v.GetString("kafka.brokers")
	if brokers != "" && len(config.Kafka.Brokers) == 0 {
		config.Kafka.Brokers = strings.Split(brokers, ",")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	switch c.Store.Backend {
	case BackendMongo:
		if c.MongoDB.URI == "" {
			return errors.New("mongodb.uri is required")
		}
		if c.MongoDB.Database == "" {
			return errors.New("mongodb.database is required")
		}
	case BackendPostgres:
		if c.Postgres.URI == "" {
			return errors.New("postgres.uri is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when kafka.brokers is set")
	}
	if c.Hub.SendBuffer <= 0 {
		return errors.New("hub.send_buffer must be positive")
	}
	if c.Leaderboard.DefaultLimit <= 0 || c.Leaderboard.HistoryLimit <= 0 {
		return errors.New("leaderboard limits must be positive")
	}
	return nil
}
