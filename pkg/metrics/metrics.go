package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hub metrics
	HubConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snake_hub_connected_clients",
		Help: "The number of currently connected websocket clients",
	})
	HubMessagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_hub_messages_dropped_total",
		Help: "The total number of outbound messages dropped because a client queue was full",
	})

	// Relay metrics
	RelayEventsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snake_relay_events_received_total",
		Help: "The total number of real-time events received, by event kind",
	}, []string{"event"})
	RelayEventsDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_relay_events_discarded_total",
		Help: "The total number of malformed or unknown events discarded",
	})
	RelayPersistErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_relay_persist_errors_total",
		Help: "The total number of score writes rejected by the store",
	})

	// Leaderboard metrics
	ScoresPersistedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_scores_persisted_total",
		Help: "The total number of score records written to the store",
	})
	RankingCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_ranking_cache_hits_total",
		Help: "The total number of ranking queries served from the cache",
	})
	QueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snake_query_latency_seconds",
		Help:    "Latency of leaderboard and statistics queries",
		Buckets: prometheus.DefBuckets,
	})

	// Firehose metrics
	FirehosePublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snake_firehose_publish_errors_total",
		Help: "The total number of errors occurred while publishing score records to Kafka",
	})
)
