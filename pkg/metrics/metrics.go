package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Пример запроса PromQL: rate(http_requests_total{service="store"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// RateLimitRejections - запросы, отклонённые rate limiter'ом
var RateLimitRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_rate_limit_rejections_total",
		Help: "Total number of requests rejected by rate limiting",
	},
	[]string{"service", "policy"},
)

// =============================================================================
// Database метрики
// =============================================================================

var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis метрики
// =============================================================================

var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka метрики
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Бизнес метрики магазина
// =============================================================================

// ProductWrites - операции записи товаров
var ProductWrites = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "store_product_writes_total",
		Help: "Total number of product write operations",
	},
	[]string{"operation", "status"}, // operation: create, update, delete; status: success, failed, rejected
)

// MediaFiles - загруженные и отклонённые медиафайлы
var MediaFiles = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "store_media_files_total",
		Help: "Total number of uploaded media files",
	},
	[]string{"kind", "status"}, // kind: image, video; status: stored, rejected
)

// MediaSweeperRemoved - файлы, удалённые sweeper'ом как осиротевшие
var MediaSweeperRemoved = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "store_media_sweeper_removed_total",
		Help: "Total number of orphaned media files removed",
	},
)

// WalletTransactions - транзакции кошелька по типу и итоговому статусу
var WalletTransactions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "store_wallet_transactions_total",
		Help: "Total number of wallet transactions",
	},
	[]string{"type", "status"},
)

var OrdersCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "store_orders_created_total",
		Help: "Total number of customer orders created",
	},
)
