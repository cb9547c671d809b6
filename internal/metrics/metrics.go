package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики флоу заказов
// ============================================================

// OrderCreations - попытки создания заказа по результату
// (created, replayed, rejected, error)
var OrderCreations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "orders",
		Name:      "creations_total",
		Help:      "Order creation attempts by result",
	},
	[]string{"result"},
)

// OrderCreationDuration - время полного флоу принятия оффера
var OrderCreationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "stocklot",
		Subsystem: "orders",
		Name:      "creation_duration_seconds",
		Help:      "Time to accept an offer and create the order group",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	},
)

// DomainErrors - доменные отказы по стабильному коду
var DomainErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "orders",
		Name:      "domain_errors_total",
		Help:      "Domain-level rejections by error code",
	},
	[]string{"code"},
)

// PriceLockRefreshes - обновления price lock (still_valid, refreshed, failed)
var PriceLockRefreshes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "orders",
		Name:      "price_lock_refreshes_total",
		Help:      "Price lock refresh requests by outcome",
	},
	[]string{"result"},
)

// WebhookEvents - входящие события платежного провайдера
// (processed, duplicate, invalid_signature, error)
var WebhookEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "payments",
		Name:      "webhook_events_total",
		Help:      "Payment provider webhook deliveries by outcome",
	},
	[]string{"outcome"},
)

// ============================================================
// Метрики шины событий и фоновых задач
// ============================================================

// EventsPublished - события, доставленные relay'ем в Kafka
var EventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Outbox events published to the broker by type",
	},
	[]string{"event_type"},
)

// EventsConsumed - события, обработанные consumer'ом (processed, duplicate, error)
var EventsConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "events",
		Name:      "consumed_total",
		Help:      "Broker events handled by the notifier by outcome",
	},
	[]string{"outcome"},
)

// OutboxBacklog - размер неопубликованного бэклога outbox
var OutboxBacklog = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "stocklot",
		Subsystem: "events",
		Name:      "outbox_backlog",
		Help:      "Unpublished outbox events",
	},
)

// SweeperRuns - прогоны фоновых задач по задаче и результату
var SweeperRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "jobs",
		Name:      "sweeper_runs_total",
		Help:      "Background sweeper runs by job and result",
	},
	[]string{"job", "result"},
)

// SweeperAffected - строки, затронутые прогоном задачи
var SweeperAffected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "jobs",
		Name:      "sweeper_affected_total",
		Help:      "Rows affected by sweeper jobs",
	},
	[]string{"job"},
)

// NotificationsSent - уведомления по каналу и результату
var NotificationsSent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stocklot",
		Subsystem: "notifications",
		Name:      "sent_total",
		Help:      "Notifications dispatched by channel and result",
	},
	[]string{"channel", "result"},
)
