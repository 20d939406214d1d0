package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	chargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_charges_total",
			Help: "Charge requests by payment method and outcome",
		},
		[]string{"method", "status"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Processor callbacks by reported status and handling result",
		},
		[]string{"transaction_status", "result"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets created for successful transactions",
		},
	)

	gatewayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_charge_duration_seconds",
			Help:    "Latency of outbound processor charge calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	pendingSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_payment_sessions_total",
			Help: "Current number of cached payment sessions",
		},
	)
)

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()

		keys, _ := m.redis.Keys(ctx, "payment:*").Result()
		pendingSessions.Set(float64(len(keys)))
	}
}

// Track charge outcomes
func (m *Monitor) TrackCharge(method, status string) {
	chargesTotal.WithLabelValues(method, status).Inc()
}

// Track callback handling
func (m *Monitor) TrackNotification(transactionStatus, result string) {
	notificationsTotal.WithLabelValues(transactionStatus, result).Inc()
}

func (m *Monitor) TrackTicketIssued() {
	ticketsIssued.Inc()
}

// Track processor call latency
func (m *Monitor) TrackGatewayLatency(duration time.Duration) {
	gatewayDuration.Observe(duration.Seconds())
}
