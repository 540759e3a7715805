package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"eventix-gateway/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_http_requests_total",
			Help: "Gateway HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventix_http_request_duration_seconds",
			Help:    "Gateway HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	backendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_backend_requests_total",
			Help: "Calls to the ticketing API by route and status (0 = transport failure)",
		},
		[]string{"method", "route", "status"},
	)

	backendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventix_backend_request_duration_seconds",
			Help:    "Ticketing API round trip latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "route"},
	)

	checkoutTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_checkout_transitions_total",
			Help: "Checkout state transitions by target state and trigger",
		},
		[]string{"state", "trigger"},
	)

	cancelFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_checkout_cancel_failures_total",
			Help: "Best-effort reservation cancels that failed",
		},
		[]string{"trigger"},
	)

	openCheckouts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventix_checkout_open_views",
			Help: "Payment views currently kept alive",
		},
	)
)

// Monitor records gateway metrics. A nil *Monitor records nothing.
type Monitor struct {
	redis  *redis.Client
	logger *logger.Logger
}

func NewMonitor(redisClient *redis.Client, log *logger.Logger) *Monitor {
	return &Monitor{redis: redisClient, logger: log}
}

// Run samples Redis-backed gauges until ctx is done.
func (m *Monitor) Run(ctx context.Context, every time.Duration) {
	if m == nil || m.redis == nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		m.collectCheckoutMetrics(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) collectCheckoutMetrics(ctx context.Context) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, "checkout:view:*", 200).Result()
		if err != nil {
			m.logger.Warn("METRICS", fmt.Sprintf("Failed to scan checkout views: %v", err))
			return
		}
		count += len(keys)
		if cursor = next; cursor == 0 {
			break
		}
	}
	openCheckouts.Set(float64(count))
}

func (m *Monitor) TrackCheckout(state, trigger string) {
	if m == nil {
		return
	}
	checkoutTransitions.WithLabelValues(state, trigger).Inc()
}

func (m *Monitor) TrackCancelFailure(trigger string) {
	if m == nil {
		return
	}
	cancelFailures.WithLabelValues(trigger).Inc()
}

// ObserveBackend matches backend.ObserveFunc.
func (m *Monitor) ObserveBackend(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	backendRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	backendDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Middleware counts requests by chi route pattern and logs each one.
func (m *Monitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		if m != nil {
			httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
			m.logger.LogAPI(r.Method, r.URL.Path, status, elapsed)
		}
	})
}
