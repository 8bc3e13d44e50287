// Package metrics holds the Prometheus collectors for the ProductVote API.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productvote_votes_total",
			Help: "Votes written, by action (cast, retract).",
		},
		[]string{"action"},
	)

	ProductsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "productvote_products_submitted_total",
			Help: "Products accepted through the submission gate.",
		},
	)

	GateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productvote_gate_decisions_total",
			Help: "Abuse gate decisions, by activity kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	RateLimitSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "productvote_ratelimit_windows_swept_total",
			Help: "Expired rate-limit windows removed by the sweeper.",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productvote_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "productvote_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "productvote_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "productvote_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "productvote_tally_reconcile_duration_seconds",
			Help:    "Duration of vote tally reconciliation runs.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all collectors with the default registry. Call once at
// startup. pool may be nil when running on the in-memory store.
func Register(pool *pgxpool.Pool) {
	if pool != nil {
		prometheus.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "productvote_db_connection_pool_active",
					Help: "Number of active database connections.",
				},
				func() float64 { return float64(pool.Stat().AcquiredConns()) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "productvote_db_connection_pool_idle",
					Help: "Number of idle database connections.",
				},
				func() float64 { return float64(pool.Stat().IdleConns()) },
			),
		)
	}

	prometheus.MustRegister(
		VotesTotal,
		ProductsSubmitted,
		GateDecisions,
		RateLimitSwept,
		RequestDuration,
		RequestsInFlight,
		CacheHits,
		CacheMisses,
		ReconcileDuration,
	)
}

// Middleware records request duration and in-flight count.
func Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy before c.Next(): fiber returns slices backed by the fasthttp
		// buffer, which handlers may reuse.
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)

		return err
	}
}

// sanitizeEndpoint collapses product ids so label cardinality stays bounded.
func sanitizeEndpoint(path string) string {
	const prefix = "/api/products/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	switch {
	case rest == "search" || rest == "trending":
		return path
	case strings.HasSuffix(rest, "/vote"):
		return prefix + ":id/vote"
	default:
		return prefix + ":id"
	}
}

// Handler serves the Prometheus /metrics endpoint via Fiber.
func Handler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
