// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Refresh metrics
	RefreshesTotal      *prometheus.CounterVec
	RefreshDuration     prometheus.Histogram
	LastSuccessfulFetch prometheus.Gauge
	SnapshotCoins       prometheus.Gauge
	TrendingCoins       prometheus.Gauge
	TradableSymbols     prometheus.Gauge

	// Upstream metrics
	UpstreamLatency *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec

	// News metrics
	NewsArticles prometheus.Gauge

	// Preference metrics
	FavoriteToggles  *prometheus.CounterVec
	ConsentDecisions *prometheus.CounterVec

	// Push metrics
	WSClients prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg. A nil reg
// uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "fhatalx"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RefreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "refreshes_total",
			Help:      "Total number of snapshot refreshes by status",
		}, []string{"status"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "refresh_duration_seconds",
			Help:      "Snapshot refresh duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		LastSuccessfulFetch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "last_success_timestamp",
			Help:      "Unix timestamp of the last committed snapshot",
		}),
		SnapshotCoins: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "coins",
			Help:      "Number of coins in the current snapshot",
		}),
		TrendingCoins: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "trending",
			Help:      "Number of trending coins in the current snapshot",
		}),
		TradableSymbols: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "tradable_symbols",
			Help:      "Number of tradable base assets known",
		}),

		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call"}),
		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Total number of failed upstream API calls",
		}, []string{"call"}),

		NewsArticles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "articles",
			Help:      "Number of news articles held",
		}),

		FavoriteToggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "preferences",
			Name:      "favorite_toggles_total",
			Help:      "Total favorite toggles by direction",
		}, []string{"direction"}),
		ConsentDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "preferences",
			Name:      "consent_decisions_total",
			Help:      "Total consent decisions by kind",
		}, []string{"decision"}),

		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Number of connected WebSocket clients",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordRefresh records a refresh attempt and, on success, the snapshot sizes.
func RecordRefresh(seconds float64, err error, coins, trending int, fetchedAtUnix int64) {
	DefaultMetrics.RefreshDuration.Observe(seconds)
	if err != nil {
		DefaultMetrics.RefreshesTotal.WithLabelValues("error").Inc()
		return
	}
	DefaultMetrics.RefreshesTotal.WithLabelValues("ok").Inc()
	DefaultMetrics.SnapshotCoins.Set(float64(coins))
	DefaultMetrics.TrendingCoins.Set(float64(trending))
	DefaultMetrics.LastSuccessfulFetch.Set(float64(fetchedAtUnix))
}

// RecordUpstream records the latency and outcome of one upstream call.
func RecordUpstream(call string, seconds float64, err error) {
	DefaultMetrics.UpstreamLatency.WithLabelValues(call).Observe(seconds)
	if err != nil {
		DefaultMetrics.UpstreamErrors.WithLabelValues(call).Inc()
	}
}

// UpdateTradableSymbols sets the tradable symbols gauge.
func UpdateTradableSymbols(n int) {
	DefaultMetrics.TradableSymbols.Set(float64(n))
}

// UpdateNewsArticles sets the news articles gauge.
func UpdateNewsArticles(n int) {
	DefaultMetrics.NewsArticles.Set(float64(n))
}

// RecordFavoriteToggle counts a favorite being added or removed.
func RecordFavoriteToggle(added bool) {
	direction := "removed"
	if added {
		direction = "added"
	}
	DefaultMetrics.FavoriteToggles.WithLabelValues(direction).Inc()
}

// RecordConsent counts a consent decision ("accept", "reject" or "custom").
func RecordConsent(decision string) {
	DefaultMetrics.ConsentDecisions.WithLabelValues(decision).Inc()
}

// UpdateWSClients sets the connected WebSocket clients gauge.
func UpdateWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}
