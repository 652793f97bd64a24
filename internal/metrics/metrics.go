package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deribit_index"

// Tick statuses.
const (
	TickOK           = "ok"
	TickEmpty        = "empty"
	TickPersistError = "persist_error"
	TickSkipped      = "skipped"
)

// Metrics holds every collector exported by the process. All methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	FetchOutcomes     *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
	Ticks             *prometheus.CounterVec
	TickDuration      prometheus.Histogram
	LastTickTimestamp prometheus.Gauge
	RowsPersisted     *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetcher",
			Name:      "outcomes_total",
			Help:      "Index price fetches by ticker and result.",
		}, []string{"ticker", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetcher",
			Name:      "request_duration_seconds",
			Help:      "Upstream request latency per ticker.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"ticker"}),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "ticks_total",
			Help:      "Fetch-and-persist cycles by status.",
		}, []string{"status"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full fetch-and-persist cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		LastTickTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed batch.",
		}),
		RowsPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "rows_persisted_total",
			Help:      "Price observations committed by ticker.",
		}, []string{"ticker"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Read API requests by route and status code.",
		}, []string{"route", "code"}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "subscribers",
			Help:      "Connected live price subscribers.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FetchOutcomes,
		m.FetchDuration,
		m.Ticks,
		m.TickDuration,
		m.LastTickTimestamp,
		m.RowsPersisted,
		m.HTTPRequests,
		m.StreamSubscribers,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one upstream request.
func (m *Metrics) ObserveFetch(ticker string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.FetchOutcomes.WithLabelValues(ticker, result).Inc()
	m.FetchDuration.WithLabelValues(ticker).Observe(d.Seconds())
}

// ObserveTick records a finished cycle.
func (m *Metrics) ObserveTick(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.WithLabelValues(status).Inc()
	if status != TickSkipped {
		m.TickDuration.Observe(d.Seconds())
	}
}

// ObservePersisted records a committed batch.
func (m *Metrics) ObservePersisted(tickers []string, createdAt int64) {
	if m == nil {
		return
	}
	for _, t := range tickers {
		m.RowsPersisted.WithLabelValues(t).Inc()
	}
	m.LastTickTimestamp.Set(float64(createdAt))
}

// ObserveRequest records a served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SetSubscribers sets the live stream subscriber count.
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.StreamSubscribers.Set(float64(n))
}
