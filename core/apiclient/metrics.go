package apiclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request pipeline activity. A nil *Metrics is a no-op.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	refresh  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squadcart",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests sent to the API, by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "squadcart",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests sent to the API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squadcart",
			Subsystem: "api",
			Name:      "refresh_attempts_total",
			Help:      "Token refresh attempts, by result.",
		}, []string{"result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squadcart",
			Subsystem: "api",
			Name:      "pipeline_outcomes_total",
			Help:      "Logical requests by pipeline outcome.",
		}, []string{"outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "squadcart",
			Subsystem: "api",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups, by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration, m.refresh, m.outcomes, m.cache}
}

func (m *Metrics) observeRequest(method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRefresh(result string) {
	if m == nil {
		return
	}
	m.refresh.WithLabelValues(result).Inc()
}

func (m *Metrics) observeOutcome(o Outcome) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(o.String()).Inc()
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}
