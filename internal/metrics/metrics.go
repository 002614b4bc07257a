package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "tradesession_"

	resultSuccess = "success"
	resultError   = "error"

	ResultFound    = "found"
	ResultNotFound = "not_found"
)

var (
	registerOnce sync.Once

	reloadTotal   *prometheus.CounterVec
	reloadLatency *prometheus.HistogramVec
	products      prometheus.Gauge
	lastReload    prometheus.Gauge
	queryTotal    *prometheus.CounterVec
)

// Init registers the metrics with reg, or the default registerer when reg is nil.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reloadTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reload_total",
				Help: "Session reloads by source and result",
			},
			[]string{"source", "result"},
		)
		reloadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reload_latency_seconds",
				Help:    "Session reload latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		products = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "products",
			Help: "Products in the published snapshot",
		})
		lastReload = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "last_reload_timestamp_seconds",
			Help: "Unix time of the last successful reload",
		})
		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_total",
				Help: "Session queries by operation and result",
			},
			[]string{"op", "result"},
		)
		reg.MustRegister(reloadTotal, reloadLatency, products, lastReload, queryTotal)
	})
}

// ObserveReload records one reload attempt; n is the product count after success.
func ObserveReload(source string, started time.Time, n int, err error) {
	if reloadTotal == nil {
		return
	}
	reloadLatency.WithLabelValues(source).Observe(time.Since(started).Seconds())
	if err != nil {
		reloadTotal.WithLabelValues(source, resultError).Inc()
		return
	}
	reloadTotal.WithLabelValues(source, resultSuccess).Inc()
	products.Set(float64(n))
	lastReload.Set(float64(time.Now().Unix()))
}

// ObserveQuery counts a per-product query.
func ObserveQuery(op string, found bool) {
	if queryTotal == nil {
		return
	}
	result := ResultFound
	if !found {
		result = ResultNotFound
	}
	queryTotal.WithLabelValues(op, result).Inc()
}
