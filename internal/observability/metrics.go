package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timebook",
		Subsystem: "timespans",
		Name:      "mutations_total",
		Help:      "Committed timespan mutations by operation.",
	}, []string{"operation"})

	lastMutationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timebook",
		Subsystem: "timespans",
		Name:      "last_mutation_timestamp_seconds",
		Help:      "Unix timestamp of the most recent committed timespan mutation.",
	})

	recordedSeconds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timebook",
		Subsystem: "timespans",
		Name:      "recorded_seconds_total",
		Help:      "Sum of durations of created timespans.",
	})

	httpRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "timebook",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

func init() {
	prometheus.MustRegister(mutationsTotal, lastMutationGauge, recordedSeconds, httpRequests)
}

// RecordMutation counts n committed changes for operation and moves the
// mutation watermark.
func RecordMutation(operation string, n int, ts time.Time) {
	if n <= 0 {
		return
	}
	mutationsTotal.WithLabelValues(operation).Add(float64(n))
	if !ts.IsZero() {
		lastMutationGauge.Set(float64(ts.Unix()))
	}
}

// RecordRecorded adds the duration of a newly created timespan.
func RecordRecorded(d time.Duration) {
	if d <= 0 {
		return
	}
	recordedSeconds.Add(d.Seconds())
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
