package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    requestsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfsplit",
            Name:      "requests_total",
            Help:      "Total processing requests by output format and result",
        },
        []string{"format", "result"},
    )

    requestDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfsplit",
            Name:      "request_duration_seconds",
            Help:      "Duration of processing requests by output format",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"format"},
    )

    unitsGenerated = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfsplit",
            Name:      "units_generated_total",
            Help:      "Total output units generated by format (pdf, jpg)",
        },
        []string{"format"},
    )

    archiveBytes = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "pdfsplit",
            Name:      "archive_bytes",
            Help:      "Size of delivered archives in bytes",
            Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(requestsTotal, requestDuration, unitsGenerated, archiveBytes)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveRequest(format, result string, dur time.Duration) {
    requestsTotal.WithLabelValues(format, result).Inc()
    requestDuration.WithLabelValues(format).Observe(dur.Seconds())
}

func AddUnits(format string, n int) { unitsGenerated.WithLabelValues(format).Add(float64(n)) }

func ObserveArchive(size int64) { archiveBytes.Observe(float64(size)) }
