package httpclient

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinescope",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream API requests by endpoint and status code.",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cinescope",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// EndpointLabel collapses numeric resource ids so that per-movie
// requests share one metric series: /3/movie/550 -> /3/movie/:id.
// A leading numeric segment is the API version and is kept.
func EndpointLabel(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" && isDigits(parts[i]) && parts[i-1] != "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
