package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	dispatchDatagrams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hublink",
			Subsystem: "dispatch",
			Name:      "datagrams_total",
			Help:      "Datagrams processed by the application dispatcher.",
		},
		[]string{"outcome", "class", "type"},
	)
	transportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hublink",
			Subsystem: "dispatch",
			Name:      "transport_errors_total",
			Help:      "Error reports enqueued to the transport layer.",
		},
		[]string{"code"},
	)
	linkFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hublink",
			Subsystem: "link",
			Name:      "frames_total",
			Help:      "Link frames by direction and kind.",
		},
		[]string{"direction", "kind"},
	)
	statusRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hublink",
			Subsystem: "status",
			Name:      "requests_total",
			Help:      "Status API requests by route and status class.",
		},
		[]string{"node", "route", "class"},
	)
	statusLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hublink",
			Subsystem: "status",
			Name:      "request_seconds",
			Help:      "Status API request latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"node", "route"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(dispatchDatagrams, transportErrors, linkFrames, statusRequests, statusLatency)
	})
}

func RecordDispatch(outcome, class, msgType string) {
	RegisterMetrics()
	dispatchDatagrams.WithLabelValues(outcome, class, msgType).Inc()
}

func RecordTransportError(code uint8) {
	RegisterMetrics()
	transportErrors.WithLabelValues(strconv.Itoa(int(code))).Inc()
}

func RecordLinkFrame(direction, kind string) {
	RegisterMetrics()
	linkFrames.WithLabelValues(direction, kind).Inc()
}

func RecordStatusRequest(node, route string, status int, elapsed time.Duration) {
	RegisterMetrics()
	statusRequests.WithLabelValues(node, route, statusClass(status)).Inc()
	statusLatency.WithLabelValues(node, route).Observe(elapsed.Seconds())
}
