package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "longshot",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "longshot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "longshot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	shots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "longshot",
			Subsystem: "game",
			Name:      "shots_total",
			Help:      "Total number of shoot attempts.",
		},
		[]string{"accepted"},
	)

	goalShots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "longshot",
			Subsystem: "game",
			Name:      "goal_shots_total",
			Help:      "Total number of goal shot declarations.",
		},
		[]string{"accepted"},
	)

	payoutAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "longshot",
			Subsystem: "game",
			Name:      "payout_amount_total",
			Help:      "Total amount queued for payout, by transfer kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		shots,
		goalShots,
		payoutAmount,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordShot counts a shoot attempt.
func RecordShot(accepted bool) {
	shots.WithLabelValues(strconv.FormatBool(accepted)).Inc()
}

// RecordGoalShot counts a goal shot declaration and, when accepted, the
// queued payout amounts.
func RecordGoalShot(accepted bool, rewardAmount, adminAmount uint64) {
	goalShots.WithLabelValues(strconv.FormatBool(accepted)).Inc()
	if !accepted {
		return
	}
	payoutAmount.WithLabelValues("reward").Add(float64(rewardAmount))
	payoutAmount.WithLabelValues("admin").Add(float64(adminAmount))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath maps request paths onto a fixed label set so scanner traffic
// cannot mint unbounded label values.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "deadlines":
		if len(parts) == 2 {
			return "/deadlines/:player"
		}
	case "config":
		if len(parts) == 1 {
			return "/config"
		}
		if len(parts) == 2 {
			switch parts[1] {
			case "ticket-price", "reward-percentage", "admin-percentage":
				return "/config/" + parts[1]
			}
		}
	case "initialize", "shoot", "goal", "balance", "transfers", "healthz", "metrics":
		if len(parts) == 1 {
			return "/" + parts[0]
		}
	}
	return "/other"
}
