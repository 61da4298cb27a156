package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moviereview/app/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the ledger's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "moviereview",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moviereview",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moviereview",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path"},
	)

	instructions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moviereview",
			Subsystem: "program",
			Name:      "instructions_total",
			Help:      "Total number of program instructions processed.",
		},
		[]string{"instruction", "result"},
	)

	instructionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moviereview",
			Subsystem: "program",
			Name:      "instruction_duration_seconds",
			Help:      "Duration of program instructions.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"instruction"},
	)

	transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moviereview",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Total number of submitted transactions.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		instructions,
		instructionDuration,
		transactions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Paths are labelled with the matched route template so account addresses
// do not blow up label cardinality.
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

		path := routeTemplate(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// Instructions records program instruction outcomes. It satisfies
// program.Observer.
type Instructions struct{}

func (Instructions) ObserveInstruction(name string, duration time.Duration, err error) {
	instructions.WithLabelValues(name, result(err)).Inc()
	instructionDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordTransaction counts a submitted transaction by outcome.
func RecordTransaction(err error) {
	transactions.WithLabelValues(result(err)).Inc()
}

// result names the outcome: "ok", the program error name, or "error".
func result(err error) string {
	if err == nil {
		return "ok"
	}
	var programErr *services.Error
	if errors.As(err, &programErr) {
		return programErr.Name
	}
	return "error"
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
