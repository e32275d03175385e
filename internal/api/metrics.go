package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	collectors "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reqTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tester",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total HTTP requests",
	}, []string{"method", "route", "code"})

	reqDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tester",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"method", "route"})
)

func init() {
	// Default process/go collectors; ignore AlreadyRegistered to avoid panics when other frameworks register them
	_ = prometheus.Register(collectors.NewGoCollector())
	_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	_ = prometheus.Register(reqTotal)
	_ = prometheus.Register(reqDuration)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.code = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// instrument labels by chi route pattern so path parameters don't explode cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		reqTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.code)).Inc()
		reqDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

var promhttpHandler = promhttp.Handler()

func promHandler() http.Handler { return promhttpHandler }
