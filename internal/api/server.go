package api

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tiliavir/timebook/internal/config"
	"github.com/Tiliavir/timebook/internal/observability"
	"github.com/Tiliavir/timebook/internal/service"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// NewMux builds the complete route table, including /metrics.
func NewMux(svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// NewServer creates the *http.Server for "timebook serve".
func NewServer(cfg config.ServerConfig, svc *service.Service, logger *log.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      WithRequestLogging(NewMux(svc), logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithRequestLogging assigns a request id (keeping a client supplied one),
// logs one line per request and records its latency.
func WithRequestLogging(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		observability.ObserveHTTPRequest(r.Method, route, rec.status, elapsed)
		if logger != nil {
			logger.Printf("%s %s %d %s %s", r.Method, r.URL.Path, rec.status, elapsed.Round(time.Microsecond), id)
		}
	})
}
