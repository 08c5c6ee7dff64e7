package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/dietdash/internal/api/handlers"
	"github.com/wonny/dietdash/internal/metrics"
	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routes and middleware order are defined only here
func NewRouter(cfg *config.Config, dashboard *handlers.DashboardHandler, m *metrics.Metrics, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if cfg.MetricsEnabled && m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	protect := []mux.MiddlewareFunc{authMiddleware(cfg.Dashboard.AuthHeader, cfg.Dashboard.AuthRequired)}
	if cfg.Dashboard.RateLimitRPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.Dashboard.RateLimitRPS), max(cfg.Dashboard.RateLimitBurst, 1))
		protect = append(protect, rateLimitMiddleware(limiter, log))
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(protect...)

	// Dashboard endpoints
	api.HandleFunc("/dashboard", dashboard.Dashboard).Methods("GET", "POST")
	api.HandleFunc("/status", dashboard.Status).Methods("GET")

	// the browser form posts to /
	var form http.Handler = http.HandlerFunc(dashboard.Dashboard)
	for i := len(protect) - 1; i >= 0; i-- {
		form = protect[i](form)
	}
	r.Handle("/", form).Methods("POST")

	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(m, log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "dietdash",
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests and records their latency
func loggingMiddleware(m *metrics.Metrics, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			if m != nil {
				m.RequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
			}

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware trusts the identity header set by the upstream auth proxy
func authMiddleware(header string, required bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := ""
			if header != "" {
				user = strings.TrimSpace(r.Header.Get(header))
			}
			if user == "" && required {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Authentication required",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user)))
		})
	}
}

// rateLimitMiddleware rejects requests beyond the shared token bucket
func rateLimitMiddleware(limiter *rate.Limiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.WithField("path", r.URL.Path).Warn("Rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
