package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/pickplace-simulator/internal/health"
	"github.com/sebastiankruger/pickplace-simulator/internal/metrics"
)

// RouterConfig controls the rate limit applied to mutating routes
type RouterConfig struct {
	// MutationLimit is the number of mission, pause and config writes
	// allowed per client IP within MutationWindow
	MutationLimit  int
	MutationWindow time.Duration
}

// DefaultRouterConfig allows 120 writes per minute per IP
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		MutationLimit:  120,
		MutationWindow: time.Minute,
	}
}

// NewRouter mounts the API, health and metrics endpoints
func NewRouter(h *Handler, hh *health.Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(cors)

	r.Get("/health", hh.HandleHealth)
	r.Get("/health/live", hh.HandleLive)
	r.Get("/health/ready", hh.HandleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Get("/frame", h.HandleFrame)
		r.Get("/arm", h.HandleArm)
		r.Get("/reach", h.HandleReach)
		r.Get("/nodes", h.HandleNodes)
		r.Get("/config", h.HandleConfigGet)

		r.Group(func(r chi.Router) {
			r.Use(rateLimit(cfg.MutationLimit, cfg.MutationWindow))
			r.Post("/mission", h.HandleMission)
			r.Post("/pause", h.HandlePause)
			r.Post("/config", h.HandleConfigUpdate)
		})
	})

	return r
}

// rateLimit limits requests per client IP with a sliding window and
// answers excess requests with a JSON 429
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`))
		}),
	)
}

// cors answers preflight requests for the browser dashboard
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
