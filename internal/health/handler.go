package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const (
	startupGrace       = 5 * time.Second
	defaultStaleFrames = 2 * time.Second
)

// Status represents the health status response
type Status struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// FrameSource reports when the simulation loop last produced a frame
type FrameSource interface {
	LastFrameAt() time.Time
}

// Handler handles health check endpoints
type Handler struct {
	mu         sync.RWMutex
	opcuaReady bool
	startTime  time.Time
	frames     FrameSource
	staleAfter time.Duration
	now        func() time.Time
}

// NewHandler creates a new health handler. frames may be nil, in which
// case the frame loop check is skipped.
func NewHandler(frames FrameSource) *Handler {
	return &Handler{
		startTime:  time.Now(),
		frames:     frames,
		staleAfter: defaultStaleFrames,
		now:        time.Now,
	}
}

// SetOPCUAReady sets the OPC UA server readiness status
func (h *Handler) SetOPCUAReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opcuaReady = ready
}

// SetStaleAfter sets how old the last frame may be before the loop is
// reported as stalled
func (h *Handler) SetStaleAfter(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.staleAfter = d
}

// HandleLive handles the liveness check
// Returns 200 if the application is running
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	status := Status{
		Status:    "alive",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	writeStatus(w, http.StatusOK, status)
}

// HandleReady handles the readiness check
// Returns 200 once OPC UA is up, startup has settled and frames are flowing
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	opcuaReady := h.opcuaReady
	staleAfter := h.staleAfter
	h.mu.RUnlock()

	now := h.now()
	checks := make(map[string]string)
	allHealthy := true

	if opcuaReady {
		checks["opcua_server"] = "healthy"
	} else {
		checks["opcua_server"] = "not_ready"
		allHealthy = false
	}

	if now.Sub(h.startTime) > startupGrace {
		checks["startup"] = "complete"
	} else {
		checks["startup"] = "in_progress"
		allHealthy = false
	}

	if h.frames != nil {
		last := h.frames.LastFrameAt()
		switch {
		case last.IsZero():
			checks["frame_loop"] = "not_started"
			allHealthy = false
		case now.Sub(last) > staleAfter:
			checks["frame_loop"] = "stalled"
			allHealthy = false
		default:
			checks["frame_loop"] = "running"
		}
	}

	status := Status{
		Timestamp: now.UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	code := http.StatusOK
	status.Status = "ready"
	if !allHealthy {
		status.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	writeStatus(w, code, status)
}

// HandleHealth handles the combined health endpoint (for Docker HEALTHCHECK)
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.HandleReady(w, r)
}

func writeStatus(w http.ResponseWriter, code int, status Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
