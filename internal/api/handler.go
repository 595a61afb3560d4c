package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/pickplace-simulator/internal/config"
	"github.com/sebastiankruger/pickplace-simulator/internal/core"
	"github.com/sebastiankruger/pickplace-simulator/internal/metrics"
	"github.com/sebastiankruger/pickplace-simulator/internal/opcua"
	"github.com/sebastiankruger/pickplace-simulator/internal/sequencer"
	"github.com/sebastiankruger/pickplace-simulator/internal/simulator"
)

// Handler handles REST API requests for the simulator
type Handler struct {
	sim *simulator.Simulator
}

// NewHandler creates an API handler for sim
func NewHandler(sim *simulator.Simulator) *Handler {
	return &Handler{sim: sim}
}

// HandleStatus handles GET /api/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	f := h.sim.Snapshot()
	h.writeJSON(w, http.StatusOK, StatusResponse{
		SimulatorName: f.Name,
		Phase:         f.PhaseName,
		PhaseText:     f.PhaseText,
		Active:        f.Active,
		Paused:        f.Paused,
		MissionID:     f.MissionID,
		Cycles:        f.Cycles,
		Progress:      f.Progress,
		Error:         f.Error,
	})
}

// HandleFrame handles GET /api/frame
func (h *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.sim.Snapshot())
}

// HandleArm handles GET /api/arm
func (h *Handler) HandleArm(w http.ResponseWriter, r *http.Request) {
	arm := h.sim.Arm()
	home, start, goal := h.sim.Points()
	h.writeJSON(w, http.StatusOK, ArmResponse{
		Link1:    arm.Link1(),
		Link2:    arm.Link2(),
		MinReach: arm.MinReach(),
		MaxReach: arm.MaxReach(),
		Home:     core.FormatPoint(home),
		Start:    core.FormatPoint(start),
		Goal:     core.FormatPoint(goal),
	})
}

// HandleReach handles GET /api/reach?point=x+y+z
func (h *Handler) HandleReach(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("point")
	if strings.TrimSpace(raw) == "" {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{
			Error:  "missing_point",
			Detail: "Query parameter point is required. Use: x y z",
		})
		return
	}

	p, err := core.ParsePoint(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid_point",
			Detail: "Invalid point format. Use: x y z",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, h.sim.Reach(p))
}

// HandleMission handles POST /api/mission
func (h *Handler) HandleMission(w http.ResponseWriter, r *http.Request) {
	var req MissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordMission(metrics.OutcomeBadRequest)
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Detail: err.Error()})
		return
	}

	start, err := core.ParsePoint(req.Start)
	if err != nil {
		h.badPoint(w, "START")
		return
	}
	goal, err := core.ParsePoint(req.Goal)
	if err != nil {
		h.badPoint(w, "GOAL")
		return
	}

	if err := h.sim.StartMission(start, goal); err != nil {
		var missionErr *sequencer.MissionError
		if errors.As(err, &missionErr) {
			metrics.RecordMission(metrics.OutcomeRejected)
			for range missionErr.Failures {
				metrics.RecordIKFailure(metrics.StageValidation)
			}
			log.Warn().
				Str("start", core.FormatPoint(start)).
				Str("goal", core.FormatPoint(goal)).
				Strs("points", missionErr.Names()).
				Msg("Mission rejected")
			h.writeError(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:  "mission_rejected",
				Detail: missionErr.Error(),
				Points: missionErr.Names(),
			})
			return
		}
		log.Error().Err(err).Msg("Failed to start mission")
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal", Detail: err.Error()})
		return
	}

	frame := h.sim.Snapshot()
	metrics.RecordMission(metrics.OutcomeStarted)
	log.Info().
		Str("missionId", frame.MissionID).
		Str("start", core.FormatPoint(start)).
		Str("goal", core.FormatPoint(goal)).
		Msg("Mission started")

	h.writeJSON(w, http.StatusOK, frame)
}

func (h *Handler) badPoint(w http.ResponseWriter, name string) {
	metrics.RecordMission(metrics.OutcomeBadRequest)
	h.writeError(w, http.StatusBadRequest, ErrorResponse{
		Error:  "invalid_point",
		Detail: fmt.Sprintf("Invalid %s format. Use: x y z", name),
		Points: []string{name},
	})
}

// HandlePause handles POST /api/pause
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Detail: err.Error()})
		return
	}
	if req.Paused == nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Detail: "paused is required"})
		return
	}

	h.sim.SetPaused(*req.Paused)
	log.Info().Bool("paused", *req.Paused).Msg("Simulation pause toggled")
	h.writeJSON(w, http.StatusOK, PauseResponse{Paused: h.sim.Paused()})
}

// HandleNodes handles GET /api/nodes
func (h *Handler) HandleNodes(w http.ResponseWriter, r *http.Request) {
	values := h.sim.Snapshot().ToMap()
	defs := simulator.NodeDefinitions()

	nodes := make([]NodeInfo, 0, len(defs))
	for _, nd := range defs {
		nodes = append(nodes, NodeInfo{
			Name:        nd.Name,
			NodeID:      fmt.Sprintf("ns=%d;s=%s", core.NamespacePickPlace, opcua.NodeID(core.FolderPickPlace, nd.Name)),
			DataType:    nd.DataType.String(),
			Unit:        nd.Unit,
			Description: nd.Description,
			Value:       values[nd.Name],
		})
	}
	h.writeJSON(w, http.StatusOK, nodes)
}

// HandleConfigGet handles GET /api/config
func (h *Handler) HandleConfigGet(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.configResponse())
}

// HandleConfigUpdate handles POST /api/config
func (h *Handler) HandleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	var req ConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Detail: err.Error()})
		return
	}

	rc := h.sim.Runtime()

	if req.Speed != nil {
		if err := rc.SetSpeed(*req.Speed); err != nil {
			h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_config", Detail: err.Error()})
			return
		}
	}

	if req.TimeScale != nil {
		if err := rc.SetTimeScale(*req.TimeScale); err != nil {
			h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_config", Detail: err.Error()})
			return
		}
	}

	resp := h.configResponse()
	log.Info().
		Float64("speed", resp.Speed).
		Float64("timeScale", resp.TimeScale).
		Msg("Runtime config updated")
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) configResponse() ConfigResponse {
	snapshot := h.sim.Runtime().Snapshot()
	return ConfigResponse{
		Speed:     snapshot.Speed,
		BaseSpeed: snapshot.BaseSpeed,
		TimeScale: snapshot.TimeScale,
		MinSpeed:  config.MinSpeed,
		MaxSpeed:  config.MaxSpeed,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		buf.Reset()
		code = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{Error: "encode_failed", Detail: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code int, resp ErrorResponse) {
	h.writeJSON(w, code, resp)
}
