package api

import (
	"github.com/sebastiankruger/pickplace-simulator/internal/kinematics"
)

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	SimulatorName string  `json:"simulatorName"`
	Phase         string  `json:"phase"`
	PhaseText     string  `json:"phaseText"`
	Active        bool    `json:"active"`
	Paused        bool    `json:"paused"`
	MissionID     string  `json:"missionId,omitempty"`
	Cycles        int     `json:"cycles"`
	Progress      float64 `json:"progress"`
	Error         string  `json:"error,omitempty"`
}

// ArmResponse is returned by GET /api/arm
type ArmResponse struct {
	Link1    kinematics.LinkParams `json:"link1"`
	Link2    kinematics.LinkParams `json:"link2"`
	MinReach float64               `json:"minReach"`
	MaxReach float64               `json:"maxReach"`
	Home     string                `json:"home"`
	Start    string                `json:"start"`
	Goal     string                `json:"goal"`
}

// MissionRequest is used for POST /api/mission. Points use the
// "x y z" text form.
type MissionRequest struct {
	Start string `json:"start"`
	Goal  string `json:"goal"`
}

// PauseRequest is used for POST /api/pause
type PauseRequest struct {
	Paused *bool `json:"paused"`
}

// PauseResponse is returned by POST /api/pause
type PauseResponse struct {
	Paused bool `json:"paused"`
}

// ErrorResponse is the JSON body of failed requests
type ErrorResponse struct {
	Error  string   `json:"error"`
	Detail string   `json:"detail,omitempty"`
	Points []string `json:"points,omitempty"`
}

// NodeInfo describes an OPC UA node
type NodeInfo struct {
	Name        string      `json:"name"`
	NodeID      string      `json:"nodeId"`
	DataType    string      `json:"dataType"`
	Unit        string      `json:"unit,omitempty"`
	Description string      `json:"description,omitempty"`
	Value       interface{} `json:"value"`
}

// ConfigResponse is returned by GET /api/config
type ConfigResponse struct {
	Speed     float64 `json:"speed"`
	BaseSpeed float64 `json:"baseSpeed"`
	TimeScale float64 `json:"timeScale"`
	MinSpeed  float64 `json:"minSpeed"`
	MaxSpeed  float64 `json:"maxSpeed"`
}

// ConfigUpdateRequest is used for POST /api/config
type ConfigUpdateRequest struct {
	Speed     *float64 `json:"speed,omitempty"`
	TimeScale *float64 `json:"timeScale,omitempty"`
}
