package simulator

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/sebastiankruger/pickplace-simulator/internal/core"
	"github.com/sebastiankruger/pickplace-simulator/internal/kinematics"
	"github.com/sebastiankruger/pickplace-simulator/internal/sequencer"
)

// Frame is everything a consumer needs to present one simulation step
type Frame struct {
	Name      string          `json:"name"`
	Phase     sequencer.Phase `json:"phaseCode"`
	PhaseName string          `json:"phase"`
	PhaseText string          `json:"phaseText"`
	Active    bool            `json:"active"`

	Joints    kinematics.JointAngles `json:"joints"`    // rad
	JointsDeg kinematics.JointAngles `json:"jointsDeg"` // deg
	FK        kinematics.FKResult    `json:"fk"`
	Approach  r3.Vector              `json:"approach"`

	Object     sequencer.ObjectState `json:"objectCode"`
	ObjectName string                `json:"object"`
	ObjectPos  r3.Vector             `json:"objectPos"`

	Target r3.Vector `json:"target"`
	Home   r3.Vector `json:"home"`
	Start  r3.Vector `json:"start"`
	Goal   r3.Vector `json:"goal"`

	Progress   float64 `json:"progress"`
	DwellTimer float64 `json:"dwellTimer"` // s
	MissionID  string  `json:"missionId,omitempty"`
	Cycles     int     `json:"cycles"`
	Paused     bool    `json:"paused"`
	Speed      float64 `json:"speed"`
	TimeScale  float64 `json:"timeScale"`
	Error      string  `json:"error,omitempty"`

	FrameCount uint64    `json:"frameCount"`
	Arm        ArmInfo   `json:"arm"`
	Timestamp  time.Time `json:"timestamp"`
}

// ArmInfo is the static arm geometry, including display-only inertia
type ArmInfo struct {
	Link1    kinematics.LinkParams `json:"link1"`
	Link2    kinematics.LinkParams `json:"link2"`
	MinReach float64               `json:"minReach"`
	MaxReach float64               `json:"maxReach"`
}

func armInfo(arm *kinematics.Arm) ArmInfo {
	return ArmInfo{
		Link1:    arm.Link1(),
		Link2:    arm.Link2(),
		MinReach: arm.MinReach(),
		MaxReach: arm.MaxReach(),
	}
}

// ReachInfo is the reachability readout for one point
type ReachInfo struct {
	Point     r3.Vector `json:"point"`
	Distance  float64   `json:"distance"`
	MinReach  float64   `json:"minReach"`
	MaxReach  float64   `json:"maxReach"`
	Reachable bool      `json:"reachable"`
	Reason    string    `json:"reason,omitempty"`

	Joints    *kinematics.JointAngles `json:"joints,omitempty"`    // rad, elbow down
	JointsDeg *kinematics.JointAngles `json:"jointsDeg,omitempty"` // deg
}

// ToMap converts the frame to OPC UA node values keyed by node name
func (f Frame) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"Phase":        int32(f.Phase),
		"PhaseName":    f.PhaseName,
		"PhaseText":    f.PhaseText,
		"Active":       f.Active,
		"JointQ0":      f.Joints.Q0,
		"JointQ1":      f.Joints.Q1,
		"JointQ2":      f.Joints.Q2,
		"JointQ0Deg":   f.JointsDeg.Q0,
		"JointQ1Deg":   f.JointsDeg.Q1,
		"JointQ2Deg":   f.JointsDeg.Q2,
		"ElbowX":       f.FK.Elbow.X,
		"ElbowY":       f.FK.Elbow.Y,
		"ElbowZ":       f.FK.Elbow.Z,
		"ToolX":        f.FK.Tool.X,
		"ToolY":        f.FK.Tool.Y,
		"ToolZ":        f.FK.Tool.Z,
		"ObjectState":  int32(f.Object),
		"ObjectX":      f.ObjectPos.X,
		"ObjectY":      f.ObjectPos.Y,
		"ObjectZ":      f.ObjectPos.Z,
		"Progress":     f.Progress * 100,
		"DwellTimer":   f.DwellTimer,
		"MissionId":    f.MissionID,
		"CycleCount":   int32(f.Cycles),
		"Paused":       f.Paused,
		"Speed":        f.Speed,
		"TimeScale":    f.TimeScale,
		"ErrorMessage": f.Error,
		"Link1Length":  f.Arm.Link1.Length,
		"Link2Length":  f.Arm.Link2.Length,
		"MinReach":     f.Arm.MinReach,
		"MaxReach":     f.Arm.MaxReach,
	}
}

// NodeDefinitions returns the OPC UA variables published for the arm
func NodeDefinitions() []core.NodeDefinition {
	return []core.NodeDefinition{
		{Name: "Phase", DisplayName: "Phase", Description: "Sequencer phase (0=MoveHomeToStart ... 6=Error)", DataType: core.DataTypeInt32, Unit: "", InitialValue: int32(sequencer.PhaseWaitAtHomeReset)},
		{Name: "PhaseName", DisplayName: "Phase Name", Description: "Sequencer phase name", DataType: core.DataTypeString, Unit: "", InitialValue: ""},
		{Name: "PhaseText", DisplayName: "Phase Text", Description: "Operator-facing phase description", DataType: core.DataTypeString, Unit: "", InitialValue: ""},
		{Name: "Active", DisplayName: "Active", Description: "A mission has been started", DataType: core.DataTypeBool, Unit: "", InitialValue: false},
		{Name: "JointQ0", DisplayName: "Base Yaw", Description: "Commanded base yaw", DataType: core.DataTypeDouble, Unit: "rad", InitialValue: 0.0},
		{Name: "JointQ1", DisplayName: "Shoulder Pitch", Description: "Commanded shoulder pitch", DataType: core.DataTypeDouble, Unit: "rad", InitialValue: 0.0},
		{Name: "JointQ2", DisplayName: "Elbow Pitch", Description: "Commanded elbow pitch", DataType: core.DataTypeDouble, Unit: "rad", InitialValue: 0.0},
		{Name: "JointQ0Deg", DisplayName: "Base Yaw (deg)", Description: "Commanded base yaw", DataType: core.DataTypeDouble, Unit: "deg", InitialValue: 0.0},
		{Name: "JointQ1Deg", DisplayName: "Shoulder Pitch (deg)", Description: "Commanded shoulder pitch", DataType: core.DataTypeDouble, Unit: "deg", InitialValue: 0.0},
		{Name: "JointQ2Deg", DisplayName: "Elbow Pitch (deg)", Description: "Commanded elbow pitch", DataType: core.DataTypeDouble, Unit: "deg", InitialValue: 0.0},
		{Name: "ElbowX", DisplayName: "Elbow X", Description: "Elbow joint X position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "ElbowY", DisplayName: "Elbow Y", Description: "Elbow joint Y position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "ElbowZ", DisplayName: "Elbow Z", Description: "Elbow joint Z position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "ToolX", DisplayName: "Tool X", Description: "Tool tip X position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "ToolY", DisplayName: "Tool Y", Description: "Tool tip Y position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "ToolZ", DisplayName: "Tool Z", Description: "Tool tip Z position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "ObjectState", DisplayName: "Object State", Description: "Object state (0=AtStart,1=AtGoal,2=Attached)", DataType: core.DataTypeInt32, Unit: "", InitialValue: int32(0)},
		{Name: "ObjectX", DisplayName: "Object X", Description: "Carried object X position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "ObjectY", DisplayName: "Object Y", Description: "Carried object Y position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "ObjectZ", DisplayName: "Object Z", Description: "Carried object Z position", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "Progress", DisplayName: "Leg Progress", Description: "Trajectory leg progress 0-100%", DataType: core.DataTypeDouble, Unit: "%", InitialValue: 0.0},
		{Name: "DwellTimer", DisplayName: "Dwell Timer", Description: "Time spent in the current dwell", DataType: core.DataTypeDouble, Unit: "s", InitialValue: 0.0},
		{Name: "MissionId", DisplayName: "Mission ID", Description: "Active mission ID", DataType: core.DataTypeString, Unit: "", InitialValue: ""},
		{Name: "CycleCount", DisplayName: "Cycle Count", Description: "Cycles completed in this mission", DataType: core.DataTypeInt32, Unit: "", InitialValue: int32(0)},
		{Name: "Paused", DisplayName: "Paused", Description: "Simulation clock stopped", DataType: core.DataTypeBool, Unit: "", InitialValue: true},
		{Name: "Speed", DisplayName: "Speed", Description: "End-effector speed for new legs", DataType: core.DataTypeDouble, Unit: "m/s", InitialValue: 0.0},
		{Name: "TimeScale", DisplayName: "Time Scale", Description: "Simulation time multiplier", DataType: core.DataTypeDouble, Unit: "", InitialValue: 1.0},
		{Name: "ErrorMessage", DisplayName: "Error Message", Description: "Runtime reachability failure", DataType: core.DataTypeString, Unit: "", InitialValue: ""},
		{Name: "Link1Length", DisplayName: "Link 1 Length", Description: "Shoulder link length", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "Link2Length", DisplayName: "Link 2 Length", Description: "Forearm link length", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "MinReach", DisplayName: "Min Reach", Description: "Fully folded radius", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
		{Name: "MaxReach", DisplayName: "Max Reach", Description: "Fully extended radius", DataType: core.DataTypeDouble, Unit: "m", InitialValue: 0.0},
	}
}
