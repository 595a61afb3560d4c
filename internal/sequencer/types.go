package sequencer

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/sebastiankruger/pickplace-simulator/internal/kinematics"
)

// Phase represents the active step of the pick-and-place cycle
type Phase int

const (
	PhaseMoveHomeToStart  Phase = iota // Travelling from home to the start point
	PhasePickAtStart                   // Dwelling at start while the object is picked
	PhaseMoveStartToGoal               // Carrying the object to the goal point
	PhasePlaceAtGoal                   // Dwelling at goal while the object is released
	PhaseReturnGoalToHome              // Travelling back to home
	PhaseWaitAtHomeReset               // Waiting at home before the next loop
	PhaseError                         // Frozen after a runtime reachability failure
)

func (p Phase) String() string {
	switch p {
	case PhaseMoveHomeToStart:
		return "MoveHomeToStart"
	case PhasePickAtStart:
		return "PickAtStart"
	case PhaseMoveStartToGoal:
		return "MoveStartToGoal"
	case PhasePlaceAtGoal:
		return "PlaceAtGoal"
	case PhaseReturnGoalToHome:
		return "ReturnGoalToHome"
	case PhaseWaitAtHomeReset:
		return "WaitAtHomeReset"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Text returns the operator-facing description of the phase
func (p Phase) Text() string {
	switch p {
	case PhaseMoveHomeToStart:
		return "HOME -> START"
	case PhasePickAtStart:
		return "PICK at START"
	case PhaseMoveStartToGoal:
		return "START -> GOAL (object attached)"
	case PhasePlaceAtGoal:
		return "PLACE at GOAL"
	case PhaseReturnGoalToHome:
		return "GOAL -> HOME"
	case PhaseWaitAtHomeReset:
		return "WAIT then LOOP"
	case PhaseError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Moving reports whether the phase follows a trajectory
func (p Phase) Moving() bool {
	return p == PhaseMoveHomeToStart || p == PhaseMoveStartToGoal || p == PhaseReturnGoalToHome
}

// AllPhases returns every phase in cycle order
func AllPhases() []Phase {
	return []Phase{
		PhaseMoveHomeToStart,
		PhasePickAtStart,
		PhaseMoveStartToGoal,
		PhasePlaceAtGoal,
		PhaseReturnGoalToHome,
		PhaseWaitAtHomeReset,
		PhaseError,
	}
}

// ObjectState tracks where the carried object is
type ObjectState int

const (
	ObjectAtStart ObjectState = iota
	ObjectAtGoal
	ObjectAttached
)

func (o ObjectState) String() string {
	switch o {
	case ObjectAtStart:
		return "AtStart"
	case ObjectAtGoal:
		return "AtGoal"
	case ObjectAttached:
		return "Attached"
	default:
		return "Unknown"
	}
}

// Params holds the mission timing and geometry constants
type Params struct {
	PickDwell    time.Duration // time spent at start before lifting
	PlaceDwell   time.Duration // time spent at goal before releasing
	ResetWait    time.Duration // time spent at home before looping
	ObjectOffset float64       // distance from the tool tip to the held object
}

// DefaultParams returns the stock cycle timing
func DefaultParams() Params {
	return Params{
		PickDwell:    450 * time.Millisecond,
		PlaceDwell:   350 * time.Millisecond,
		ResetWait:    1500 * time.Millisecond,
		ObjectOffset: 0.22,
	}
}

// Snapshot is a read-only copy of the sequencer state
type Snapshot struct {
	Active    bool
	Phase     Phase
	Object    ObjectState
	Joints    kinematics.JointAngles
	FK        kinematics.FKResult
	Approach  r3.Vector
	ObjectPos r3.Vector
	Target    r3.Vector
	Home      r3.Vector
	Start     r3.Vector
	Goal      r3.Vector
	Speed     float64
	Progress  float64
	Timer     float64 // seconds in the current dwell
	MissionID uuid.UUID
	Cycles    int
	Err       string
}

// transition is the outcome of one phase handler
type transition struct {
	next   Phase
	target r3.Vector
	object ObjectState
	leg    *leg // non-nil starts a new trajectory leg
}

type leg struct {
	from r3.Vector
	to   r3.Vector
}
