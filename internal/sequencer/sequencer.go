// Package sequencer runs the pick-and-place mission as a finite-state
// machine. Each step selects a Cartesian target for the active phase,
// solves IK for it and advances the phase when its exit condition holds.
//
// A Sequencer is not safe for concurrent use; the owner serializes access.
package sequencer

import (
	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/sebastiankruger/pickplace-simulator/internal/kinematics"
	"github.com/sebastiankruger/pickplace-simulator/internal/trajectory"
)

// Sequencer owns one mission: its points, phase, timers and commanded joints
type Sequencer struct {
	arm    *kinematics.Arm
	params Params

	active bool
	phase  Phase
	object ObjectState
	joints kinematics.JointAngles
	target r3.Vector
	traj   trajectory.Linear
	timer  float64

	home  r3.Vector
	start r3.Vector
	goal  r3.Vector
	speed float64

	missionID uuid.UUID
	cycles    int
	err       error
}

// New creates an idle sequencer parked in WaitAtHomeReset with zero joints
func New(arm *kinematics.Arm, params Params) *Sequencer {
	return &Sequencer{
		arm:    arm,
		params: params,
		phase:  PhaseWaitAtHomeReset,
		object: ObjectAtStart,
	}
}

// Arm returns the arm geometry the sequencer solves against
func (s *Sequencer) Arm() *kinematics.Arm {
	return s.arm
}

// Params returns the mission timing constants
func (s *Sequencer) Params() Params {
	return s.params
}

// Validate checks every mission point against the workspace.
// The returned error is a *MissionError naming each failing point.
func (s *Sequencer) Validate(home, start, goal r3.Vector) error {
	_, err := s.validate(home, start, goal)
	return err
}

// validate also returns the home joint solution
func (s *Sequencer) validate(home, start, goal r3.Vector) (kinematics.JointAngles, error) {
	var homeJoints kinematics.JointAngles
	var failures []PointFailure
	for _, p := range []struct {
		name  string
		point r3.Vector
	}{
		{"HOME", home},
		{"START", start},
		{"GOAL", goal},
	} {
		q, err := s.arm.SolveIK(p.point, false)
		if err != nil {
			failures = append(failures, PointFailure{Name: p.name, Point: p.point, Err: err})
			continue
		}
		if p.name == "HOME" {
			homeJoints = q
		}
	}
	if len(failures) > 0 {
		return kinematics.JointAngles{}, &MissionError{Failures: failures}
	}
	return homeJoints, nil
}

// StartMission validates the points and, when all are reachable, starts
// the cycle at home heading for start. A rejected mission leaves the
// sequencer exactly as it was.
func (s *Sequencer) StartMission(home, start, goal r3.Vector, speed float64) error {
	q, err := s.validate(home, start, goal)
	if err != nil {
		return err
	}

	s.home = home
	s.start = start
	s.goal = goal
	s.speed = speed

	s.joints = q
	s.target = home
	s.object = ObjectAtStart
	s.timer = 0
	s.traj.Reset(home, start, trajectory.SegmentDuration(home, start, speed))
	s.phase = PhaseMoveHomeToStart
	s.err = nil
	s.active = true
	s.missionID = uuid.New()
	s.cycles = 0
	return nil
}

// Step advances the mission by dt seconds. A dt of zero leaves timers
// and trajectory progress untouched. The returned error is non-nil only
// on the step that enters the Error phase.
func (s *Sequencer) Step(dt float64) error {
	if !s.active || s.phase == PhaseError {
		return nil
	}
	if !(dt > 0) {
		dt = 0
	}

	s.apply(s.handle(dt))

	q, err := s.arm.SolveIK(s.target, false)
	if err != nil {
		s.err = &RuntimeError{Phase: s.phase, Target: s.target, Err: err}
		s.phase = PhaseError
		return s.err
	}
	s.joints = q
	return nil
}

func (s *Sequencer) handle(dt float64) transition {
	switch s.phase {
	case PhaseMoveHomeToStart:
		return s.handleMoveHomeToStart(dt)
	case PhasePickAtStart:
		return s.handlePickAtStart(dt)
	case PhaseMoveStartToGoal:
		return s.handleMoveStartToGoal(dt)
	case PhasePlaceAtGoal:
		return s.handlePlaceAtGoal(dt)
	case PhaseReturnGoalToHome:
		return s.handleReturnGoalToHome(dt)
	case PhaseWaitAtHomeReset:
		return s.handleWaitAtHomeReset(dt)
	default:
		return transition{next: s.phase, target: s.target, object: s.object}
	}
}

func (s *Sequencer) apply(t transition) {
	if t.next != s.phase {
		if s.phase == PhaseWaitAtHomeReset && t.next == PhaseMoveHomeToStart {
			s.cycles++
		}
		s.phase = t.next
		s.timer = 0
	}
	if t.leg != nil {
		s.traj.Reset(t.leg.from, t.leg.to, trajectory.SegmentDuration(t.leg.from, t.leg.to, s.speed))
	}
	s.target = t.target
	s.object = t.object
}

// Phase returns the active phase
func (s *Sequencer) Phase() Phase {
	return s.phase
}

// Active reports whether a mission has been started
func (s *Sequencer) Active() bool {
	return s.active
}

// ObjectState returns where the carried object is
func (s *Sequencer) ObjectState() ObjectState {
	return s.object
}

// Joints returns the last commanded joint angles
func (s *Sequencer) Joints() kinematics.JointAngles {
	return s.joints
}

// Progress returns the current trajectory leg progress
func (s *Sequencer) Progress() float64 {
	return s.traj.Progress()
}

// Timer returns the seconds spent in the current dwell phase
func (s *Sequencer) Timer() float64 {
	return s.timer
}

// Cycles returns the number of completed loops since the mission started
func (s *Sequencer) Cycles() int {
	return s.cycles
}

// MissionID identifies the running mission; zero when idle
func (s *Sequencer) MissionID() uuid.UUID {
	return s.missionID
}

// Err returns the runtime failure that froze the mission, if any
func (s *Sequencer) Err() error {
	return s.err
}

// Snapshot copies the state and derives FK and object placement from it
func (s *Sequencer) Snapshot() Snapshot {
	fk := s.arm.ForwardKinematics(s.joints)
	approach := kinematics.ApproachDirection(fk)

	snap := Snapshot{
		Active:    s.active,
		Phase:     s.phase,
		Object:    s.object,
		Joints:    s.joints,
		FK:        fk,
		Approach:  approach,
		ObjectPos: s.objectPosition(fk, approach),
		Target:    s.target,
		Home:      s.home,
		Start:     s.start,
		Goal:      s.goal,
		Speed:     s.speed,
		Progress:  s.traj.Progress(),
		Timer:     s.timer,
		MissionID: s.missionID,
		Cycles:    s.cycles,
	}
	if s.err != nil {
		snap.Err = s.err.Error()
	}
	return snap
}

func (s *Sequencer) objectPosition(fk kinematics.FKResult, approach r3.Vector) r3.Vector {
	switch s.object {
	case ObjectAttached:
		return fk.Tool.Add(approach.Mul(s.params.ObjectOffset))
	case ObjectAtGoal:
		return s.goal
	default:
		return s.start
	}
}
