package sequencer

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastiankruger/pickplace-simulator/internal/kinematics"
)

var (
	home  = r3.Vector{X: 2, Y: 2, Z: 2}
	start = r3.Vector{X: 1, Y: 2, Z: 1}
	goal  = r3.Vector{X: 2, Y: 3, Z: 2}
)

const (
	speed = 1.75
	dt    = 0.01
)

func newTestSequencer(t *testing.T) *Sequencer {
	t.Helper()
	arm, err := kinematics.NewArm(
		kinematics.LinkParams{Length: 3.0, Mass: 2.0},
		kinematics.LinkParams{Length: 2.6, Mass: 1.6},
	)
	require.NoError(t, err)
	return New(arm, DefaultParams())
}

func assertVecNear(t *testing.T, want, got r3.Vector, tol float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x")
	assert.InDelta(t, want.Y, got.Y, tol, "y")
	assert.InDelta(t, want.Z, got.Z, tol, "z")
}

func TestNew_Idle(t *testing.T) {
	s := newTestSequencer(t)

	assert.False(t, s.Active())
	assert.Equal(t, PhaseWaitAtHomeReset, s.Phase())
	assert.Equal(t, kinematics.JointAngles{}, s.Joints())
	assert.Equal(t, uuid.Nil, s.MissionID())

	// Idle steps do nothing
	require.NoError(t, s.Step(1))
	assert.Equal(t, PhaseWaitAtHomeReset, s.Phase())
	assert.Equal(t, 0.0, s.Timer())
	assert.Equal(t, 0, s.Cycles())
}

func TestStartMission(t *testing.T) {
	s := newTestSequencer(t)

	require.NoError(t, s.StartMission(home, start, goal, speed))
	assert.True(t, s.Active())
	assert.Equal(t, PhaseMoveHomeToStart, s.Phase())
	assert.Equal(t, ObjectAtStart, s.ObjectState())
	assert.Equal(t, 0.0, s.Timer())
	assert.Equal(t, 0.0, s.Progress())
	assert.NotEqual(t, uuid.Nil, s.MissionID())
	assert.NoError(t, s.Err())

	// Commanded joints place the tool at home
	snap := s.Snapshot()
	assertVecNear(t, home, snap.FK.Tool, 1e-4)
	assert.Equal(t, start, snap.ObjectPos)

	first := s.MissionID()
	require.NoError(t, s.StartMission(home, start, goal, speed))
	assert.NotEqual(t, first, s.MissionID())
}

func TestFullMissionCycle(t *testing.T) {
	s := newTestSequencer(t)
	require.NoError(t, s.StartMission(home, start, goal, speed))

	phases := []Phase{s.Phase()}
	sawAttachedNearTool := false

	for i := 0; i < 2000 && s.Cycles() == 0; i++ {
		require.NoError(t, s.Step(dt))
		require.NotEqual(t, PhaseError, s.Phase())

		if p := s.Phase(); p != phases[len(phases)-1] {
			phases = append(phases, p)
		}

		snap := s.Snapshot()
		assertVecNear(t, snap.Target, snap.FK.Tool, 1e-4)
		assert.GreaterOrEqual(t, snap.Progress, 0.0)
		assert.LessOrEqual(t, snap.Progress, 1.0)

		switch snap.Phase {
		case PhaseMoveStartToGoal:
			assert.Equal(t, ObjectAttached, snap.Object)
			offset := snap.ObjectPos.Sub(snap.FK.Tool)
			assert.InDelta(t, 0.22, offset.Norm(), 1e-9)
			sawAttachedNearTool = true
		case PhaseReturnGoalToHome:
			assert.Equal(t, ObjectAtGoal, snap.Object)
			assert.Equal(t, goal, snap.ObjectPos)
		case PhasePickAtStart:
			assert.Equal(t, ObjectAtStart, snap.Object)
			assertVecNear(t, start, snap.FK.Tool, 1e-4)
		case PhasePlaceAtGoal:
			assertVecNear(t, goal, snap.FK.Tool, 1e-4)
		}
	}

	assert.Equal(t, []Phase{
		PhaseMoveHomeToStart,
		PhasePickAtStart,
		PhaseMoveStartToGoal,
		PhasePlaceAtGoal,
		PhaseReturnGoalToHome,
		PhaseWaitAtHomeReset,
		PhaseMoveHomeToStart,
	}, phases)
	assert.Equal(t, 1, s.Cycles())
	assert.Equal(t, ObjectAtStart, s.ObjectState())
	assert.True(t, sawAttachedNearTool)
}

func TestStartMission_UnreachableGoal(t *testing.T) {
	s := newTestSequencer(t)
	require.NoError(t, s.StartMission(home, start, goal, speed))
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Step(dt))
	}
	before := s.Snapshot()

	err := s.StartMission(home, start, r3.Vector{X: 10, Y: 10, Z: 10}, speed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissionInvalid))
	assert.True(t, errors.Is(err, kinematics.ErrOutOfWorkspace))

	var missionErr *MissionError
	require.True(t, errors.As(err, &missionErr))
	assert.Equal(t, []string{"GOAL"}, missionErr.Names())
	assert.Contains(t, err.Error(), "GOAL not reachable")
	assert.NotContains(t, err.Error(), "START")

	assert.Equal(t, before, s.Snapshot())
}

func TestStartMission_NamesEveryFailure(t *testing.T) {
	s := newTestSequencer(t)

	err := s.StartMission(
		r3.Vector{X: 9, Y: 0, Z: 0},
		r3.Vector{X: 1, Y: 1, Z: -1},
		r3.Vector{},
		speed,
	)
	require.Error(t, err)

	var missionErr *MissionError
	require.True(t, errors.As(err, &missionErr))
	assert.Equal(t, []string{"HOME", "START", "GOAL"}, missionErr.Names())
	assert.True(t, errors.Is(missionErr.Failures[1].Err, kinematics.ErrInvalidTarget))
	assert.Contains(t, err.Error(), "z must be >= 0")

	assert.False(t, s.Active())
	assert.Equal(t, PhaseWaitAtHomeReset, s.Phase())
}

func TestStep_ZeroDtFreezes(t *testing.T) {
	s := newTestSequencer(t)
	require.NoError(t, s.StartMission(home, start, goal, speed))

	for _, stop := range []Phase{
		PhaseMoveHomeToStart,
		PhasePickAtStart,
		PhaseMoveStartToGoal,
		PhasePlaceAtGoal,
		PhaseReturnGoalToHome,
		PhaseWaitAtHomeReset,
	} {
		for i := 0; i < 2000 && s.Phase() != stop; i++ {
			require.NoError(t, s.Step(dt))
		}
		require.NoError(t, s.Step(dt))
		require.Equal(t, stop, s.Phase())

		before := s.Snapshot()
		for i := 0; i < 50; i++ {
			require.NoError(t, s.Step(0))
		}
		assert.Equal(t, before, s.Snapshot(), "phase %s", stop)
	}
}

func TestStep_RuntimeUnreachable(t *testing.T) {
	s := newTestSequencer(t)

	// The straight line between these points passes through the base
	h := r3.Vector{X: 2, Y: 0, Z: 0}
	st := r3.Vector{X: -2, Y: 0, Z: 0}
	require.NoError(t, s.StartMission(h, st, goal, speed))

	var stepErr error
	for i := 0; i < 500 && stepErr == nil; i++ {
		stepErr = s.Step(dt)
	}
	require.Error(t, stepErr)
	assert.True(t, errors.Is(stepErr, ErrRuntimeUnreachable))
	assert.True(t, errors.Is(stepErr, kinematics.ErrOutOfWorkspace))
	assert.Equal(t, PhaseError, s.Phase())
	assert.Equal(t, stepErr, s.Err())

	var runtimeErr *RuntimeError
	require.True(t, errors.As(stepErr, &runtimeErr))
	assert.Equal(t, PhaseMoveHomeToStart, runtimeErr.Phase)

	// Frozen: joints and progress hold their last values
	frozen := s.Snapshot()
	assert.NotEmpty(t, frozen.Err)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Step(dt))
	}
	assert.Equal(t, frozen, s.Snapshot())

	// A new valid mission recovers
	require.NoError(t, s.StartMission(home, start, goal, speed))
	assert.Equal(t, PhaseMoveHomeToStart, s.Phase())
	assert.NoError(t, s.Err())
	assert.Empty(t, s.Snapshot().Err)
}

func TestStep_NegativeDtTreatedAsZero(t *testing.T) {
	s := newTestSequencer(t)
	require.NoError(t, s.StartMission(home, start, goal, speed))
	require.NoError(t, s.Step(dt))

	before := s.Snapshot()
	require.NoError(t, s.Step(-1))
	require.NoError(t, s.Step(math.NaN()))
	assert.Equal(t, before, s.Snapshot())
}

func TestStartMission_NonFiniteHome(t *testing.T) {
	s := newTestSequencer(t)
	require.NoError(t, s.StartMission(home, start, goal, speed))
	before := s.Snapshot()

	err := s.StartMission(r3.Vector{X: math.NaN(), Y: 2, Z: 2}, start, goal, speed)
	require.Error(t, err)

	var missionErr *MissionError
	require.True(t, errors.As(err, &missionErr))
	require.Len(t, missionErr.Failures, 1)
	assert.Equal(t, "HOME", missionErr.Failures[0].Name)
	assert.True(t, errors.Is(missionErr.Failures[0].Err, kinematics.ErrInvalidTarget))
	assert.Equal(t, before, s.Snapshot())
}

func TestPhaseText(t *testing.T) {
	for _, p := range AllPhases() {
		assert.NotEqual(t, "Unknown", p.String())
		assert.NotEqual(t, "UNKNOWN", p.Text())
	}
	assert.Equal(t, "HOME -> START", PhaseMoveHomeToStart.Text())
	assert.Equal(t, "PICK at START", PhasePickAtStart.Text())
	assert.True(t, PhaseReturnGoalToHome.Moving())
	assert.False(t, PhasePlaceAtGoal.Moving())
	assert.Equal(t, "Attached", ObjectAttached.String())
}
