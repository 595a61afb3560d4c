package simulator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sebastiankruger/pickplace-simulator/internal/config"
	"github.com/sebastiankruger/pickplace-simulator/internal/core"
	"github.com/sebastiankruger/pickplace-simulator/internal/sequencer"
)

func newTestSimulator(t *testing.T, mutate func(*config.Config)) *Simulator {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	sim, err := New(cfg, config.NewRuntimeConfig(cfg))
	require.NoError(t, err)
	return sim
}

func TestNew_StartsPausedAndIdle(t *testing.T) {
	sim := newTestSimulator(t, nil)

	assert.True(t, sim.Paused())
	f := sim.Snapshot()
	assert.False(t, f.Active)
	assert.Equal(t, "IDLE", f.PhaseText)
	assert.Equal(t, sequencer.PhaseWaitAtHomeReset, f.Phase)
	assert.Empty(t, f.MissionID)
	assert.InDelta(t, 5.6, f.Arm.MaxReach, 1e-12)
	assert.InDelta(t, 1.5, f.Arm.Link1.InertiaCM, 1e-12)

	// Idle and paused: stepping leaves the phase alone
	f = sim.Step(1)
	assert.Equal(t, sequencer.PhaseWaitAtHomeReset, f.Phase)
	assert.Equal(t, 0.0, f.DwellTimer)
	assert.Equal(t, uint64(1), f.FrameCount)
}

func TestNew_RejectsBadGeometry(t *testing.T) {
	cfg := config.Default()
	cfg.Link1.Length = 0
	_, err := New(cfg, config.NewRuntimeConfig(cfg))
	assert.Error(t, err)
}

func TestStartMission_ResumesAndNotifies(t *testing.T) {
	sim := newTestSimulator(t, nil)

	var changes [][2]sequencer.Phase
	var started []Frame
	sim.SetCallbacks(Callbacks{
		OnMissionStart: func(f Frame) { started = append(started, f) },
		OnPhaseChange: func(from, to sequencer.Phase) {
			changes = append(changes, [2]sequencer.Phase{from, to})
		},
	})

	require.NoError(t, sim.StartDefaultMission())
	assert.False(t, sim.Paused())

	f := sim.Snapshot()
	assert.True(t, f.Active)
	assert.Equal(t, sequencer.PhaseMoveHomeToStart, f.Phase)
	assert.Equal(t, "HOME -> START", f.PhaseText)
	assert.NotEmpty(t, f.MissionID)
	assert.Equal(t, [][2]sequencer.Phase{{sequencer.PhaseWaitAtHomeReset, sequencer.PhaseMoveHomeToStart}}, changes)
	require.Len(t, started, 1)
	assert.Equal(t, f.MissionID, started[0].MissionID)
}

func TestStartMission_RejectedKeepsState(t *testing.T) {
	sim := newTestSimulator(t, nil)
	require.NoError(t, sim.StartDefaultMission())
	sim.Step(0.1)
	sim.SetPaused(true)
	before := sim.Snapshot()

	err := sim.StartMission(r3.Vector{X: 1, Y: 2, Z: 1}, r3.Vector{X: 10, Y: 10, Z: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sequencer.ErrMissionInvalid))

	after := sim.Snapshot()
	assert.True(t, sim.Paused())
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.Progress, after.Progress)
	assert.Equal(t, before.MissionID, after.MissionID)
	assert.Equal(t, before.Goal, after.Goal)
	assert.Equal(t, before.Joints, after.Joints)
}

func TestStep_FullCycleCallbacks(t *testing.T) {
	sim := newTestSimulator(t, nil)

	var cycles []int
	transitions := 0
	sim.SetCallbacks(Callbacks{
		OnPhaseChange:   func(from, to sequencer.Phase) { transitions++ },
		OnCycleComplete: func(cycle int) { cycles = append(cycles, cycle) },
		OnError:         func(err error) { t.Errorf("unexpected error: %v", err) },
	})
	require.NoError(t, sim.StartDefaultMission())

	for i := 0; i < 1000 && len(cycles) == 0; i++ {
		sim.Step(0.02)
	}

	assert.Equal(t, []int{1}, cycles)
	assert.Equal(t, 7, transitions)
	assert.Equal(t, 1, sim.Snapshot().Cycles)
}

func TestStep_PausedFreezes(t *testing.T) {
	sim := newTestSimulator(t, nil)
	require.NoError(t, sim.StartDefaultMission())
	sim.Step(0.1)

	sim.SetPaused(true)
	before := sim.Snapshot()
	for i := 0; i < 10; i++ {
		sim.Step(0.5)
	}
	after := sim.Snapshot()

	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.Progress, after.Progress)
	assert.Equal(t, before.DwellTimer, after.DwellTimer)
	assert.Equal(t, before.Joints, after.Joints)

	sim.SetPaused(false)
	sim.Step(0.1)
	assert.Greater(t, sim.Snapshot().Progress, before.Progress)
}

func TestStep_TimeScaleAndClamp(t *testing.T) {
	sim := newTestSimulator(t, nil)
	require.NoError(t, sim.StartDefaultMission())

	legDuration := math.Sqrt2 / 1.75

	// A long stall advances at most one bounded step
	f := sim.Step(10)
	assert.InDelta(t, maxStep/legDuration, f.Progress, 1e-9)

	require.NoError(t, sim.StartDefaultMission())
	require.NoError(t, sim.Runtime().SetTimeScale(2))
	f = sim.Step(0.05)
	assert.InDelta(t, 0.1/legDuration, f.Progress, 1e-9)
	assert.Equal(t, 2.0, f.TimeScale)
}

func TestStep_RuntimeFailurePauses(t *testing.T) {
	sim := newTestSimulator(t, func(c *config.Config) {
		c.Home = r3.Vector{X: 2, Y: 0, Z: 0}
	})

	var errs []error
	sim.SetCallbacks(Callbacks{OnError: func(err error) { errs = append(errs, err) }})

	// The leg from home to start crosses the unreachable core around the base
	require.NoError(t, sim.StartMission(r3.Vector{X: -2, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 3, Z: 2}))
	for i := 0; i < 200 && len(errs) == 0; i++ {
		sim.Step(0.02)
	}

	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], sequencer.ErrRuntimeUnreachable))
	assert.True(t, sim.Paused())

	f := sim.Snapshot()
	assert.Equal(t, sequencer.PhaseError, f.Phase)
	assert.Equal(t, "ERROR", f.PhaseText)
	assert.NotEmpty(t, f.Error)

	// Unpausing does not leave Error; only a new mission does
	sim.SetPaused(false)
	sim.Step(0.02)
	assert.Equal(t, sequencer.PhaseError, sim.Snapshot().Phase)

	require.NoError(t, sim.StartMission(r3.Vector{X: 1, Y: 2, Z: 1}, r3.Vector{X: 2, Y: 3, Z: 2}))
	assert.Empty(t, sim.Snapshot().Error)
}

func TestReach(t *testing.T) {
	sim := newTestSimulator(t, nil)

	info := sim.Reach(r3.Vector{X: 2, Y: 2, Z: 2})
	assert.True(t, info.Reachable)
	assert.Empty(t, info.Reason)
	assert.InDelta(t, math.Sqrt(12), info.Distance, 1e-12)
	require.NotNil(t, info.Joints)
	assert.InDelta(t, 45.0, info.JointsDeg.Q0, 1e-9)

	info = sim.Reach(r3.Vector{X: 10, Y: 10, Z: 10})
	assert.False(t, info.Reachable)
	assert.Contains(t, info.Reason, "outside")
	assert.Nil(t, info.Joints)

	info = sim.Reach(r3.Vector{X: 1, Y: 1, Z: -1})
	assert.False(t, info.Reachable)
	assert.Contains(t, info.Reason, "z must be >= 0")
}

func TestRun_StopsWithoutLeaks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sim := newTestSimulator(t, nil)
	require.NoError(t, sim.StartDefaultMission())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sim.Run(ctx, time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		return sim.Snapshot().FrameCount >= 5
	}, 2*time.Second, time.Millisecond)
	assert.False(t, sim.LastFrameAt().IsZero())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestFrameToMapMatchesNodeDefinitions(t *testing.T) {
	sim := newTestSimulator(t, nil)
	require.NoError(t, sim.StartDefaultMission())
	values := sim.Step(0.1).ToMap()

	defs := NodeDefinitions()
	assert.Len(t, values, len(defs))

	for _, def := range defs {
		v, ok := values[def.Name]
		require.True(t, ok, "missing value for node %s", def.Name)
		assert.IsType(t, def.InitialValue, v, "node %s", def.Name)

		switch def.DataType {
		case core.DataTypeDouble:
			assert.IsType(t, float64(0), v, def.Name)
		case core.DataTypeInt32:
			assert.IsType(t, int32(0), v, def.Name)
		case core.DataTypeString:
			assert.IsType(t, "", v, def.Name)
		case core.DataTypeBool:
			assert.IsType(t, false, v, def.Name)
		}
	}
}
