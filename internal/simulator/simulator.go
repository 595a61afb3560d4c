// Package simulator drives the sequencer from a wall-clock frame loop and
// serializes it against concurrent control requests.
package simulator

import (
	"context"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/sebastiankruger/pickplace-simulator/internal/config"
	"github.com/sebastiankruger/pickplace-simulator/internal/core"
	"github.com/sebastiankruger/pickplace-simulator/internal/kinematics"
	"github.com/sebastiankruger/pickplace-simulator/internal/sequencer"
)

// maxStep bounds one simulated step so a stalled loop cannot skip phases
const maxStep = 0.25

// Callbacks for simulator events. They run on the goroutine that caused
// the event, after the simulator lock has been released.
type Callbacks struct {
	OnMissionStart  func(frame Frame)
	OnPhaseChange   func(from, to sequencer.Phase)
	OnCycleComplete func(cycle int)
	OnError         func(err error)
	OnFrame         func(frame Frame)
}

// Simulator owns the arm, the sequencer and the pause state
type Simulator struct {
	mu sync.Mutex

	name    string
	arm     *kinematics.Arm
	seq     *sequencer.Sequencer
	runtime *config.RuntimeConfig

	home  r3.Vector
	start r3.Vector
	goal  r3.Vector

	paused      bool
	frames      uint64
	lastFrameAt time.Time

	callbacks Callbacks
}

// New builds the arm and sequencer from cfg. The simulator starts paused
// with no mission, holding the configured start and goal as defaults.
func New(cfg *config.Config, rc *config.RuntimeConfig) (*Simulator, error) {
	arm, err := kinematics.NewArm(cfg.Link1, cfg.Link2)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		name:    cfg.SimulatorName,
		arm:     arm,
		seq:     sequencer.New(arm, cfg.SequencerParams()),
		runtime: rc,
		home:    cfg.Home,
		start:   cfg.Start,
		goal:    cfg.Goal,
		paused:  true,
	}, nil
}

// SetCallbacks sets the callback functions for simulator events
func (s *Simulator) SetCallbacks(cb Callbacks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = cb
}

// Name returns the configured simulator name
func (s *Simulator) Name() string {
	return s.name
}

// Arm returns the immutable arm geometry
func (s *Simulator) Arm() *kinematics.Arm {
	return s.arm
}

// Runtime returns the runtime-adjustable configuration
func (s *Simulator) Runtime() *config.RuntimeConfig {
	return s.runtime
}

// Points returns home and the current start and goal
func (s *Simulator) Points() (home, start, goal r3.Vector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.home, s.start, s.goal
}

// StartMission launches a new mission from home using the runtime speed.
// On success the simulation resumes; a rejected mission changes nothing.
func (s *Simulator) StartMission(start, goal r3.Vector) error {
	s.mu.Lock()
	prev := s.seq.Phase()
	if err := s.seq.StartMission(s.home, start, goal, s.runtime.GetSpeed()); err != nil {
		s.mu.Unlock()
		return err
	}
	s.start = start
	s.goal = goal
	s.paused = false
	next := s.seq.Phase()
	frame := s.frameLocked()
	cb := s.callbacks
	s.mu.Unlock()

	if prev != next && cb.OnPhaseChange != nil {
		cb.OnPhaseChange(prev, next)
	}
	if cb.OnMissionStart != nil {
		cb.OnMissionStart(frame)
	}
	return nil
}

// StartDefaultMission launches a mission with the held start and goal
func (s *Simulator) StartDefaultMission() error {
	_, start, goal := s.Points()
	return s.StartMission(start, goal)
}

// SetPaused stops or resumes the simulation clock
func (s *Simulator) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// Paused reports whether the simulation clock is stopped
func (s *Simulator) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Step advances the simulation by dt wall-clock seconds, scaled by the
// runtime time scale. While paused the sequencer is stepped with zero.
func (s *Simulator) Step(dt float64) Frame {
	s.mu.Lock()

	simDt := 0.0
	if !s.paused {
		simDt = core.Clamp(dt*s.runtime.GetTimeScale(), 0, maxStep)
	}

	prevPhase := s.seq.Phase()
	prevCycles := s.seq.Cycles()

	stepErr := s.seq.Step(simDt)
	if stepErr != nil {
		// Freeze the clock on a runtime failure until a new mission arrives
		s.paused = true
	}

	s.frames++
	s.lastFrameAt = time.Now()
	frame := s.frameLocked()
	cb := s.callbacks
	s.mu.Unlock()

	if phase := frame.Phase; phase != prevPhase && cb.OnPhaseChange != nil {
		cb.OnPhaseChange(prevPhase, phase)
	}
	if frame.Cycles > prevCycles && cb.OnCycleComplete != nil {
		cb.OnCycleComplete(frame.Cycles)
	}
	if stepErr != nil && cb.OnError != nil {
		cb.OnError(stepErr)
	}
	if cb.OnFrame != nil {
		cb.OnFrame(frame)
	}
	return frame
}

// Snapshot returns the current frame without advancing time
func (s *Simulator) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// LastFrameAt returns when the frame loop last stepped; zero before the first step
func (s *Simulator) LastFrameAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrameAt
}

// Reach reports whether p is inside the arm workspace
func (s *Simulator) Reach(p r3.Vector) ReachInfo {
	info := ReachInfo{
		Point:    p,
		Distance: p.Norm(),
		MinReach: s.arm.MinReach(),
		MaxReach: s.arm.MaxReach(),
	}
	q, err := s.arm.SolveIK(p, false)
	if err != nil {
		info.Reason = err.Error()
		return info
	}
	deg := q.Degrees()
	info.Reachable = true
	info.Joints = &q
	info.JointsDeg = &deg
	return info
}

// Run steps the simulation every interval until ctx is cancelled
func (s *Simulator) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}

func (s *Simulator) frameLocked() Frame {
	snap := s.seq.Snapshot()

	text := snap.Phase.Text()
	if !snap.Active {
		text = "IDLE"
	}

	var missionID string
	if snap.Active {
		missionID = snap.MissionID.String()
	}

	return Frame{
		Name:       s.name,
		Phase:      snap.Phase,
		PhaseName:  snap.Phase.String(),
		PhaseText:  text,
		Active:     snap.Active,
		Joints:     snap.Joints,
		JointsDeg:  snap.Joints.Degrees(),
		FK:         snap.FK,
		Approach:   snap.Approach,
		Object:     snap.Object,
		ObjectName: snap.Object.String(),
		ObjectPos:  snap.ObjectPos,
		Target:     snap.Target,
		Home:       s.home,
		Start:      s.start,
		Goal:       s.goal,
		Progress:   snap.Progress,
		DwellTimer: snap.Timer,
		MissionID:  missionID,
		Cycles:     snap.Cycles,
		Paused:     s.paused,
		Speed:      s.runtime.GetSpeed(),
		TimeScale:  s.runtime.GetTimeScale(),
		Error:      snap.Err,
		FrameCount: s.frames,
		Arm:        armInfo(s.arm),
		Timestamp:  time.Now().UTC(),
	}
}
