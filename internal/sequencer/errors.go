package sequencer

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrMissionInvalid is returned when a mission has an unreachable point
	ErrMissionInvalid = errors.New("mission rejected")

	// ErrRuntimeUnreachable marks an IK failure while a mission was running
	ErrRuntimeUnreachable = errors.New("runtime target unreachable")
)

// PointFailure names one mission point that failed validation
type PointFailure struct {
	Name  string // HOME, START or GOAL
	Point r3.Vector
	Err   error
}

// MissionError lists every point that made a mission invalid
type MissionError struct {
	Failures []PointFailure
}

func (e *MissionError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s not reachable: %v", f.Name, f.Err))
	}
	return strings.Join(parts, "; ")
}

// Is matches ErrMissionInvalid
func (e *MissionError) Is(target error) bool {
	return target == ErrMissionInvalid
}

// Unwrap exposes the first failure so kinematics sentinels can be matched
func (e *MissionError) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[0].Err
}

// Names returns the failing point names in validation order
func (e *MissionError) Names() []string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Name
	}
	return names
}

// RuntimeError records the step that drove the sequencer into Error
type RuntimeError struct {
	Phase  Phase
	Target r3.Vector
	Err    error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("IK failed during %s: %v", e.Phase, e.Err)
}

// Is matches ErrRuntimeUnreachable
func (e *RuntimeError) Is(target error) bool {
	return target == ErrRuntimeUnreachable
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
