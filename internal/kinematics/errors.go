package kinematics

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidTarget is returned for non-finite targets and targets below the base plane
	ErrInvalidTarget = errors.New("invalid target")

	// ErrOutOfWorkspace is returned for targets outside the reachable shell
	ErrOutOfWorkspace = errors.New("target out of workspace")
)

// ReachError describes why a target cannot be reached
type ReachError struct {
	Kind     error // ErrInvalidTarget or ErrOutOfWorkspace
	Target   r3.Vector
	Distance float64
	MinReach float64
	MaxReach float64
}

func (e *ReachError) Error() string {
	if e.Kind == ErrInvalidTarget {
		if !finite(e.Target) {
			return fmt.Sprintf("invalid target (%g, %g, %g): coordinates must be finite", e.Target.X, e.Target.Y, e.Target.Z)
		}
		return fmt.Sprintf("invalid target (%.3f, %.3f, %.3f): z must be >= 0", e.Target.X, e.Target.Y, e.Target.Z)
	}
	return fmt.Sprintf("target radius |p|=%.4f is outside [%.4f, %.4f]", e.Distance, e.MinReach, e.MaxReach)
}

// Unwrap lets errors.Is match the sentinel kind
func (e *ReachError) Unwrap() error {
	return e.Kind
}
