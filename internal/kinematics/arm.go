// Package kinematics solves forward and inverse kinematics for a
// yaw + two-pitch-link arm.
//
// The base joint rotates about the world Z axis. The shoulder and elbow
// joints pitch inside the vertical plane selected by the base yaw, so the
// inverse problem reduces to a planar two-link solution in (r, z) where
// r is the horizontal distance of the target from the Z axis.
//
// All functions are pure and safe for concurrent use.
package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const (
	// reachTolerance absorbs floating error at the workspace boundary
	reachTolerance = 1e-9

	// yawEpsilon below which x and y are treated as zero
	yawEpsilon = 1e-12

	// approachEpsilon below which the tool direction is degenerate
	approachEpsilon = 1e-6
)

// Arm is an immutable two-link arm geometry
type Arm struct {
	link1 LinkParams
	link2 LinkParams
}

// NewArm creates an arm from two links. Link lengths must be positive.
func NewArm(l1, l2 LinkParams) (*Arm, error) {
	if !validLength(l1.Length) || !validLength(l2.Length) {
		return nil, errors.Errorf("link lengths must be positive and finite, got %g and %g", l1.Length, l2.Length)
	}
	l1.RecomputeInertia()
	l2.RecomputeInertia()
	return &Arm{link1: l1, link2: l2}, nil
}

func validLength(l float64) bool {
	return l > 0 && !math.IsInf(l, 1)
}

// Link1 returns the first (shoulder) link
func (a *Arm) Link1() LinkParams { return a.link1 }

// Link2 returns the second (forearm) link
func (a *Arm) Link2() LinkParams { return a.link2 }

// L1 returns the first link length
func (a *Arm) L1() float64 { return a.link1.Length }

// L2 returns the second link length
func (a *Arm) L2() float64 { return a.link2.Length }

// MaxReach is the fully extended radius
func (a *Arm) MaxReach() float64 { return a.link1.Length + a.link2.Length }

// MinReach is the fully folded radius
func (a *Arm) MinReach() float64 { return math.Abs(a.link1.Length - a.link2.Length) }

// SolveIK returns joint angles placing the tool tip at target.
//
// elbowUp selects the positive elbow branch; the negative ("elbow-down")
// branch is used otherwise. A non-nil error is always a *ReachError.
func (a *Arm) SolveIK(target r3.Vector, elbowUp bool) (JointAngles, error) {
	if !finite(target) || target.Z < 0 {
		return JointAngles{}, &ReachError{
			Kind:     ErrInvalidTarget,
			Target:   target,
			Distance: target.Norm(),
			MinReach: a.MinReach(),
			MaxReach: a.MaxReach(),
		}
	}

	x, y, z := target.X, target.Y, target.Z
	d := target.Norm()
	rmin, rmax := a.MinReach(), a.MaxReach()

	if d < rmin-reachTolerance || d > rmax+reachTolerance {
		return JointAngles{}, &ReachError{
			Kind:     ErrOutOfWorkspace,
			Target:   target,
			Distance: d,
			MinReach: rmin,
			MaxReach: rmax,
		}
	}

	var q0 float64
	if math.Abs(x) > yawEpsilon || math.Abs(y) > yawEpsilon {
		q0 = math.Atan2(y, x)
	}

	r := math.Hypot(x, y)
	l1, l2 := a.L1(), a.L2()

	c2 := (r*r + z*z - l1*l1 - l2*l2) / (2 * l1 * l2)
	c2 = math.Max(-1, math.Min(1, c2))

	q2 := math.Acos(c2)
	if !elbowUp {
		q2 = -q2
	}

	k1 := l1 + l2*math.Cos(q2)
	k2 := l2 * math.Sin(q2)
	q1 := math.Atan2(z, r) - math.Atan2(k2, k1)

	return JointAngles{Q0: q0, Q1: q1, Q2: q2}, nil
}

func finite(p r3.Vector) bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Reachable reports whether target passes the inverse kinematics check
func (a *Arm) Reachable(target r3.Vector) bool {
	_, err := a.SolveIK(target, false)
	return err == nil
}

// ForwardKinematics returns base, elbow and tool positions for q
func (a *Arm) ForwardKinematics(q JointAngles) FKResult {
	u := r3.Vector{X: math.Cos(q.Q0), Y: math.Sin(q.Q0)}
	k := r3.Vector{Z: 1}

	elbow := u.Mul(a.L1() * math.Cos(q.Q1)).Add(k.Mul(a.L1() * math.Sin(q.Q1)))

	sum := q.Q1 + q.Q2
	tool := elbow.
		Add(u.Mul(a.L2() * math.Cos(sum))).
		Add(k.Mul(a.L2() * math.Sin(sum)))

	return FKResult{
		Base:  r3.Vector{},
		Elbow: elbow,
		Tool:  tool,
	}
}

// ApproachDirection is the unit vector from elbow to tool tip.
// Falls back to +X when the forearm collapses to a point.
func ApproachDirection(fk FKResult) r3.Vector {
	v := fk.Tool.Sub(fk.Elbow)
	n := v.Norm()
	if n <= approachEpsilon {
		return r3.Vector{X: 1}
	}
	return v.Mul(1 / n)
}
