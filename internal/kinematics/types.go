package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// LinkParams describes one rigid link of the arm
type LinkParams struct {
	Length float64 `json:"length" yaml:"length"` // m
	Mass   float64 `json:"mass" yaml:"mass"`     // kg

	// Uniform rod inertia, derived from Length and Mass. Display only.
	InertiaCM    float64 `json:"inertiaCm" yaml:"-"`    // kg*m^2 about the center of mass
	InertiaJoint float64 `json:"inertiaJoint" yaml:"-"` // kg*m^2 about the joint
}

// RecomputeInertia refreshes the derived inertia fields
func (lp *LinkParams) RecomputeInertia() {
	lp.InertiaCM = (1.0 / 12.0) * lp.Mass * lp.Length * lp.Length
	lp.InertiaJoint = (1.0 / 3.0) * lp.Mass * lp.Length * lp.Length
}

// JointAngles holds the commanded joint positions in radians
type JointAngles struct {
	Q0 float64 `json:"q0"` // base yaw
	Q1 float64 `json:"q1"` // shoulder pitch
	Q2 float64 `json:"q2"` // elbow pitch
}

// Degrees returns the angles converted to degrees
func (q JointAngles) Degrees() JointAngles {
	return JointAngles{
		Q0: q.Q0 * 180 / math.Pi,
		Q1: q.Q1 * 180 / math.Pi,
		Q2: q.Q2 * 180 / math.Pi,
	}
}

// FKResult holds the world positions produced by forward kinematics
type FKResult struct {
	Base  r3.Vector `json:"base"`
	Elbow r3.Vector `json:"elbow"`
	Tool  r3.Vector `json:"tool"`
}
