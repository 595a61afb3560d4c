package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrPointFormat is returned for text that is not exactly "x y z"
var ErrPointFormat = errors.New("point must be three numbers: x y z")

// ParsePoint parses exactly three whitespace-separated finite floats whose
// magnitude is also finite
func ParsePoint(s string) (r3.Vector, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return r3.Vector{}, errors.Wrapf(ErrPointFormat, "got %d values in %q", len(fields), s)
	}

	var xyz [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return r3.Vector{}, errors.Wrapf(ErrPointFormat, "bad value %q", f)
		}
		xyz[i] = v
	}
	p := r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	if math.IsInf(p.Norm(), 0) {
		return r3.Vector{}, errors.Wrapf(ErrPointFormat, "magnitude of %q overflows", s)
	}
	return p, nil
}

// FormatPoint renders a point in the same "x y z" form ParsePoint accepts
func FormatPoint(p r3.Vector) string {
	return strconv.FormatFloat(p.X, 'g', -1, 64) + " " +
		strconv.FormatFloat(p.Y, 'g', -1, 64) + " " +
		strconv.FormatFloat(p.Z, 'g', -1, 64)
}

// Clamp restricts a value to the given range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
