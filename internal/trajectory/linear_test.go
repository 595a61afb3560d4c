package trajectory

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinear_ZeroValueFinished(t *testing.T) {
	var l Linear
	assert.True(t, l.Finished())
	assert.Equal(t, 0.0, l.Progress())

	l.Advance(1)
	assert.Equal(t, 0.0, l.Elapsed())
	assert.Equal(t, r3.Vector{}, l.Position())
}

func TestLinear_Endpoints(t *testing.T) {
	from := r3.Vector{X: 2, Y: 2, Z: 2}
	to := r3.Vector{X: 1, Y: 2, Z: 1}

	var l Linear
	l.Reset(from, to, 2)
	require.False(t, l.Finished())
	assert.Equal(t, from, l.Position())

	l.Advance(1)
	assert.InDelta(t, 0.5, l.Progress(), 1e-12)
	mid := l.Position()
	assert.InDelta(t, 1.5, mid.X, 1e-12)
	assert.InDelta(t, 2.0, mid.Y, 1e-12)
	assert.InDelta(t, 1.5, mid.Z, 1e-12)

	l.Advance(5)
	assert.True(t, l.Finished())
	assert.Equal(t, 1.0, l.Progress())
	assert.Equal(t, to, l.Position())
}

func TestLinear_MonotoneProgress(t *testing.T) {
	var l Linear
	l.Reset(r3.Vector{}, r3.Vector{X: 1}, 0.8)

	prev := l.Progress()
	for i := 0; i < 100; i++ {
		l.Advance(0.013)
		p := l.Progress()
		assert.GreaterOrEqual(t, p, prev)
		assert.LessOrEqual(t, p, 1.0)
		prev = p
	}
	assert.True(t, l.Finished())
}

func TestLinear_ZeroDtNoChange(t *testing.T) {
	var l Linear
	l.Reset(r3.Vector{}, r3.Vector{Y: 3}, 1)
	l.Advance(0.25)

	before := l.Progress()
	for i := 0; i < 10; i++ {
		l.Advance(0)
	}
	assert.Equal(t, before, l.Progress())
	assert.False(t, l.Finished())
}

func TestLinear_DurationFloor(t *testing.T) {
	var l Linear
	l.Reset(r3.Vector{}, r3.Vector{Z: 1}, 0)
	assert.Equal(t, MinDuration, l.Duration())

	l.Advance(1e-6)
	assert.True(t, l.Finished())

	l.Reset(r3.Vector{}, r3.Vector{Z: 1}, -5)
	assert.Equal(t, MinDuration, l.Duration())
	assert.False(t, l.Finished())
}

func TestLinear_NaNInputs(t *testing.T) {
	var l Linear
	l.Reset(r3.Vector{}, r3.Vector{X: 2}, math.NaN())
	assert.Equal(t, MinDuration, l.Duration())

	l.Reset(r3.Vector{}, r3.Vector{X: 2}, 1)
	l.Advance(0.5)
	l.Advance(math.NaN())
	l.Advance(-1)
	assert.InDelta(t, 0.5, l.Progress(), 1e-12)
	assert.InDelta(t, 1.0, l.Position().X, 1e-12)
	assert.False(t, l.Finished())
}

func TestSegmentDuration(t *testing.T) {
	tests := []struct {
		name  string
		from  r3.Vector
		to    r3.Vector
		speed float64
		want  float64
	}{
		{name: "speed derived", from: r3.Vector{}, to: r3.Vector{X: 3.5}, speed: 1.75, want: 2.0},
		{name: "short leg floored", from: r3.Vector{}, to: r3.Vector{X: 0.1}, speed: 1.75, want: MinSegmentDuration},
		{name: "long leg capped", from: r3.Vector{}, to: r3.Vector{X: 100}, speed: 1, want: MaxSegmentDuration},
		{name: "zero speed guarded", from: r3.Vector{}, to: r3.Vector{X: 1}, speed: 0, want: MaxSegmentDuration},
		{name: "same point", from: r3.Vector{X: 1}, to: r3.Vector{X: 1}, speed: 1, want: MinSegmentDuration},
		{name: "nan speed guarded", from: r3.Vector{}, to: r3.Vector{X: 1}, speed: math.NaN(), want: MaxSegmentDuration},
		{name: "nan endpoint floored", from: r3.Vector{}, to: r3.Vector{X: math.NaN()}, speed: 1, want: MinSegmentDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SegmentDuration(tt.from, tt.to, tt.speed), 1e-12)
		})
	}
}
