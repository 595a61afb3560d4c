package core

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    r3.Vector
		wantErr bool
	}{
		{name: "integers", input: "1 2 1", want: r3.Vector{X: 1, Y: 2, Z: 1}},
		{name: "floats and extra spaces", input: "  2.5\t-3  0.25 ", want: r3.Vector{X: 2.5, Y: -3, Z: 0.25}},
		{name: "exponent", input: "1e-1 0 2", want: r3.Vector{X: 0.1, Y: 0, Z: 2}},
		{name: "too few", input: "1 2", wantErr: true},
		{name: "too many", input: "1 2 3 4", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "1 two 3", wantErr: true},
		{name: "comma separated", input: "1,2,3", wantErr: true},
		{name: "nan", input: "NaN 0 1", wantErr: true},
		{name: "inf", input: "1 +Inf 1", wantErr: true},
		{name: "overflowing magnitude", input: "1e200 0 0", wantErr: true},
		{name: "large but finite", input: "1e100 0 0", want: r3.Vector{X: 1e100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePoint(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrPointFormat))
				assert.Equal(t, r3.Vector{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPoint(t *testing.T) {
	p := r3.Vector{X: 2, Y: -0.5, Z: 1.25}
	assert.Equal(t, "2 -0.5 1.25", FormatPoint(p))

	back, err := ParsePoint(FormatPoint(p))
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-5, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "Double", DataTypeDouble.String())
	assert.Equal(t, "Boolean", DataTypeBool.String())
	assert.Equal(t, "DataType(42)", DataType(42).String())
}
