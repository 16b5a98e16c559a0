package mask

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_ConvergesToForeground(t *testing.T) {
	a := NewAccumulator(DefaultParams())
	accum := make([]float64, 1)

	for i := 0; i < 30; i++ {
		a.Blend(accum, []byte{255}, nil)
	}

	assert.Greater(t, accum[0], 0.999)
	assert.LessOrEqual(t, accum[0], 1.0)
}

func TestAccumulator_Recurrence(t *testing.T) {
	a := NewAccumulator(DefaultParams())
	accum := []float64{0}

	want := 0.0
	for i := 0; i < 10; i++ {
		a.Blend(accum, []byte{200}, nil)
		want = want*(1-0.25) + 200.0/255*0.25
		assert.Equal(t, want, accum[0], "frame %d", i)
	}
}

func TestAccumulator_ExcludedPixelsDecay(t *testing.T) {
	a := NewAccumulator(DefaultParams())
	accum := []float64{0.8, 0.8}

	a.Blend(accum, []byte{255, 255}, []bool{false, true})

	kept := 0.8*0.75 + 0.25
	assert.InDelta(t, kept, accum[0], 1e-12)
	assert.InDelta(t, kept*0.95, accum[1], 1e-12)
}

func TestAccumulator_ClampsDrift(t *testing.T) {
	a := Accumulator{Sway: 0.5, Decay: 1}
	accum := []float64{1.4, -0.3}

	a.Blend(accum, []byte{255, 0}, nil)

	assert.Equal(t, []float64{1, 0}, accum)
}

func TestMotionMask(t *testing.T) {
	assert.Nil(t, MotionMask(nil))
	assert.Nil(t, MotionMask([][]byte{{1, 2}}))

	got := MotionMask([][]byte{{9, 9, 9}, {10, 200, 50}, {30, 100, 50}})
	assert.Equal(t, []byte{20, 100, 0}, got)
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp01(tt.in), "Clamp01(%g)", tt.in)
	}
}

func TestAccumulator_NaNDoesNotStick(t *testing.T) {
	a := NewAccumulator(DefaultParams())
	accum := []float64{math.NaN(), 0.5}

	a.Blend(accum, []byte{255, 255}, nil)
	for p, v := range accum {
		assert.False(t, math.IsNaN(v), "pixel %d", p)
		assert.True(t, v >= 0 && v <= 1, "pixel %d out of range: %g", p, v)
	}
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 0.5, Mean([]float64{0, 1, 0.5, 0.5}), 1e-12)
}
