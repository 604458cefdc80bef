package equation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/swept2d/sweep"
)

// testTile builds a 3x3 single-variable tile view around a center cell
func testTile(values [3][3]float64) (sweep.TileView, int) {
	data := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data[i*3+j] = values[i][j]
		}
	}
	return sweep.TileView{Data: data, RowStride: 3, VarStride: 9}, 4
}

func TestIdentityStep(t *testing.T) {
	eq := NewIdentity(2)
	assert.Equal(t, "identity", eq.Name())
	assert.Equal(t, 2, eq.NumVars())
	assert.Equal(t, 1, eq.StencilRadius())

	data := []float64{1, 2, 3, 4, 5, 6}
	view := sweep.TileView{Data: data, RowStride: 1, VarStride: 3}
	out := make([]float64, 2)
	eq.Step(view, 1, out)
	assert.Equal(t, []float64{2, 5}, out)
}

func TestHeatValidation(t *testing.T) {
	_, err := NewHeat(0, 1, 1, 0.1)
	assert.Error(t, err, "non-positive diffusivity")

	_, err = NewHeat(1, 1, 1, 0.3)
	require.Error(t, err, "unstable time step")
	assert.Contains(t, err.Error(), "unstable")

	_, err = NewHeat(1, 1, 1, 0.25)
	assert.NoError(t, err, "marginally stable time step")
}

func TestHeatStep(t *testing.T) {
	eq, err := NewHeat(1, 1, 1, 0.2)
	require.NoError(t, err)

	// Rows are x, columns are y
	view, idx := testTile([3][3]float64{
		{0, 1, 0},
		{2, 10, 3},
		{0, 4, 0},
	})
	out := make([]float64, 1)
	eq.Step(view, idx, out)

	// uxx = 1 + 4 - 20, uyy = 2 + 3 - 20
	want := 10 + 0.2*((1+4-20.0)+(2+3-20.0))
	assert.InDelta(t, want, out[0], 1e-14)
}

func TestAdvectionValidation(t *testing.T) {
	_, err := NewAdvection(1, 1, 0, 1, 0.1)
	assert.Error(t, err, "non-positive delta")

	_, err = NewAdvection(2, 2, 1, 1, 0.5)
	require.Error(t, err, "CFL above one")
	assert.Contains(t, err.Error(), "CFL")

	_, err = NewAdvection(1, 1, 1, 1, 0.5)
	assert.NoError(t, err, "CFL exactly one")
}

func TestAdvectionUpwindDirections(t *testing.T) {
	view, idx := testTile([3][3]float64{
		{0, 2, 0},
		{1, 5, 9},
		{0, 7, 0},
	})
	out := make([]float64, 1)

	// Positive velocities difference against the upwind (lower) side
	eq, err := NewAdvection(1, 1, 1, 1, 0.25)
	require.NoError(t, err)
	eq.Step(view, idx, out)
	want := 5 - 0.25*((5-2.0)+(5-1.0))
	assert.InDelta(t, want, out[0], 1e-14)

	// Negative velocities difference against the upper side
	eq, err = NewAdvection(-1, -1, 1, 1, 0.25)
	require.NoError(t, err)
	eq.Step(view, idx, out)
	want = 5 + 0.25*((7-5.0)+(9-5.0))
	assert.InDelta(t, want, out[0], 1e-14)
}

func TestDeviceSources(t *testing.T) {
	heat, err := NewHeat(1, 1, 1, 0.2)
	require.NoError(t, err)
	adv, err := NewAdvection(1, 0, 1, 1, 0.5)
	require.NoError(t, err)

	for _, src := range []DeviceSource{NewIdentity(1), heat, adv} {
		code := src.StepSource()
		assert.True(t, strings.Contains(code,
			"void stepCell(const double *tile, const int idx, double *out)"),
			"step source missing the stepCell entry point")
	}
}
