package fixation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(xy ...float64) []Sample {
	out := make([]Sample, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, Sample{T: float64(i) * 10, X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestCentroid(t *testing.T) {
	c, err := Centroid(pts(0, 0, 2, 0, 2, 4, 0, 4))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.X, 1e-12)
	assert.InDelta(t, 2.0, c.Y, 1e-12)
}

func TestCentroid_PermutationInvariant(t *testing.T) {
	a, err := Centroid(pts(1, 7, -3, 2, 5, 5, 0.5, -1))
	require.NoError(t, err)
	b, err := Centroid(pts(5, 5, 0.5, -1, 1, 7, -3, 2))
	require.NoError(t, err)
	assert.InDelta(t, a.X, b.X, 1e-12)
	assert.InDelta(t, a.Y, b.Y, 1e-12)
}

func TestCentroid_Empty(t *testing.T) {
	_, err := Centroid(nil)
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestDispersion_Square(t *testing.T) {
	// Every corner of a square of half-side a is a*sqrt(2) from the centre.
	d, err := Dispersion(pts(-1, -1, 1, -1, 1, 1, -1, 1))
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, d, 1e-12)
}

func TestDispersion_ZeroIffCoincident(t *testing.T) {
	d, err := Dispersion(pts(3, 3, 3, 3, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)

	d, err = Dispersion(pts(3, 3, 3, 3, 3, 3.001))
	require.NoError(t, err)
	assert.Greater(t, d, 0.0)
}

func TestDispersion_NonNegative(t *testing.T) {
	windows := [][]Sample{
		pts(0, 0),
		pts(-5, 2, 7, -9),
		pts(1e6, 1e6, -1e6, 3, 0, 0, 12, 0.5),
	}
	for _, w := range windows {
		d, err := Dispersion(w)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 0.0)
	}
}

func TestDispersion_Empty(t *testing.T) {
	_, err := Dispersion([]Sample{})
	assert.ErrorIs(t, err, ErrEmptyWindow)
}
