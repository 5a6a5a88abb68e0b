package fixation

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Centroid returns the coordinate-wise mean of the samples.
func Centroid(samples []Sample) (Point, error) {
	if len(samples) == 0 {
		return Point{}, ErrEmptyWindow
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.X
		ys[i] = s.Y
	}
	return Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}, nil
}

// Dispersion returns the mean Euclidean distance of the samples to their
// centroid.
func Dispersion(samples []Sample) (float64, error) {
	c, err := Centroid(samples)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, s := range samples {
		sum += math.Hypot(s.X-c.X, s.Y-c.Y)
	}
	return sum / float64(len(samples)), nil
}

// dispersionOf is Dispersion for windows the state machine knows are non-empty.
func dispersionOf(w Window) float64 {
	d, _ := Dispersion(w.samples)
	return d
}
