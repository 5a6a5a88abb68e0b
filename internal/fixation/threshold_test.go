package fixation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativeGrowthLimit(t *testing.T) {
	cfg := DefaultConfig(1)

	tests := []struct {
		name     string
		duration float64
		want     float64
	}{
		{"at min time", 100, 160},
		{"below min time clamps", 20, 160},
		{"negative duration clamps", -50, 160},
		{"halfway to zero", 190, 80},
		{"at time at zero", 280, 0},
		{"halfway to max", 2640, -25},
		{"at max time", 5000, -50},
		{"beyond max time clamps", 60000, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cfg.RelativeGrowthLimit(tt.duration), 1e-9)
		})
	}
}

func TestRelativeGrowthLimit_Monotonic(t *testing.T) {
	cfg := DefaultConfig(1)
	prev := cfg.RelativeGrowthLimit(0)
	for d := 10.0; d <= 6000; d += 10 {
		cur := cfg.RelativeGrowthLimit(d)
		assert.LessOrEqual(t, cur, prev, "limit must not increase with duration (d=%v)", d)
		prev = cur
	}
}

func TestDispersionThreshold(t *testing.T) {
	for _, calib := range []float64{0.1, 1, 2.5, 40} {
		cfg := DefaultConfig(calib)
		assert.Equal(t, calib*3.25, cfg.DispersionThreshold())
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig(1).Validate())
	assert.ErrorIs(t, DefaultConfig(0).Validate(), ErrInvalidCalibration)
	assert.ErrorIs(t, DefaultConfig(-1).Validate(), ErrInvalidCalibration)

	cfg := DefaultConfig(1)
	cfg.TimeAtZero = 50
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidTimeAtZero)

	cfg = DefaultConfig(1)
	cfg.SampleThreshold = 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidSampleThreshold)

	cfg = DefaultConfig(1)
	cfg.MaxSampleGap = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidMaxSampleGap)

	cfg = DefaultConfig(1)
	cfg.DuplicateEpsilon = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidEpsilon)

	cfg = DefaultConfig(1)
	cfg.DispersionThresholdFactor = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidThresholdFactor)
}
