package fixation

const (
	DefaultDispersionThresholdFactor = 3.25
	DefaultValueAtMin                = 1.6
	DefaultValueAtMax                = -0.5
	DefaultTimeAtZero                = 280.0
	DefaultMinTime                   = 100.0
	DefaultMaxTime                   = 5000.0
	DefaultSampleThreshold           = 3
	DefaultMaxSampleGap              = 150.0
	DefaultDuplicateEpsilon          = 1e-4
	DefaultMinFixationSamples        = 3
)

// Config holds the detector parameters. It is fixed for the lifetime of a
// detector. Use DefaultConfig and override fields as needed.
type Config struct {
	// CalibrationError is the subject-specific noise floor, in the same
	// units as the gaze coordinates.
	CalibrationError float64 `mapstructure:"calibrationError"`

	DispersionThresholdFactor float64 `mapstructure:"dispersionThresholdFactor"`

	// ValueAtMin is the relative dispersion growth factor allowed at MinTime.
	ValueAtMin float64 `mapstructure:"valueAtMin"`
	// ValueAtMax is the relative growth factor reached at MaxTime.
	ValueAtMax float64 `mapstructure:"valueAtMax"`
	// TimeAtZero is the fixation age (ms) at which no growth is allowed.
	TimeAtZero float64 `mapstructure:"timeAtZero"`
	MinTime    float64 `mapstructure:"minTime"`
	MaxTime    float64 `mapstructure:"maxTime"`

	// SampleThreshold is the number of samples accumulated before the
	// dispersion is evaluated at all.
	SampleThreshold int `mapstructure:"sampleThreshold"`
	// MaxSampleGap is the largest allowed time difference (ms) between
	// consecutive samples of one candidate window.
	MaxSampleGap       float64 `mapstructure:"maxSampleGap"`
	DuplicateEpsilon   float64 `mapstructure:"duplicateEpsilon"`
	MinFixationSamples int     `mapstructure:"minFixationSamples"`
}

// DefaultConfig returns the standard parameter set for the given calibration error.
func DefaultConfig(calibrationError float64) Config {
	return Config{
		CalibrationError:          calibrationError,
		DispersionThresholdFactor: DefaultDispersionThresholdFactor,
		ValueAtMin:                DefaultValueAtMin,
		ValueAtMax:                DefaultValueAtMax,
		TimeAtZero:                DefaultTimeAtZero,
		MinTime:                   DefaultMinTime,
		MaxTime:                   DefaultMaxTime,
		SampleThreshold:           DefaultSampleThreshold,
		MaxSampleGap:              DefaultMaxSampleGap,
		DuplicateEpsilon:          DefaultDuplicateEpsilon,
		MinFixationSamples:        DefaultMinFixationSamples,
	}
}

// DispersionThreshold is the absolute dispersion limit of a fixation.
func (c Config) DispersionThreshold() float64 {
	return c.CalibrationError * c.DispersionThresholdFactor
}

// WithCalibrationError returns a copy of c using the given calibration error.
func (c Config) WithCalibrationError(calibrationError float64) Config {
	c.CalibrationError = calibrationError
	return c
}

// Validate checks that the parameters describe a usable detector.
func (c Config) Validate() error {
	if !(c.CalibrationError > 0) {
		return ErrInvalidCalibration
	}
	if !(c.DispersionThresholdFactor > 0) {
		return ErrInvalidThresholdFactor
	}
	if !(c.MinTime < c.TimeAtZero && c.TimeAtZero < c.MaxTime) {
		return ErrInvalidTimeAtZero
	}
	if c.SampleThreshold < 2 || c.MinFixationSamples < 1 {
		return ErrInvalidSampleThreshold
	}
	if !(c.MaxSampleGap > 0) {
		return ErrInvalidMaxSampleGap
	}
	if c.DuplicateEpsilon < 0 {
		return ErrInvalidEpsilon
	}
	return nil
}
