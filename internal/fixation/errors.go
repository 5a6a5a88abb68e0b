package fixation

import "errors"

var (
	ErrEmptyWindow            = errors.New("window is empty")
	ErrOngoingAboveThreshold  = errors.New("ongoing fixation at or above absolute dispersion threshold")
	ErrShortFixation          = errors.New("fixation window shorter than minimum sample count")
	ErrInvalidCalibration     = errors.New("calibration error must be positive")
	ErrInvalidThresholdFactor = errors.New("dispersion threshold factor must be positive")
	ErrInvalidTimeAtZero      = errors.New("timeAtZero must lie strictly between minTime and maxTime")
	ErrInvalidSampleThreshold = errors.New("sample threshold must be at least 2")
	ErrInvalidMaxSampleGap    = errors.New("max sample gap must be positive")
	ErrInvalidEpsilon         = errors.New("duplicate epsilon must not be negative")
)
