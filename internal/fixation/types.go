package fixation

// Sample is one gaze sample. T is in milliseconds and must be nondecreasing
// within a stream. C (confidence) is carried through but not used.
type Sample struct {
	T float64 `json:"t"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	C float64 `json:"c"`
}

// Point is a 2D coordinate, used for centroids.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Status is the detector status reported after each step.
type Status int

const (
	StatusUnset Status = iota // no sample processed yet
	StatusNoneDetected
	StatusOngoing
	StatusConcluded
)

func (s Status) String() string {
	switch s {
	case StatusNoneDetected:
		return "none_detected"
	case StatusOngoing:
		return "ongoing"
	case StatusConcluded:
		return "concluded"
	default:
		return "unset"
	}
}

// Reason explains why a fixation was concluded.
type Reason string

const (
	ReasonTimeDifference Reason = "time_difference"
	ReasonRelThreshold   Reason = "rel_threshold"
	ReasonAbsThreshold   Reason = "abs_threshold"
	// ReasonEndOfStream is only produced by Detector.Flush.
	ReasonEndOfStream Reason = "end_of_stream"
)

// Fixation is a concluded fixation.
type Fixation struct {
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	Duration   float64  `json:"fixation_duration"`
	Centroid   Point    `json:"centroid"`
	Dispersion float64  `json:"dispersion"`
	Samples    []Sample `json:"samples"`
	Reason     Reason   `json:"conclusion_criteria"`
}

// StepResult is returned for every sample fed into the state machine.
// Fixation is non-nil only when Status is StatusConcluded.
type StepResult struct {
	Status            Status
	FixationStartTime float64
	HasStartTime      bool
	Fixation          *Fixation

	// Violation carries an internal invariant violation (ErrOngoingAboveThreshold,
	// ErrShortFixation). It never aborts processing.
	Violation error
}

// Concluded reports whether the step produced a fixation.
func (r StepResult) Concluded() bool {
	return r.Status == StatusConcluded && r.Fixation != nil
}
