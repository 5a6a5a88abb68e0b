package fixation

import (
	"math"

	"go.uber.org/zap"
)

// State is the complete detector state for one gaze stream.
type State struct {
	Window Window
	Status Status
	// Dropped counts discarded samples. It is diagnostic only.
	Dropped int
}

// reported is the status handed back to callers: the initial unset status
// is reported as none_detected.
func (s State) reported() Status {
	if s.Status == StatusUnset {
		return StatusNoneDetected
	}
	return s.Status
}

func (s State) statusResult() StepResult {
	return StepResult{Status: s.reported()}
}

// Step feeds one sample into the state machine and returns the new state
// together with the step result. The input state is not modified.
func Step(cfg Config, st State, sample Sample) (State, StepResult) {
	if !st.Window.Empty() {
		last := st.Window.Last()

		if sample.T-last.T > cfg.MaxSampleGap {
			if st.Status == StatusOngoing {
				next, res := conclude(cfg, st, st.Window, ReasonTimeDifference)
				next.Window = st.Window.Reset(sample)
				return next, res
			}
			st.Dropped += st.Window.Len()
			st.Window = st.Window.Reset(sample)
			if st.Status == StatusConcluded {
				st.Status = StatusNoneDetected
			}
			return st, st.statusResult()
		}

		if math.Abs(last.X-sample.X) < cfg.DuplicateEpsilon && math.Abs(last.Y-sample.Y) < cfg.DuplicateEpsilon {
			if st.Status == StatusConcluded {
				st.Status = StatusNoneDetected
			}
			st.Dropped++
			return st, st.statusResult()
		}
	}

	if st.Window.Len() <= cfg.SampleThreshold {
		st.Window = st.Window.Append(sample)
		st.Status = StatusNoneDetected
		return st, st.statusResult()
	}

	threshold := cfg.DispersionThreshold()
	startTime := st.Window.First().T
	dispersionCurrent := dispersionOf(st.Window)
	slid := st.Window.Slide(sample)
	dispersionSlide := dispersionOf(slid)

	// Repairing the window by sliding takes precedence over growing it.
	if dispersionSlide < dispersionCurrent {
		st.Dropped++
		st.Window = slid
		if dispersionSlide < threshold {
			st.Status = StatusOngoing
			return st, StepResult{Status: StatusOngoing, FixationStartTime: startTime, HasStartTime: true}
		}
		st.Status = StatusNoneDetected
		return st, st.statusResult()
	}

	if dispersionCurrent >= threshold {
		if st.Status == StatusOngoing {
			res := st.statusResult()
			res.Violation = ErrOngoingAboveThreshold
			return st, res
		}
		st.Dropped++
		st.Window = st.Window.DropOldest()
		st.Status = StatusNoneDetected
		return st, st.statusResult()
	}
	st.Status = StatusOngoing

	pushed := st.Window.Append(sample)
	dispersionPush := dispersionOf(pushed)
	growth := (dispersionPush - dispersionCurrent) / dispersionCurrent * 100
	limit := cfg.RelativeGrowthLimit(sample.T - startTime)

	switch {
	case growth > limit:
		next, res := conclude(cfg, st, st.Window, ReasonRelThreshold)
		next.Window = st.Window.Reset(sample)
		return next, res
	case dispersionPush > threshold:
		next, res := conclude(cfg, st, st.Window, ReasonAbsThreshold)
		next.Window = st.Window.Reset(sample)
		return next, res
	}

	st.Window = pushed
	return st, StepResult{Status: StatusOngoing, FixationStartTime: startTime, HasStartTime: true}
}

// conclude builds the fixation for w and marks the state concluded. A window
// shorter than MinFixationSamples yields an empty result carrying
// ErrShortFixation.
func conclude(cfg Config, st State, w Window, reason Reason) (State, StepResult) {
	st.Status = StatusConcluded
	if w.Len() < cfg.MinFixationSamples || w.Empty() {
		return st, StepResult{Violation: ErrShortFixation}
	}

	centroid, _ := Centroid(w.samples)
	start, end := w.First().T, w.Last().T
	f := &Fixation{
		StartTime:  start,
		EndTime:    end,
		Duration:   end - start,
		Centroid:   centroid,
		Dispersion: dispersionOf(w),
		Samples:    w.Samples(),
		Reason:     reason,
	}
	return st, StepResult{Status: StatusConcluded, FixationStartTime: start, HasStartTime: true, Fixation: f}
}

// Detector drives the state machine for a single gaze stream. It is not safe
// for concurrent use; create one Detector per stream.
type Detector struct {
	cfg    Config
	state  State
	logger *zap.Logger
}

// NewDetector validates cfg and returns a detector in its initial state.
// A nil logger is replaced with a no-op logger.
func NewDetector(cfg Config, logger *zap.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{cfg: cfg, logger: logger}, nil
}

// Step processes one sample.
func (d *Detector) Step(sample Sample) StepResult {
	next, res := Step(d.cfg, d.state, sample)
	if res.Violation != nil {
		d.logger.Warn("Fixation detector invariant violated",
			zap.Error(res.Violation),
			zap.Float64("sample_t", sample.T),
			zap.Int("window_len", d.state.Window.Len()),
			zap.Stringer("status", d.state.Status),
		)
	}
	d.state = next
	return res
}

// Flush concludes a still-ongoing fixation at the end of a stream with
// ReasonEndOfStream. It returns false if no fixation was ongoing.
func (d *Detector) Flush() (StepResult, bool) {
	if d.state.Status != StatusOngoing {
		return StepResult{}, false
	}
	next, res := conclude(d.cfg, d.state, d.state.Window, ReasonEndOfStream)
	next.Window = Window{}
	d.state = next
	if res.Violation != nil {
		d.logger.Warn("Fixation detector invariant violated on flush", zap.Error(res.Violation))
		return res, false
	}
	return res, true
}

func (d *Detector) Config() Config { return d.cfg }

func (d *Detector) State() State { return d.state }

func (d *Detector) Status() Status { return d.state.Status }

// Dropped returns the number of samples discarded so far.
func (d *Detector) Dropped() int { return d.state.Dropped }
