package pipeline

import (
	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
)

// FixationEvent is a concluded fixation tagged with the stream and run it
// came from. It is what sinks persist.
type FixationEvent struct {
	RunID    string            `json:"run_id"`
	Stream   string            `json:"stream"`
	Task     string            `json:"task,omitempty"`
	Fixation fixation.Fixation `json:"fixation"`
}

// streamState holds the detector of one gaze stream plus bookkeeping for
// incremental metric updates.
type streamState struct {
	detector    *fixation.Detector
	task        string
	samples     int
	fixations   int
	lastDropped int
}
