package fixation

import "iter"

// Detect runs the state machine over samples and yields every concluded
// fixation in order. Iteration stops early if the consumer stops.
func Detect(cfg Config, samples iter.Seq[Sample]) iter.Seq[Fixation] {
	return func(yield func(Fixation) bool) {
		var st State
		for s := range samples {
			var res StepResult
			st, res = Step(cfg, st, s)
			if res.Concluded() && !yield(*res.Fixation) {
				return
			}
		}
	}
}
