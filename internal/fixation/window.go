package fixation

// Window is the ordered candidate window. All operations return a new
// Window and never write into the receiver's backing array, so a State can
// be kept and replayed after later steps.
type Window struct {
	samples []Sample
}

// NewWindow builds a window from the given samples (copied).
func NewWindow(samples ...Sample) Window {
	return Window{samples: append([]Sample(nil), samples...)}
}

func (w Window) Len() int { return len(w.samples) }

func (w Window) Empty() bool { return len(w.samples) == 0 }

// First returns the oldest sample. It panics on an empty window.
func (w Window) First() Sample { return w.samples[0] }

// Last returns the newest sample. It panics on an empty window.
func (w Window) Last() Sample { return w.samples[len(w.samples)-1] }

// Samples returns a copy of the window contents.
func (w Window) Samples() []Sample {
	return append([]Sample(nil), w.samples...)
}

// Append returns the window with s added at the end.
func (w Window) Append(s Sample) Window {
	out := make([]Sample, len(w.samples), len(w.samples)+1)
	copy(out, w.samples)
	return Window{samples: append(out, s)}
}

// Slide drops the oldest sample and appends s.
func (w Window) Slide(s Sample) Window {
	if len(w.samples) == 0 {
		return NewWindow(s)
	}
	out := make([]Sample, len(w.samples)-1, len(w.samples))
	copy(out, w.samples[1:])
	return Window{samples: append(out, s)}
}

// DropOldest removes the oldest sample.
func (w Window) DropOldest() Window {
	if len(w.samples) == 0 {
		return w
	}
	return Window{samples: w.samples[1:len(w.samples):len(w.samples)]}
}

// Reset returns the single-sample window [s].
func (w Window) Reset(s Sample) Window {
	return NewWindow(s)
}
