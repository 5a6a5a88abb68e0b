package fixation

// RelativeGrowthLimit returns the allowed relative dispersion growth, in
// percent, for a fixation that has been running for durationMs. The duration
// is clamped to [MinTime, MaxTime]. The limit falls linearly from
// ValueAtMin*100 at MinTime to 0 at TimeAtZero, then on to ValueAtMax*100 at
// MaxTime, so mature fixations may only extend while their dispersion shrinks.
func (c Config) RelativeGrowthLimit(durationMs float64) float64 {
	d := durationMs
	if d < c.MinTime {
		d = c.MinTime
	} else if d > c.MaxTime {
		d = c.MaxTime
	}

	if d < c.TimeAtZero {
		slope := c.ValueAtMin / (c.TimeAtZero - c.MinTime)
		return (c.ValueAtMin - (d-c.MinTime)*slope) * 100
	}
	slope := c.ValueAtMax / (c.MaxTime - c.TimeAtZero)
	return (d - c.TimeAtZero) * slope * 100
}
