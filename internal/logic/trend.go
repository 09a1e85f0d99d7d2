package logic

// Trend is the direction of a run of samples.
type Trend int

const (
	Flat Trend = iota
	Rising
	Falling
)

// TrendDetector reports a direction once the last N steps all moved the
// same way. Equal consecutive samples reset the run.
type TrendDetector struct {
	samples int
	prev    float64
	hasPrev bool
	run     int
	dir     Trend
}

// NewTrendDetector needs samples consecutive strict steps in one direction.
// samples <= 0 disables detection: Observe always returns Flat.
func NewTrendDetector(samples int) *TrendDetector {
	return &TrendDetector{samples: samples}
}

// Observe adds a sample and returns the confirmed trend, if any.
func (t *TrendDetector) Observe(v float64) Trend {
	if t.samples <= 0 {
		return Flat
	}
	if !t.hasPrev {
		t.prev, t.hasPrev = v, true
		return Flat
	}

	var step Trend
	switch {
	case v > t.prev:
		step = Rising
	case v < t.prev:
		step = Falling
	}
	t.prev = v

	if step == Flat {
		t.run, t.dir = 0, Flat
		return Flat
	}
	if step == t.dir {
		t.run++
	} else {
		t.dir, t.run = step, 1
	}
	if t.run >= t.samples {
		return t.dir
	}
	return Flat
}

// Reset forgets all history.
func (t *TrendDetector) Reset() {
	*t = TrendDetector{samples: t.samples}
}
