package control

import (
	"math"
	"time"
)

// minFilterDt is the floor applied to timestamp deltas, in seconds. It keeps
// duplicate or non-monotonic timestamps from producing a division by zero.
const minFilterDt = 1e-6

// OneEuroFilter is an adaptive low-pass filter for a single scalar signal
// (Casiez et al., "1€ Filter", CHI 2012). The cutoff frequency rises with the
// estimated signal velocity: a still hand gets maximum jitter rejection, a
// fast-moving hand gets minimal lag.
type OneEuroFilter struct {
	minCutoff float64 // Hz, cutoff at zero velocity
	beta      float64 // responsiveness gain
	dCutoff   float64 // Hz, fixed cutoff for the derivative estimate

	primed bool
	value  float64   // last filtered value
	deriv  float64   // last smoothed derivative
	t      time.Time // timestamp of the last sample
}

// NewOneEuroFilter creates a filter with the given cutoffs. minCutoffHz and
// derivativeCutoffHz must be positive, beta non-negative; see Tuning.Validate.
func NewOneEuroFilter(minCutoffHz, beta, derivativeCutoffHz float64) *OneEuroFilter {
	return &OneEuroFilter{
		minCutoff: minCutoffHz,
		beta:      beta,
		dCutoff:   derivativeCutoffHz,
	}
}

// smoothingFactor converts a cutoff frequency into a blending coefficient for
// the given time step via the RC time-constant relation.
func smoothingFactor(cutoffHz, dt float64) float64 {
	tau := 1.0 / (2.0 * math.Pi * cutoffHz)
	return 1.0 / (1.0 + tau/dt)
}

// Update feeds one raw sample into the filter and returns the filtered value.
// The first sample after construction or Reset is returned unchanged.
func (f *OneEuroFilter) Update(raw float64, ts time.Time) float64 {
	if !f.primed {
		f.primed = true
		f.value = raw
		f.deriv = 0
		f.t = ts
		return raw
	}

	dt := ts.Sub(f.t).Seconds()
	if dt < minFilterDt {
		dt = minFilterDt
	}
	f.t = ts

	// Smooth the raw derivative at the fixed derivative cutoff, then let its
	// magnitude raise the signal cutoff above the floor.
	rawDeriv := (raw - f.value) / dt
	ad := smoothingFactor(f.dCutoff, dt)
	f.deriv = ad*rawDeriv + (1-ad)*f.deriv

	cutoff := f.minCutoff + f.beta*math.Abs(f.deriv)
	a := smoothingFactor(cutoff, dt)
	f.value = a*raw + (1-a)*f.value

	return f.value
}

// Reset returns the filter to its never-seen-a-sample state. Call it whenever
// a track restarts after hand loss so smoothing never spans a discontinuity.
func (f *OneEuroFilter) Reset() {
	f.primed = false
	f.value = 0
	f.deriv = 0
	f.t = time.Time{}
}

// filterBank groups the four per-coordinate filters covering the two tracked
// fingertips.
type filterBank struct {
	indexX, indexY   *OneEuroFilter
	middleX, middleY *OneEuroFilter
}

func newFilterBank(t Tuning) filterBank {
	mk := func() *OneEuroFilter {
		return NewOneEuroFilter(t.MinCutoffHz, t.Beta, t.DerivativeCutoffHz)
	}
	return filterBank{indexX: mk(), indexY: mk(), middleX: mk(), middleY: mk()}
}

func (b *filterBank) update(index, middle Point, ts time.Time) (Point, Point) {
	fi := Point{X: b.indexX.Update(index.X, ts), Y: b.indexY.Update(index.Y, ts)}
	fm := Point{X: b.middleX.Update(middle.X, ts), Y: b.middleY.Update(middle.Y, ts)}
	return fi, fm
}

func (b *filterBank) reset() {
	b.indexX.Reset()
	b.indexY.Reset()
	b.middleX.Reset()
	b.middleY.Reset()
}
