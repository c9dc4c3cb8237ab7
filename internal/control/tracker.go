// Package control turns noisy per-frame gesture classifications into a
// stable stream of camera-control commands. It smooths fingertip landmarks
// with adaptive low-pass filters, debounces gesture labels into a confirmed
// control mode, converts confirmed motion into relative camera deltas, and
// pauses control when the hand disappears. The package performs no I/O and
// has no dependencies beyond the standard library.
package control

import "time"

// Point is a normalized 2-D landmark coordinate in [0,1].
type Point struct {
	X float64
	Y float64
}

// Sample is one frame of classifier output consumed by the tracker: the two
// fingertips the control scheme reads, plus the top gesture classification.
type Sample struct {
	IndexTip   Point
	MiddleTip  Point
	Label      string
	Confidence float64
}

// Tracker is the per-session state machine turning classifier samples into
// control packets. All state is confined to the single producer goroutine
// that calls Track; the tracker takes no locks, returns no errors, and
// never panics.
type Tracker struct {
	tuning  Tuning
	bank    filterBank
	confirm confirmer

	prev       prevFrame
	firstFrame bool
	lastActive time.Time
}

// NewTracker creates a tracker with the given tuning. The caller should have
// validated the tuning; see Tuning.Validate.
func NewTracker(t Tuning) *Tracker {
	return &Tracker{
		tuning:     t,
		bank:       newFilterBank(t),
		confirm:    newConfirmer(),
		firstFrame: true,
	}
}

// Track processes one frame. sample is nil when no hand was detected, which
// is a first-class input. The returned bool reports whether a packet was
// produced: every hand frame produces exactly one, a hand loss produces
// exactly one inactive packet at the timeout crossing, and an idle session
// produces none at all.
func (t *Tracker) Track(sample *Sample, ts time.Time) (Packet, bool) {
	if sample == nil {
		return t.trackAbsent(ts)
	}
	return t.trackHand(sample, ts), true
}

func (t *Tracker) trackHand(s *Sample, ts time.Time) Packet {
	t.lastActive = ts

	confidence := clamp01(s.Confidence)
	index, middle := t.bank.update(s.IndexTip, s.MiddleTip, ts)

	mode, changed, atThreshold := t.confirm.step(s.Label, confidence, t.tuning)
	if changed {
		// First frame of a new mode: there is no valid previous reference
		// under it yet, so exactly one frame of deltas is suppressed.
		t.firstFrame = true
	}

	var d Deltas
	if atThreshold && !t.firstFrame {
		d = computeDeltas(mode, index, middle, t.prev, t.tuning)
	}

	t.prev = prevFrame{
		indexX:   index.X,
		indexY:   index.Y,
		avgY:     (index.Y + middle.Y) / 2.0,
		angleDeg: angleDeg(index, middle),
	}
	t.firstFrame = false

	return Packet{
		Active:     true,
		Gesture:    s.Label,
		Confidence: confidence,
		Mode:       mode,
		DPanX:      d.PanX,
		DPanY:      d.PanY,
		DTheta:     d.Theta,
		DPhi:       d.Phi,
		DRadius:    d.Radius,
		Reset:      d.Reset,
	}.rounded()
}

// trackAbsent handles a no-hand frame. The reset is edge triggered: it fires
// once when the inactivity window elapses with a live mode, then the session
// stays silent until a hand returns. Losing tracking pauses control without
// snapping the camera back, so the inactive packet carries reset=false.
func (t *Tracker) trackAbsent(ts time.Time) (Packet, bool) {
	if t.confirm.confirmed == ModeNone {
		return Packet{}, false
	}
	if ts.Sub(t.lastActive) <= t.tuning.inactivityWindow() {
		return Packet{}, false
	}

	t.resetSession()
	return inactivePacket(), true
}

// resetSession returns every piece of per-session state to its initial
// value. Runs exactly once per inactivity timeout crossing.
func (t *Tracker) resetSession() {
	t.bank.reset()
	t.confirm.reset()
	t.prev = prevFrame{}
	t.firstFrame = true
}

// Mode returns the currently confirmed control mode.
func (t *Tracker) Mode() Mode {
	return t.confirm.confirmed
}

// Filtered returns the smoothed index tip of the most recent hand frame.
// The bool is false before the first hand frame and after a session reset.
func (t *Tracker) Filtered() (Point, bool) {
	if t.firstFrame {
		return Point{}, false
	}
	return Point{X: t.prev.indexX, Y: t.prev.indexY}, true
}

// SetTuning replaces the tuning and restarts the session, since filter and
// debounce state under the old tuning is not comparable. Call it only from
// the goroutine that drives Track.
func (t *Tracker) SetTuning(tuning Tuning) {
	t.tuning = tuning
	t.bank = newFilterBank(tuning)
	t.confirm = newConfirmer()
	t.prev = prevFrame{}
	t.firstFrame = true
}

// clamp01 guards against collaborator contract violations: out-of-range
// confidences are clamped rather than rejected.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
