package recognizer

// Canonical gesture labels, matching the MediaPipe canned gesture model's
// category names. Mode bindings are keyed by these strings, so the geometric
// classifier emits the same vocabulary as the model.
const (
	LabelNone       = "None"
	LabelClosedFist = "Closed_Fist"
	LabelOpenPalm   = "Open_Palm"
	LabelPointingUp = "Pointing_Up"
	LabelThumbDown  = "Thumb_Down"
	LabelThumbUp    = "Thumb_Up"
	LabelVictory    = "Victory"
)

// extendRatio is how much farther from the wrist a fingertip must sit than
// its PIP joint (IP for the thumb) before the finger counts as extended. The
// slack absorbs landmark noise on loosely curled fingers.
const extendRatio = 1.15

// thumbUpMargin is the minimum tip-above-MCP distance, in hand-local units,
// for a thumb to count as pointing up or down.
const thumbUpMargin = 0.5

// pointUpMargin is the minimum tip-above-MCP distance for the index finger
// in a pointing-up pose.
const pointUpMargin = 1.0

// fingerState captures which digits are extended.
type fingerState struct {
	thumb  bool
	index  bool
	middle bool
	ring   bool
	pinky  bool
}

func extended(n *HandLandmarks, tip, pip int) bool {
	origin := Point3D{}
	return distance3D(origin, n.Points[tip]) > distance3D(origin, n.Points[pip])*extendRatio
}

func fingerStates(n *HandLandmarks) fingerState {
	return fingerState{
		thumb:  extended(n, ThumbTip, ThumbIP),
		index:  extended(n, IndexTip, IndexPIP),
		middle: extended(n, MiddleTip, MiddlePIP),
		ring:   extended(n, RingTip, RingPIP),
		pinky:  extended(n, PinkyTip, PinkyPIP),
	}
}

// Classify derives a gesture from landmark geometry alone. It is the
// fallback when the landmark service reports hands without gesture
// classifications, and keeps the rest of the pipeline indifferent to which
// classifier produced a label. The score is the hand's detection score; the
// pose test itself is pass/fail.
func Classify(h *HandLandmarks) Gesture {
	if h == nil {
		return Gesture{Label: LabelNone}
	}

	n := h.Normalize()
	s := fingerStates(n)

	label := LabelNone
	switch {
	case s.index && s.middle && s.ring && s.pinky && s.thumb:
		label = LabelOpenPalm

	case s.index && s.middle && !s.ring && !s.pinky:
		label = LabelVictory

	case s.index && !s.middle && !s.ring && !s.pinky:
		// Pointing_Up means pointing up, not just an extended index.
		if n.Points[IndexTip].Y < n.Points[IndexMCP].Y-pointUpMargin {
			label = LabelPointingUp
		}

	case !s.index && !s.middle && !s.ring && !s.pinky:
		switch {
		case !s.thumb:
			label = LabelClosedFist
		case n.Points[ThumbTip].Y < n.Points[ThumbMCP].Y-thumbUpMargin:
			label = LabelThumbUp
		case n.Points[ThumbTip].Y > n.Points[ThumbMCP].Y+thumbUpMargin:
			label = LabelThumbDown
		}
	}

	return Gesture{Label: label, Score: h.Score}
}
